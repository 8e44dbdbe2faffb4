package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/config"
	"newsmap/internal/domain/model"
	"newsmap/internal/infra/adapters/classifier"
	"newsmap/internal/infra/adapters/news"
	pg "newsmap/internal/infra/db/postgres"
	"newsmap/internal/usecase"
)

// seed warms the Postgres result store with heuristic classifications of the
// offline headlines, so a fresh environment answers them from cache.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	lang := flag.String("language", "en", "language of the seeded headlines")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	nop := zerolog.Nop()
	analyzer := usecase.NewAnalyzer(pg.NewBiasResultRepo(pool), classifier.NewHeuristicClassifier(), nil, 0, &nop)

	articles, err := news.NewMockProvider("seed").Fetch(ctx, model.Criteria{Language: *lang})
	if err != nil {
		log.Fatalf("mock headlines: %v", err)
	}
	processed := usecase.ProcessArticles(articles)
	for _, a := range processed {
		text := a.Title + ". " + a.Summary
		res, err := analyzer.Analyze(ctx, model.ContentKey(nil, text), text)
		if err != nil {
			log.Printf("skip %q: %v", a.Title, err)
			continue
		}
		fmt.Printf("  - [%s %.2f] %s (%s)\n", res.Prediction, res.Confidence, a.Title, a.Category)
	}
	fmt.Printf("%d headlines seeded.\n", len(processed))
}
