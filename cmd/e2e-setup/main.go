package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"newsmap/internal/config"
	"newsmap/internal/infra/api"
	"newsmap/internal/infra/db/postgres"
	"newsmap/internal/infra/redis"
)

// This script is for setting up a clean, predictable state
// for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Clean the cache and the broker.
	log.Println("[1/3] Wiping Redis cache and job broker...")
	for _, rc := range []config.RedisConfig{cfg.Redis, cfg.Queue} {
		if rc.URL == "" {
			continue
		}
		cli, err := redis.NewClient(ctx, &rc)
		if err != nil {
			log.Fatalf("redis %s: %v", rc.URL, err)
		}
		if err := cli.FlushDB(ctx); err != nil {
			log.Fatalf("failed to flush redis %s: %v", rc.URL, err)
		}
		_ = cli.Close()
	}

	// 2. Clean the result store.
	log.Println("[2/3] Wiping stored classifications...")
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 2)
		if err != nil {
			log.Fatalf("postgres connection failed: %v", err)
		}
		if _, err := pool.Exec(ctx, `TRUNCATE bias_results`); err != nil {
			log.Fatalf("failed to truncate bias_results: %v", err)
		}
		pool.Close()
	}

	// 3. Mint an admin token for the invalidation endpoint.
	log.Println("[3/3] Minting admin token...")
	auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if !auth.Enabled() {
		log.Println("ADMIN_JWT_SECRET not set; admin routes stay disabled")
	} else {
		tok, err := auth.Mint("e2e")
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("ADMIN_TOKEN=%s\n", tok)
	}

	log.Println("--- E2E Environment Setup Complete ---")
}
