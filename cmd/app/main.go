// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"newsmap/internal/config"
	"newsmap/internal/domain/ports/adapter"
	"newsmap/internal/domain/ports/repository"
	"newsmap/internal/infra/adapters/classifier"
	"newsmap/internal/infra/adapters/news"
	tele "newsmap/internal/infra/adapters/telegram"
	"newsmap/internal/infra/api"
	"newsmap/internal/infra/db/memory"
	pg "newsmap/internal/infra/db/postgres"
	"newsmap/internal/infra/logging"
	"newsmap/internal/infra/metrics"
	"newsmap/internal/infra/realtime"
	red "newsmap/internal/infra/redis"
	"newsmap/internal/infra/sched"
	alerts "newsmap/internal/infra/telegram"
	"newsmap/internal/infra/worker"
	"newsmap/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = ""
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted text)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis cache (optional) ----
	var cacheCli red.RedisClient
	var cacheClient *red.Client
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis cache unreachable, continuing without cache")
		} else {
			cacheClient = c
			cacheCli = c
			defer c.Close()
		}
	}
	cache := red.NewCache(cacheCli, logger)

	// ---- Result store: Postgres or memory, cached in Redis ----
	var results repository.BiasResultRepository = memory.NewResultStore()
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unreachable, using in-memory result store")
		} else {
			defer pool.Close()
			results = pg.NewBiasResultRepo(pool)
			go pg.ReportPoolStats(ctx, pool, 15*time.Second)
		}
	}
	if cacheCli != nil {
		results = pg.NewBiasResultCacheDecorator(results, cacheCli, cfg.News.SummaryTTL, logger)
	}

	// ---- Quota ----
	var counter repository.QuotaCounter = memory.NewQuotaCounter()
	if cacheClient != nil {
		counter = red.NewQuotaCounter(cacheClient)
	}
	quota := usecase.NewQuotaArbiter(counter, "newsapi", cfg.News.DailyQuota, logger)

	// ---- News providers ----
	var primary adapter.NewsProvider = news.NewMockProvider("newsapi")
	if cfg.Providers.NewsAPI.APIKey != "" {
		primary = news.NewNewsAPIClient(cfg.Providers.NewsAPI)
	}
	var fallbackA adapter.NewsProvider = news.NewMockProvider("gnews")
	if cfg.Providers.GNews.APIKey != "" {
		fallbackA = news.NewGNewsClient(cfg.Providers.GNews)
	}
	var fallbackB adapter.NewsProvider = news.NewMockProvider("thenewsapi")
	if cfg.Providers.TheNewsAPI.APIKey != "" {
		fallbackB = news.NewTheNewsAPIClient(cfg.Providers.TheNewsAPI)
	}
	logger.Info().
		Str("primary", primary.Name()).
		Strs("fallbacks", []string{fallbackA.Name(), fallbackB.Name()}).
		Msg("news providers configured")
	aggregator := usecase.NewNewsAggregator(cache, quota, primary, []adapter.NewsProvider{fallbackA, fallbackB}, cfg.News, logger)

	// ---- Classifier chain (ML -> OpenAI -> Gemini, heuristic when none) ----
	cls := buildClassifier(ctx, cfg.Classifier, logger)

	// ---- Realtime ----
	hub := realtime.NewHub(64, logger)
	var events adapter.Broadcaster = hub

	// ---- Dispatcher: durable when the broker answers, immediate otherwise ----
	var (
		dispatcher usecase.Dispatcher
		locker     red.Locker
		queueCli   *red.Client
	)
	if cfg.Queue.URL != "" {
		c, err := red.NewClient(ctx, &cfg.Queue)
		if err != nil {
			logger.Warn().Err(err).Msg("job broker unreachable, falling back to immediate dispatch")
		} else {
			queueCli = c
			defer c.Close()
		}
	}

	var pool *worker.Pool
	if queueCli != nil {
		locker = red.NewLocker(queueCli, 0, 0)
		relay := red.NewEventRelay(queueCli, "", hub, logger)
		events = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("event relay stopped")
			}
		}()

		analyzer := usecase.NewAnalyzer(results, cls, locker, cfg.Jobs.LockTTL, logger)
		queue := red.NewQueue(queueCli, "")
		jobs := red.NewJobStore(queueCli, cfg.Jobs.Retention)
		durable := usecase.NewDurableDispatcher(jobs, queue, analyzer, events, cfg.Jobs.MaxAttempts, cfg.Jobs.BackoffBase, cfg.Runtime.Dev, logger)
		dispatcher = durable

		pool = worker.NewPool(cfg.Jobs.Workers, 0, logger)
		pool.Start(ctx)
		proc := worker.NewBiasJobProcessor(queue, durable, cfg.Jobs.RatePerSecond, logger)
		go proc.Start(ctx, pool)

		promoter := sched.NewDelayedPromoter(cfg.Jobs.PromoteEvery, queue, logger)
		go func() { _ = promoter.Run(ctx) }()
	} else {
		analyzer := usecase.NewAnalyzer(results, cls, nil, cfg.Jobs.LockTTL, logger)
		jobs := memory.NewJobStore()
		dispatcher = usecase.NewImmediateDispatcher(jobs, analyzer, events, cfg.Runtime.Dev, logger)

		retention := sched.NewRetentionWorker(time.Minute, jobs, cfg.Jobs.Retention, cfg.Jobs.RetentionCount, logger)
		go func() { _ = retention.Run(ctx) }()
	}
	metrics.SetDispatchMode(string(dispatcher.Mode()))
	logger.Info().Str("mode", string(dispatcher.Mode())).Msg("job dispatcher ready")

	// ---- Ops alerts ----
	var notifier adapter.Notifier = tele.NewNoopNotifier(logger)
	if cfg.Telegram.Token != "" {
		bot, err := tele.NewBotNotifier(cfg.Telegram.Token)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram bot unavailable, alerts are logged only")
		} else {
			notifier = bot
		}
	}
	forwarder := alerts.NewAlertForwarder(hub, notifier, cfg.Telegram.ChatID, logger)
	go forwarder.Run(ctx)

	// ---- HTTP ----
	var limiter api.Limiter
	if cacheCli != nil {
		limiter = red.NewRateLimiter(cacheCli)
	}
	srv := api.NewServer(
		dispatcher,
		aggregator,
		quota,
		api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL),
		limiter,
		realtime.Handler(hub, logger),
		api.Options{RequestTimeout: cfg.Server.RequestTimeout, SubmitPerMinute: cfg.Server.SubmitPerMinute},
		logger,
	)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	cancel()
	hub.Close()

	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shCancel()
	if err := server.Shutdown(shCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	if pool != nil {
		pool.Stop()
	}
	logger.Info().Msg("bye")
}

func buildClassifier(ctx context.Context, cfg config.ClassifierConfig, logger *zerolog.Logger) adapter.Classifier {
	var members []adapter.Classifier
	if cfg.MLEndpoint != "" {
		members = append(members, classifier.NewMLClassifier(cfg.MLEndpoint, cfg.MLAPIKey, cfg.Timeout))
	}
	if cfg.OpenAIKey != "" {
		c, err := classifier.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxInputTokens)
		if err != nil {
			logger.Warn().Err(err).Msg("openai classifier disabled")
		} else {
			members = append(members, c)
		}
	}
	if cfg.GeminiKey != "" {
		c, err := classifier.NewGeminiClassifier(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.GeminiModel)
		if err != nil {
			logger.Warn().Err(err).Msg("gemini classifier disabled")
		} else {
			members = append(members, c)
		}
	}
	if len(members) == 0 {
		logger.Info().Msg("no classifier configured, using heuristic classifier")
		members = append(members, classifier.NewHeuristicClassifier())
	}
	chain := classifier.NewChain(logger, members...)
	logger.Info().Str("classifier", chain.Name()).Msg("classifier chain ready")
	return classifier.NewLimitedClassifier(chain, cfg.ConcurrentLimit)
}
