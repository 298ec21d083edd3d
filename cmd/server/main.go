package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"

	"sellerdesk/internal/cache"
	"sellerdesk/internal/config"
	"sellerdesk/internal/db"
	"sellerdesk/internal/handlers"
	"sellerdesk/internal/handlers/api"
	"sellerdesk/internal/jobs"
	"sellerdesk/internal/keywords"
	"sellerdesk/internal/listing"
	"sellerdesk/internal/llm"
	"sellerdesk/internal/metrics"
	"sellerdesk/internal/middleware"
	"sellerdesk/internal/rankdata"
	"sellerdesk/internal/server"
	"sellerdesk/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if cfg.IsDev() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	slog.SetDefault(logger)

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	metrics.Init(database)

	// Redis backs the cache and the rate limiter when configured
	var store cache.Store
	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		limiterStorage = redisStore.Storage()
	} else {
		log.Println("REDIS_URL not set; caching disabled and rate limits kept in memory")
	}
	kvCache := cache.New(store, logger)

	// LLM
	if ok, msg := validation.ValidateURL(cfg.LLMBaseURL); !ok {
		log.Fatalf("Invalid LLM_BASE_URL: %s", msg)
	}
	if !cfg.LLMEnabled() {
		log.Println("LLM_API_KEY not set; seed expansion falls back to seeds and listing generation will fail")
	}
	completer := llm.NewClient(llm.Options{
		BaseURL:    cfg.LLMBaseURL,
		APIKey:     cfg.LLMAPIKey,
		Model:      cfg.LLMModel,
		Timeout:    cfg.LLMTimeout,
		MaxRetries: cfg.LLMMaxRetries,
	})

	// Rank data
	var fetcher rankdata.Fetcher
	if cfg.RankDataEnabled() {
		if ok, msg := validation.ValidateURL(cfg.DataForSEOBaseURL); !ok {
			log.Fatalf("Invalid DATAFORSEO_BASE_URL: %s", msg)
		}
		fetcher = rankdata.NewClient(rankdata.Options{
			BaseURL:    cfg.DataForSEOBaseURL,
			Login:      cfg.DataForSEOLogin,
			Password:   cfg.DataForSEOPassword,
			Timeout:    cfg.RankDataTimeout,
			MaxRetries: cfg.RankDataMaxRetries,
		})
	} else {
		log.Println("DataForSEO credentials not set; competitor ASIN analysis is disabled")
	}

	// Templates: built-ins, then the config file, then the database
	registry, err := listing.NewRegistry(yamlCfg.Templates...)
	if err != nil {
		log.Fatalf("Invalid template in config file: %v", err)
	}
	custom, err := database.ListTemplates(ctx)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}
	for _, t := range custom {
		if err := registry.Add(t); err != nil {
			logger.Warn("skipping stored template", "id", t.ID, "error", err)
		}
	}

	keywordService := keywords.NewService(kvCache, fetcher, completer, logger, keywords.ServiceOptions{
		ClusterThreshold: yamlCfg.Keywords.ClusterThreshold,
		ExpansionCount:   yamlCfg.Keywords.ExpansionCount,
		Model:            cfg.LLMModel,
	})
	generator := listing.NewGenerator(completer, registry, yamlCfg.BannedWords, cfg.LLMModel, logger)

	// Auth
	var verifier middleware.TokenVerifier
	if cfg.AuthEnabled() {
		oidcVerifier, err := middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC: %v", err)
		}
		verifier = oidcVerifier
	} else {
		log.Println("OIDC_ISSUER not set; API requests run as anonymous")
	}

	srv := server.New(cfg, limiterStorage)
	srv.RegisterRoutes(server.Handlers{
		Auth:     middleware.NewAuthMiddleware(verifier),
		Probe:    handlers.NewProbeHandler(database),
		Preview:  handlers.NewPreviewHandler(database, registry),
		Keywords: api.NewKeywordHandler(keywordService, database, logger),
		Listing:  api.NewListingHandler(generator, database, database, kvCache, logger),
	})

	// Background jobs
	janitor := jobs.NewDraftJanitor(database, kvCache, cfg.JanitorInterval, cfg.DraftRetention, logger)
	go janitor.Start(ctx)

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
