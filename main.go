package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/glucolog/internal/config"
	"github.com/vladimiradmaev/glucolog/internal/database"
	"github.com/vladimiradmaev/glucolog/internal/dexcom"
	"github.com/vladimiradmaev/glucolog/internal/domain"
	"github.com/vladimiradmaev/glucolog/internal/glucose"
	"github.com/vladimiradmaev/glucolog/internal/logger"
	"github.com/vladimiradmaev/glucolog/internal/repository"
	"github.com/vladimiradmaev/glucolog/internal/services"
)

// application is the wired service set. The transport that exposes these
// operations lives outside this repository; the process itself runs the
// audit publisher loop.
type application struct {
	events    *services.EventService
	outcomes  *services.OutcomeService
	analytics *services.AnalyticsService
	estimator *services.EstimationService
	publisher *services.AuditPublisher
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("Starting GlucoLog")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApplication(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}
	logger.Info("Services initialized")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.publisher.Run(ctx)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logger.Info("Shutting down", "signal", sig.String())
	cancel()
	wg.Wait()
}

func buildApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	db, err := database.NewPostgresDB(cfg.DB)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	clock := domain.SystemClock()
	glucoseSource := glucose.NewCache(dexcom.NewClient(cfg.Dexcom), redisClient, cfg.Redis.CacheTTL)
	eventRepo := repository.NewEventRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	target, err := domain.NewTirRange(cfg.Analytics.TargetLower, cfg.Analytics.TargetUpper)
	if err != nil {
		return nil, err
	}

	app := &application{
		events:    services.NewEventService(eventRepo, clock),
		outcomes:  services.NewOutcomeService(eventRepo, glucoseSource),
		analytics: services.NewAnalyticsService(glucoseSource, eventRepo, target, clock),
		publisher: services.NewAuditPublisher(auditRepo, redisClient, cfg.Audit, clock),
	}
	if cfg.AI.GeminiAPIKey != "" || cfg.AI.OpenAIAPIKey != "" {
		estimator, err := services.NewEstimationService(ctx, cfg.AI)
		if err != nil {
			return nil, err
		}
		app.estimator = estimator
	}
	return app, nil
}
