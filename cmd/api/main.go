package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expoconnect_backend/internal/conversation"
	"expoconnect_backend/internal/conversation/classifier"
	"expoconnect_backend/internal/drip"
	"expoconnect_backend/internal/drip/seed"
	"expoconnect_backend/internal/employees"
	"expoconnect_backend/internal/events"
	"expoconnect_backend/internal/followups"
	apphttp "expoconnect_backend/internal/http"
	"expoconnect_backend/internal/http/router"
	"expoconnect_backend/internal/leads"
	"expoconnect_backend/internal/notify"
	"expoconnect_backend/internal/scheduler"
	"expoconnect_backend/internal/storage"
	"expoconnect_backend/internal/webhook"
	"expoconnect_backend/internal/whatsapp"
	"expoconnect_backend/migrations"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/db"
	"expoconnect_backend/platform/logger"
	"expoconnect_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Operator alerting subscribes to delivery failure events
	mailer := notify.NewMailer(cfg, log)
	mailer.RegisterHandlers(eventBus)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Media storage for inbound attachments (MinIO, optional)
	var mediaStore storage.MediaStore
	if cfg.IsMinIOEnabled() {
		minioStore, err := storage.NewMinIOStore(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure media bucket", 5, 2*time.Second, func() error {
			return minioStore.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure media bucket exists", "error", err)
			panic("failed to ensure media bucket exists: " + err.Error())
		}
		mediaStore = minioStore
		log.Info("storage service initialized", "bucket", cfg.GetMinioBucketLeadMedia())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; inline media uploads disabled")
	}

	// Outbound WhatsApp gateway client (nil rejects sends when unconfigured)
	sender := whatsapp.NewClient(cfg, log)
	if sender == nil {
		log.Warn("WHATSAPP_URL not configured; outbound messages will fail")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, log)
	employeesRepo := employees.NewRepo(pool)
	dripModule := drip.NewModule(pool, eventBus, val, log)

	if err := seed.Load(ctx, cfg.GetDripDefinitionsPath(), dripModule.Repository(), log); err != nil {
		log.Error("failed to seed drip definitions", "error", err)
		panic("failed to seed drip definitions: " + err.Error())
	}

	reminders, closeReminders := initReminderScheduler(cfg, log)
	if closeReminders != nil {
		defer closeReminders()
	}
	followUpsService := followups.NewService(followups.NewRepo(pool), reminders, log)

	// Layer-3 classifier is optional; without an API key the engine runs on
	// the deterministic layers alone.
	var aiLayer classifier.Layer
	if layer, err := classifier.NewAILayer(ctx, cfg, log); err != nil {
		log.Error("failed to initialize AI classification layer", "error", err)
		panic("failed to initialize AI classification layer: " + err.Error())
	} else if layer != nil {
		aiLayer = layer
		log.Info("AI classification layer enabled", "model", cfg.GetGeminiModel())
	} else {
		log.Warn("GEMINI_API_KEY not configured; classification runs without the AI layer")
	}

	conversationService := conversation.NewService(
		leadsModule.Repository(),
		employeesRepo,
		classifier.Default(log, aiLayer),
		conversation.NewMachine(cfg.GetDefaultDripName()),
		dripModule.Service(),
		followUpsService,
		sender,
		eventBus,
		cfg.GetAdminPhone(),
		log,
	)

	webhookModule := webhook.NewModule(conversationService, mediaStore, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			dripModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (followups.ReminderEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// withRetry runs fn up to attempts times with a quadratically growing delay.
func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			if attempt == attempts {
				break
			}

			delay := baseDelay * time.Duration(attempt*attempt)
			log.Warn(name+" failed, retrying", "attempt", attempt, "delay", delay.String(), "error", err)

			select {
			case <-ctx.Done():
				return errors.New(name + " cancelled: " + ctx.Err().Error())
			case <-time.After(delay):
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
