// The scheduler binary runs the background delivery machinery: the drip
// dispatch loop and the asynq worker for follow-up reminders. It shares
// the API binary's configuration and database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"expoconnect_backend/internal/drip/dispatcher"
	driprepo "expoconnect_backend/internal/drip/repository"
	"expoconnect_backend/internal/events"
	leadsrepo "expoconnect_backend/internal/leads/repository"
	"expoconnect_backend/internal/notify"
	"expoconnect_backend/internal/scheduler"
	"expoconnect_backend/internal/whatsapp"
	"expoconnect_backend/platform/config"
	"expoconnect_backend/platform/db"
	"expoconnect_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	// Permanent delivery failures raised by the dispatcher are mailed to
	// the operator from this process.
	mailer := notify.NewMailer(cfg, log)
	mailer.RegisterHandlers(eventBus)

	sender := whatsapp.NewClient(cfg, log)
	if sender == nil {
		log.Warn("WHATSAPP_URL not configured; deliveries will fail and retry")
	}

	dripDispatcher := dispatcher.New(cfg, driprepo.New(pool), leadsrepo.New(pool), sender, eventBus, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		dripDispatcher.Run(groupCtx)
		return nil
	})

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminder worker disabled")
	} else {
		worker, err := scheduler.NewWorker(cfg, cfg, pool, sender, log)
		if err != nil {
			log.Error("failed to initialize reminder worker", "error", err)
			panic("failed to initialize reminder worker: " + err.Error())
		}
		group.Go(func() error {
			worker.Run(groupCtx)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("scheduler stopped with error", "error", err)
		panic("scheduler stopped with error: " + err.Error())
	}
	log.Info("scheduler stopped")
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
