// cmd/engine/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	awsclients "github.com/Constantin2105/inspiratec-engine/internal/common/aws"
	"github.com/Constantin2105/inspiratec-engine/internal/common/config"
	"github.com/Constantin2105/inspiratec-engine/internal/common/database"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/observability"

	"github.com/Constantin2105/inspiratec-engine/internal/api"
	"github.com/Constantin2105/inspiratec-engine/internal/cache"
	"github.com/Constantin2105/inspiratec-engine/internal/notifier"
	"github.com/Constantin2105/inspiratec-engine/internal/repository/postgres"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/engine"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/propagator"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/sweeper"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lifecycle engine...",
		zap.String("env", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	store := postgres.New(pg.DB, log)

	// --- Notification channels ---
	channels := []notifier.Channel{notifier.NewInboxChannel(store)}
	if cfg.Notifications.EmailEnabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		channels = append(channels, notifier.NewSESChannel(sesClient, cfg.Notifications.FromEmail))
	}
	if cfg.Notifications.SMSEnabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		channels = append(channels, notifier.NewSNSChannel(snsClient))
	}

	dispatcher := notifier.NewAsync(store, channels, log,
		notifier.WithQueueSize(cfg.Notifications.QueueSize),
		notifier.WithWorkers(cfg.Notifications.Workers),
		notifier.WithRetries(cfg.Notifications.Retries),
		notifier.WithRetryDelay(time.Duration(cfg.Notifications.RetryDelayMs)*time.Millisecond),
		notifier.WithDeliveryTimeout(time.Duration(cfg.Notifications.DeliveryTimeout)*time.Second),
	)
	defer dispatcher.Close()

	// --- Engine wiring ---
	entityCache := cache.New(rdb.Client, store, log, time.Duration(cfg.Engine.CacheTTLSec)*time.Second)
	changeFeed := propagator.New(store, log,
		propagator.WithBufferSize(cfg.Engine.PropagatorBufferLen))
	defer changeFeed.Close()

	eng := engine.New(store, log,
		engine.WithNotifier(dispatcher),
		engine.WithPublisher(changeFeed),
		engine.WithInvalidator(entityCache),
		engine.WithConflictRetries(cfg.Engine.ConflictRetries),
	)

	// --- Background sweep ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sw := sweeper.New(store, eng, log, time.Duration(cfg.Engine.SweepIntervalSec)*time.Second)
	go sw.Run(sweepCtx)

	// --- HTTP server ---
	router := api.NewRouter(api.Deps{
		Engine: eng,
		Reader: entityCache,
		Store:  store,
		Log:    log,
		Obs:    obs,
		Health: map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutdown signal received")

	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Engine stopped")
}
