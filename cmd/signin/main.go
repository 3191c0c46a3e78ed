package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"FloorSignin/config"
	"FloorSignin/internal/cache"
	"FloorSignin/internal/model"
	"FloorSignin/internal/schedule"
	"FloorSignin/internal/service"
	"FloorSignin/pkg/floor"
	"FloorSignin/pkg/logger"
	"FloorSignin/pkg/metrics"
	"FloorSignin/pkg/notify"
	"FloorSignin/pkg/otel"
	"FloorSignin/pkg/snowflake"
	"FloorSignin/storage"
	"FloorSignin/storage/redis"
)

func main() {
	logger.Init()

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	err := run(ctx)
	cancel()
	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := &config.Cfg

	shutdown, err := otel.Init(ctx, otel.Config{
		Enabled:        cfg.OtelEnabled,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OtelEndpoint,
		SampleRatio:    cfg.OtelSampleRatio,
	})
	if err != nil {
		// 可观测性不影响签到本身
		logger.Logger.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		shutdown = nil
	}
	defer func() {
		if shutdown == nil {
			return
		}
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Logger.Warn("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	if err := metrics.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize metrics", zap.Error(err))
	}

	if err := storage.Init(); err != nil {
		logger.Logger.Error("Failed to initialize storage", zap.Error(err))
		return err
	}
	defer storage.Close()

	if err := snowflake.Init(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Error("Failed to initialize snowflake", zap.Error(err))
		return err
	}

	logger.Logger.Info("Sign-in runner starting",
		zap.String("environment", cfg.Environment),
		zap.String("store_backend", cfg.StoreBackend),
	)

	accounts, err := model.ParseAccounts(cfg.Accounts)
	if err != nil {
		logger.Logger.Error("Failed to parse HULUXIA_ACCOUNTS", zap.Error(err))
		return err
	}

	catalog := model.DefaultCatalog
	if cfg.CatalogFile != "" {
		catalog, err = model.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			logger.Logger.Error("Failed to load catalog",
				zap.String("path", cfg.CatalogFile),
				zap.Error(err),
			)
			return err
		}
		logger.Logger.Info("Catalog loaded",
			zap.String("path", cfg.CatalogFile),
			zap.Int("forums", len(catalog)),
		)
	}

	var (
		devices  cache.DeviceStore
		sessions cache.SessionStore
		lock     schedule.Locker
	)
	if cfg.UseRedis() {
		client := redis.Client()
		devices = cache.NewRedisDeviceStore(client)
		sessions = cache.NewRedisSessionStore(client, cache.SessionBreaker)
		lock = cache.NewRunLock(client, "signin", uuid.NewString())
	} else {
		devices = cache.NewFileDeviceStore(cfg.DeviceStorePath)
		sessions = cache.NewFileSessionStore(cfg.SessionStorePath)
	}

	notifier, err := notify.New(cfg)
	if err != nil {
		logger.Logger.Warn("Notifier unavailable, reports will only be logged", zap.Error(err))
		notifier = notify.NoOp{}
	}

	checkIn := service.NewCheckInService(service.CheckInOptions{
		Devices:  devices,
		Sessions: sessions,
		Clients: floor.NewFactory(floor.Options{
			BaseURL: cfg.FloorBaseURL,
			Timeout: cfg.HTTPTimeout(),
		}),
		Catalog:  catalog,
		Pacer:    service.NewRandomPacer(seconds(cfg.ForumDelayMin), seconds(cfg.ForumDelayMax)),
		Validity: cfg.SessionValidity(),
	})

	runner := schedule.NewRunner(schedule.RunnerOptions{
		Accounts: checkIn,
		Notifier: notifier,
		Pacer:    service.NewRandomPacer(seconds(cfg.AccountDelayMin), seconds(cfg.AccountDelayMax)),
		Lock:     lock,
	})

	result, err := runner.Run(ctx, accounts)
	if err != nil {
		logger.Logger.Error("Sign-in run failed",
			zap.String("run_id", result.RunID),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Sign-in runner finished",
		zap.String("run_id", result.RunID),
		zap.Int("accounts", len(result.Reports)),
	)
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
