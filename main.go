package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"familytree/internal/account"
	"familytree/internal/api"
	"familytree/internal/config"
	"familytree/internal/daemon"
	"familytree/internal/logger"
	"familytree/internal/member"
	"familytree/internal/repository"
	"familytree/internal/service"
	"familytree/internal/session"
	"familytree/internal/storage"
	"familytree/internal/telemetry"
	"familytree/internal/validator"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	log := logger.New(*cfg)
	logger.SetDefault(log)

	docs, err := storage.FromConfig(cfg.Storage)
	if err != nil {
		log.Error("Failed to initialize document storage", "type", cfg.Storage.Type, "error", err)
		return err
	}
	defer func() {
		if err := docs.Close(); err != nil {
			log.Error("Failed to close document storage", "error", err)
		}
	}()

	v := validator.New()
	repo := repository.NewDocumentRepository(docs, cfg.Storage.DocumentKey, log)
	members := member.NewManager(repo, v, tel, log)

	limiter, redisClient, err := service.NewLoginLimiter(cfg.Redis.URL, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow)
	if err != nil {
		log.Error("Failed to initialize login limiter", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, login limiting fails open until it recovers", "error", err)
		}
	}

	auth, err := account.NewAuthenticator(cfg.Auth, v, limiter, tel, log)
	if err != nil {
		log.Error("Failed to initialize authentication", "error", err)
		return err
	}

	sessions, err := session.New(*cfg)
	if err != nil {
		log.Error("Failed to initialize session store", "error", err)
		return err
	}

	app := api.NewApp(api.Dependencies{
		Config:   *cfg,
		Members:  members,
		Auth:     auth,
		Sessions: sessions,
		Logger:   log,
	})

	daemons := daemon.NewDaemonManager(log)
	daemons.Add("storage-probe", daemon.StorageProbeTask(members, time.Minute, log))
	if sweeper, ok := limiter.(daemon.Sweeper); ok {
		daemons.Add("limiter-sweep", daemon.LimiterSweepTask(sweeper, 5*time.Minute, log))
	}
	daemons.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "addr", cfg.Server.Addr(), "storage", cfg.Storage.Type)
		serverErr <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("Failed to shutdown HTTP server", "error", err)
	}

	stop()
	daemons.Wait()
	log.Info("Server stopped")

	return nil
}
