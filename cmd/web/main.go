package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tenemo/sealed-vote/internal/config"
	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/pollapi"
	"github.com/tenemo/sealed-vote/internal/request"
	"github.com/tenemo/sealed-vote/internal/server"
	"github.com/tenemo/sealed-vote/internal/session"
	"github.com/tenemo/sealed-vote/internal/storage"
	"github.com/tenemo/sealed-vote/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.LogLevel)
	log := logger.Get()

	if err := run(cfg); err != nil {
		log.Error("sealed.vote stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storageType, err := storage.ValidateStorageType(cfg.Persist.Storage)
	if err != nil {
		return err
	}
	backend, err := storage.NewFactory(storageType).CreateStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if backend != nil {
		defer func() {
			if err := backend.Close(); err != nil {
				log.Error("Failed to close storage", "storage", storageType, "error", err)
			}
		}()
	}

	api := pollapi.New(request.New(cfg.API.BaseURL, request.WithLogger(logger.Client())))
	sessions := session.NewManager(func(ctx context.Context, id string) (*store.Store, error) {
		return store.Configure(ctx, store.Options{
			BuildType: cfg.BuildType,
			API:       api,
			Storage:   backend,
			Key:       store.PersistKey + ":" + id,
			Logger:    logger.WithContext("component", "store", "session", id),
		})
	}, session.WithMaxIdle(cfg.Session.MaxIdle), session.WithSecureCookies(cfg.IsProduction()))
	go sessions.Run(ctx)

	srv := server.New(cfg, sessions)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	log.Info("sealed.vote started",
		"port", cfg.Server.Port,
		"api", cfg.API.BaseURL,
		"storage", storageType,
		"buildType", cfg.BuildType)

	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := srv.Stop(shutdownCtx); stopErr != nil {
		err = errors.Join(err, stopErr)
	}
	if closeErr := sessions.Close(shutdownCtx); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}
