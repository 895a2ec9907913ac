package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/tipbox/backend/internal/enrichment"
	"github.com/anonto42/tipbox/backend/internal/identity"
	"github.com/anonto42/tipbox/backend/internal/realtime"
	"github.com/anonto42/tipbox/backend/internal/repositories"
	"github.com/anonto42/tipbox/backend/internal/router"
	"github.com/anonto42/tipbox/backend/internal/services"
	"github.com/anonto42/tipbox/backend/pkg/config"
	"github.com/anonto42/tipbox/backend/pkg/firebase"
	"github.com/anonto42/tipbox/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg, logger)
	if err != nil {
		return err
	}
	defer config.CloseDB(db, logger)

	if err := repositories.AutoMigrate(db); err != nil {
		return err
	}
	store := repositories.NewStore(db)

	// Realtime: dispatcher -> (redis relay ->) hub -> SSE clients
	hub := realtime.NewHub(cfg.RealtimeClientBuffer, logger)

	sinks := []realtime.Sink{hub}
	if cfg.RedisURL != "" {
		redisClient, err := realtime.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		relay := realtime.NewRedisRelay(redisClient, cfg.RealtimeChannel, logger)
		sinks = []realtime.Sink{relay}
		go func() {
			if err := relay.Listen(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("redis relay stopped", slog.String("error", err.Error()))
			}
		}()
		logger.Info("realtime events relayed through redis", slog.String("channel", cfg.RealtimeChannel))
	}

	dispatcher := realtime.NewDispatcher(cfg.RealtimeQueueSize, logger, sinks...)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(ctx)
	}()

	// Identity: local JWTs first, Firebase ID tokens when configured
	resolvers := identity.ChainResolver{identity.NewJWTResolver(cfg.JWTSecret, logger)}
	fbApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, logger)
	switch {
	case err == nil:
		resolvers = append(resolvers, identity.NewFirebaseResolver(fbApp.AuthClient, store.Users, logger))
	case errors.Is(err, firebase.ErrNoCredentials):
		logger.Info("firebase tokens disabled")
	default:
		return err
	}

	enricher := enrichment.New(enrichment.Config{
		BaseURL:      cfg.AIServerURL,
		PollInterval: cfg.AIPollInterval,
		Timeout:      cfg.AITimeout,
	}, logger)

	tipService := services.NewTipService(store, enricher, services.NewNotifier(logger), dispatcher, logger)
	searchService := services.NewSearchService(store)
	stream := realtime.NewStreamHandler(hub, resolvers, cfg.RealtimeHeartbeat, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, logger)
	router.SetupRoutes(e, router.Dependencies{
		DB:            db,
		Store:         store,
		Resolver:      resolvers,
		TipService:    tipService,
		SearchService: searchService,
		Stream:        stream,
		Logger:        logger,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// Open streams end once the hub closes their Done channels.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.String("error", err.Error()))
	}

	<-dispatcherDone
	return nil
}
