package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tablebill/api/internal/cache"
	"github.com/tablebill/api/internal/config"
	"github.com/tablebill/api/internal/database"
	"github.com/tablebill/api/internal/events"
	"github.com/tablebill/api/internal/push"
	"github.com/tablebill/api/internal/router"
	"github.com/tablebill/api/internal/service"
	"github.com/tablebill/api/internal/ws"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("connected to database")

	hub := ws.NewHub(logger.With("component", "ws"))
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	opts := []service.RelayOption{
		service.WithBroadcaster(hub),
		service.WithTimeout(cfg.PostCommitTimeout),
	}

	// --- Optional adapters ---

	if cfg.RedisURL != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, service.WithCache(cache.NewInvalidator(rdb)))
		logger.Info("redis cache invalidation enabled")
	}

	if cfg.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, service.WithEventPublisher(publisher))
		logger.Info("nats event publishing enabled")
	}

	if cfg.RabbitMQURL != "" {
		dispatcher, err := push.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer dispatcher.Close()
		opts = append(opts, service.WithPushNotifier(dispatcher))
		logger.Info("push dispatch enabled", "exchange", push.Exchange)
	}

	relay := service.NewRelay(logger.With("component", "relay"), opts...)
	newStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	svc := service.NewOrderSessionService(pool, newStore, relay, logger.With("component", "orders"))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.New(cfg, svc, pool, hub, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	// drain post-commit work before the adapters close
	relay.Wait()
	stopHub()
	return nil
}
