package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oboricienne/ordering/internal/cart"
	"github.com/oboricienne/ordering/internal/catalog"
	"github.com/oboricienne/ordering/internal/checkout"
	"github.com/oboricienne/ordering/internal/config"
	"github.com/oboricienne/ordering/internal/events"
	httpapi "github.com/oboricienne/ordering/internal/http"
	"github.com/oboricienne/ordering/internal/storage"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "cart-service").Logger()

	ctx := context.Background()

	snapshots, cleanup, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up snapshot storage")
	}
	defer cleanup()
	log.Info().Str("backend", cfg.Storage).Msg("snapshot storage ready")

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers...)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Msg("order events enabled")
	}
	defer publisher.Close()

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.RequestTimeout)
	carts := cart.NewManager(snapshots, log.Logger)
	checkoutSvc := checkout.NewService(publisher, log.Logger)

	cartHandler := httpapi.NewCartHandler(carts, catalogClient, cfg.RequestTimeout)
	checkoutHandler := httpapi.NewCheckoutHandler(carts, checkoutSvc, cfg.RequestTimeout)
	router := httpapi.NewRouter(cartHandler, checkoutHandler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("cart service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down cart service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("cart service stopped")
}

func newSnapshotStore(ctx context.Context, cfg config.Config) (storage.SnapshotStore, func(), error) {
	switch cfg.Storage {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return storage.NewRedisStore(client), func() { client.Close() }, nil
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	default:
		store, err := storage.NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
