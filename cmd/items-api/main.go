// Command items-api serves the demo item collection over HTTP.
//
// The dataset lives in memory, or in Redis when REDIS_ADDR is set. It is
// seeded with SEED_ITEMS generated items at startup.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/item-list-client/internal/config"
	"github.com/Sternrassler/item-list-client/pkg/catalog"
	"github.com/Sternrassler/item-list-client/pkg/logging"
)

func main() {
	os.Exit(serve(context.Background(), os.Stderr))
}

// serve loads the configuration and runs the server until ctx is cancelled
// or a signal arrives. It returns the process exit code.
func serve(ctx context.Context, stderr io.Writer) int {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(stderr, "items-api: %v\n", err)
		return 2
	}

	logCfg := cfg.Log.Logging()
	logCfg.Output = stderr
	logger := logging.Setup(logCfg)
	if cfg.Log.File != "" {
		var closer io.Closer
		logger, closer, err = logging.SetupFile(logCfg, cfg.Log.File)
		if err != nil {
			fmt.Fprintf(stderr, "items-api: %v\n", err)
			return 2
		}
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("items-api failed")
		return 1
	}
	return 0
}

// run serves until ctx is cancelled, then shuts the server down gracefully.
func run(ctx context.Context, cfg *config.Server, logger zerolog.Logger) error {
	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := newServer(cfg, store, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Int("items", cfg.SeedItems).
			Int("rate_limit_per_min", cfg.RateLimitPerMin).
			Msg("Items API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("Items API stopped")
	return nil
}

// newStore returns the seeded dataset store: Redis when an address is
// configured, memory otherwise.
func newStore(ctx context.Context, cfg *config.Server, logger zerolog.Logger) (catalog.Seeder, func(), error) {
	items := catalog.SeedItems(cfg.SeedItems)

	if cfg.RedisAddr == "" {
		logger.Info().Msg("Using in-memory item store")
		return catalog.NewMemoryStore(items), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	store := catalog.NewRedisStore(redisClient, cfg.RedisKey)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	if err := store.Seed(ctx, items); err != nil {
		redisClient.Close()
		return nil, nil, err
	}

	logger.Info().
		Str("addr", cfg.RedisAddr).
		Str("key", cfg.RedisKey).
		Msg("Using Redis item store")
	return store, func() { redisClient.Close() }, nil
}

func newServer(cfg *config.Server, store catalog.Store, logger zerolog.Logger) *http.Server {
	handler := catalog.NewRouter(catalog.RouterConfig{
		Service:            catalog.NewService(store),
		Store:              store,
		Logger:             logger.With().Str("component", "items-api").Logger(),
		RateLimitPerMinute: cfg.RateLimitPerMin,
	})

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
}
