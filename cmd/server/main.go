// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lis531/bargebo-guesser/internal/audio"
	"github.com/lis531/bargebo-guesser/internal/catalog"
	"github.com/lis531/bargebo-guesser/internal/config"
	"github.com/lis531/bargebo-guesser/internal/game"
	"github.com/lis531/bargebo-guesser/internal/handlers"
	"github.com/lis531/bargebo-guesser/internal/session"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Redis backs the audio cache; the server runs without it, just slower.
	var rdb *redis.Client
	{
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warnf("redis unavailable at %s, audio caching disabled: %v", cfg.RedisAddr, err)
		} else {
			rdb = client
		}
		cancel()
	}

	cat := catalog.New()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("unable to create pgx pool: %v", err)
		}
		defer pool.Close()

		provider := catalog.NewPostgresProvider(pool)
		go catalog.RunRefresh(ctx, cat, provider, cfg.CatalogRefreshInterval, logger)
	} else {
		logger.Warn("DATABASE_URL not set, starting with an empty catalog")
	}

	resolver := audio.NewStoreResolver(cfg.AudioBaseURL, rdb, cfg.AudioCacheTTL, cfg.AudioResolveTimeout, logger)
	tokens := session.New(cfg.SessionSecret, 24*time.Hour)
	hub := handlers.NewHub(logger)
	reg := game.NewRegistry(game.Config{
		Catalog:     cat,
		Resolver:    resolver,
		Broadcaster: hub,
		Logger:      logger,
	})

	mux := handlers.NewMux(logger, hub, reg, tokens, cat)
	server := &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}
