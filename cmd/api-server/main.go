package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libraryhub/database"
	"libraryhub/internal/config"
	httpapi "libraryhub/internal/microservices/http-api"
	"libraryhub/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		// logger is not configured yet
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("could not load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogFormat == "text",
	})

	// Connect to the database
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("database close failed")
		}
	}()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Redis is optional; without it Idempotency-Key headers are ignored
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		log.Info().Msg("idempotency store enabled")
	}

	app := httpapi.New(httpapi.Deps{Config: cfg, DB: db, Redis: rdb, Log: log})

	if cfg.BootstrapAdminEmail != "" {
		created, err := app.Members.EnsureAdmin(context.Background(), cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("bootstrap administrator failed")
		}
		if !created {
			log.Debug().Str("email", cfg.BootstrapAdminEmail).Msg("bootstrap administrator already exists")
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		// the request timeout middleware bounds handlers; this bounds slow clients
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errChan:
		log.Fatal().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped gracefully")
}
