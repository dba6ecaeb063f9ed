package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/omnidesk/internal/api"
	"github.com/eldtechnologies/omnidesk/internal/config"
	"github.com/eldtechnologies/omnidesk/internal/crypto"
	"github.com/eldtechnologies/omnidesk/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	ds, dsKind, err := store.OpenDataStore(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("datastore connection failed")
	}
	defer ds.Close()
	logger.Info().Str("datastore", dsKind).Msg("datastore ready")

	tokens, tokKind, err := store.OpenTokenStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	if c, ok := tokens.(io.Closer); ok {
		defer c.Close()
	}
	logger.Info().Str("tokens", tokKind).Msg("token store ready")

	if cfg.Seed {
		hash, err := crypto.HashPassword(cfg.AdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("hash admin password")
		}
		if err := store.Seed(ctx, ds, hash); err != nil {
			logger.Fatal().Err(err).Msg("seed failed")
		}
		logger.Info().Str("admin", store.SeedAdminEmail).Msg("sample data seeded")
	}

	router := api.NewRouter(logger, ds, tokens, api.Options{
		TokenTTL:           cfg.TokenTTL,
		LoginPerMinute:     cfg.LoginPerMinute,
		RateLimitWhitelist: cfg.RateLimitWhitelist,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("omnidesk backend listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-sigCtx.Done():
	}

	logger.Info().Msg("draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return
	}
	logger.Info().Msg("server stopped")
}
