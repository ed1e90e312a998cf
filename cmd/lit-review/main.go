package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/lit-review-engine/internal/app"
	"github.com/lueurxax/lit-review-engine/internal/config"
	db "github.com/lueurxax/lit-review-engine/internal/storage"
)

func main() {
	mode := flag.String("mode", "", "Service mode (search, analyze, discover, serve)")
	queryArg := flag.String("query", "", "Free-text query (for search mode)")
	prefArg := flag.String("pref", "", "Comma-separated preference terms (for search mode)")
	limit := flag.Int("limit", 20, "Page size (for search mode)")
	offset := flag.Int("offset", 0, "Page offset (for search mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	if *mode == "serve" {
		// Health/metrics server only accompanies the long-lived mode.
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, *queryArg, *prefArg, *limit, *offset); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode, query, pref string, limit, offset int) error {
	switch mode {
	case "search":
		return application.RunSearch(ctx, query, splitTerms(pref), limit, offset)
	case "analyze":
		return application.RunAnalyze(ctx)
	case "discover":
		return application.RunDiscover(ctx)
	case "serve":
		return application.RunServe(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[search|analyze|discover|serve]", os.Args[0])

		return nil
	}
}

func splitTerms(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			terms = append(terms, p)
		}
	}

	return terms
}
