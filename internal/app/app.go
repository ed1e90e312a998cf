// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// the operational modes:
//
//   - Search mode: parse a query, rank the collection, print the result
//   - Analyze mode: enrich, cluster and aggregate the whole collection
//   - Discover mode: poll configured feeds once for new paper metadata
//   - Serve mode: health/metrics server plus the periodic discovery worker
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/lit-review-engine/internal/analysis"
	"github.com/lueurxax/lit-review-engine/internal/config"
	"github.com/lueurxax/lit-review-engine/internal/core/domain"
	apperrors "github.com/lueurxax/lit-review-engine/internal/core/errors"
	"github.com/lueurxax/lit-review-engine/internal/core/embeddings"
	"github.com/lueurxax/lit-review-engine/internal/discovery"
	"github.com/lueurxax/lit-review-engine/internal/feature"
	"github.com/lueurxax/lit-review-engine/internal/platform/observability"
	"github.com/lueurxax/lit-review-engine/internal/platform/worker"
	"github.com/lueurxax/lit-review-engine/internal/query"
	"github.com/lueurxax/lit-review-engine/internal/rank"
	db "github.com/lueurxax/lit-review-engine/internal/storage"
)

// App holds the application dependencies and provides methods to run the
// operational modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunSearch parses the raw query, ranks the collection against it and
// writes the ranked result as JSON to stdout.
func (a *App) RunSearch(ctx context.Context, rawQuery string, prefTerms []string, limit, offset int) error {
	if strings.TrimSpace(rawQuery) == "" {
		return fmt.Errorf("%w: empty query", apperrors.ErrInvalidInput)
	}

	parsed := query.Parse(rawQuery)

	a.logger.Info().
		Str("query", rawQuery).
		Strs("topic_terms", parsed.TopicTerms).
		Int("start_year", parsed.StartYear).
		Int("end_year", parsed.EndYear).
		Str("language", parsed.Language).
		Msg("running search")

	result, err := a.newRanker().Rank(ctx, rank.Request{
		Query:      parsed.RawQuery,
		TopicTerms: parsed.TopicTerms,
		StartYear:  parsed.StartYear,
		EndYear:    parsed.EndYear,
		PrefTerms:  prefTerms,
		Limit:      limit,
		Offset:     offset,
		Weights:    a.weights(),
	})
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	return printJSON(result)
}

// AnalyticsReport is the output of one analyze run over the collection.
type AnalyticsReport struct {
	Clustering    domain.ClusterRun        `json:"clustering"`
	Cooccurrence  domain.CooccurrenceGraph `json:"cooccurrence"`
	KeywordTrends domain.YearSeries        `json:"keywordTrends"`
	Attitudes     domain.YearSeries        `json:"attitudeEvolution"`
	Stats         domain.DashboardStats    `json:"stats"`
}

// RunAnalyze enriches the collection, clusters it into topics, persists the
// derived features and writes the full analytics report as JSON to stdout.
func (a *App) RunAnalyze(ctx context.Context) error {
	papers, err := a.database.ListPapers(ctx)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	a.logger.Info().Int("papers", len(papers)).Msg("running collection analytics")

	features := feature.NewService(a.newEmbeddingRegistry(), a.cfg.FeatureInitTimeout, a.logger)
	enriched := features.Enrich(ctx, papers)

	run, err := analysis.NewClusterer(a.logger).Cluster(enriched, a.cfg.ClusterCount)
	if err != nil {
		return fmt.Errorf("cluster: %w", err)
	}

	if err := a.persistFeatures(ctx, enriched, run); err != nil {
		return err
	}

	report := AnalyticsReport{
		Clustering:    run,
		Cooccurrence:  analysis.BuildCooccurrenceGraph(enriched, a.cfg.CooccurrenceMinWeight),
		KeywordTrends: analysis.KeywordTrends(enriched),
		Attitudes:     analysis.AttitudeEvolution(enriched),
		Stats:         analysis.DashboardStats(enriched),
	}

	return printJSON(report)
}

// persistFeatures writes enriched features back to storage, stamping each
// clustered paper with its topic ID from the run.
func (a *App) persistFeatures(ctx context.Context, papers []domain.Paper, run domain.ClusterRun) error {
	topicByPaper := make(map[string]string)

	for _, cluster := range run.Clusters {
		topicID := fmt.Sprintf("topic_%d", cluster.ID)
		for _, id := range cluster.PaperIDs {
			topicByPaper[id] = topicID
		}
	}

	for _, p := range papers {
		feats := p.Features
		if topicID, ok := topicByPaper[p.ID]; ok {
			feats.TopicID = topicID
		}

		if err := a.database.UpsertFeatures(ctx, p.ID, feats, p.Embedding); err != nil {
			return fmt.Errorf("persist features: %w", err)
		}
	}

	return nil
}

// RunDiscover polls every configured feed once.
func (a *App) RunDiscover(ctx context.Context) error {
	if len(a.cfg.FeedURLs) == 0 {
		a.logger.Warn().Msg("no discovery feeds configured")

		return nil
	}

	a.newPoller().Poll(ctx)

	return nil
}

// RunServe runs the long-lived mode: the health server is expected to be
// started separately; this loop drives periodic feed discovery.
func (a *App) RunServe(ctx context.Context) error {
	a.logger.Info().Msg("Starting serve mode")

	if len(a.cfg.FeedURLs) == 0 {
		a.logger.Warn().Msg("no discovery feeds configured, idling until shutdown")
		<-ctx.Done()

		return ctx.Err()
	}

	poller := a.newPoller()

	return worker.Loop(ctx, worker.Config{
		Name:       "discovery",
		Interval:   a.cfg.DiscoveryInterval,
		RunOnStart: true,
		OnTick: func(ctx context.Context) {
			defer worker.RecoverPanic(a.logger, "discovery poll")
			poller.Poll(ctx)
		},
		Logger: a.logger,
	})
}

func (a *App) newRanker() *rank.Ranker {
	registry := a.newEmbeddingRegistry()
	journals := rank.NewJournalWeights(a.cfg.TopVenues)

	return rank.New(
		db.NewKeywordSearch(a.database, *a.logger),
		db.NewVectorSearch(a.database, registry, *a.logger),
		a.database,
		journals,
		a.cfg.BackendTimeout,
		a.logger,
	)
}

func (a *App) newPoller() *discovery.Poller {
	return discovery.NewPoller(a.database, a.cfg.FeedURLs, a.cfg.DiscoveryFetchLimit, *a.logger)
}

func (a *App) newEmbeddingRegistry() *embeddings.Registry {
	registry := embeddings.NewRegistry(a.cfg.EmbeddingDimensions, a.logger)

	if a.cfg.EmbeddingAPIKey != "" && a.cfg.EmbeddingAPIKey != "mock" {
		registry.Register(embeddings.NewOpenAIProvider(embeddings.OpenAIConfig{
			APIKey:     a.cfg.EmbeddingAPIKey,
			Model:      a.cfg.EmbeddingModel,
			Dimensions: a.cfg.EmbeddingDimensions,
			RateLimit:  a.cfg.EmbeddingRateLimit,
		}), embeddings.DefaultCircuitBreakerConfig())
	} else if a.cfg.EmbeddingAPIKey == "mock" {
		registry.Register(embeddings.NewMockProviderWithDimensions(a.cfg.EmbeddingDimensions), embeddings.DefaultCircuitBreakerConfig())
	}

	return registry
}

func (a *App) weights() rank.Weights {
	return rank.Weights{
		Keyword:    a.cfg.KeywordWeight,
		Vector:     a.cfg.VectorWeight,
		Journal:    a.cfg.JournalWeight,
		UserPref:   a.cfg.UserPrefWeight,
		TitleBonus: a.cfg.TitleBonus,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}
