package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/lit-review-engine/internal/core/errors"
	"github.com/lueurxax/lit-review-engine/internal/rank"
)

// KeywordSearch ranks papers with Postgres full-text search. It satisfies
// rank.KeywordBackend; availability tracks the database connection so a
// downed Postgres degrades the ranker instead of failing it.
type KeywordSearch struct {
	db     *DB
	logger zerolog.Logger
}

func NewKeywordSearch(database *DB, logger zerolog.Logger) *KeywordSearch {
	return &KeywordSearch{db: database, logger: logger.With().Str("component", "keyword_search").Logger()}
}

func (s *KeywordSearch) Available(ctx context.Context) bool {
	if err := s.db.Pool.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("keyword backend unavailable")

		return false
	}

	return true
}

func (s *KeywordSearch) Search(ctx context.Context, query string, startYear, endYear int, source string, size int) ([]rank.Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" || size <= 0 {
		return nil, nil
	}

	args := []any{query}
	clauses := []string{"p.search_vector @@ q"}

	if startYear != 0 {
		args = append(args, startYear)
		clauses = append(clauses, fmt.Sprintf("p.year >= $%d", len(args)))
	}

	if endYear != 0 {
		args = append(args, endYear)
		clauses = append(clauses, fmt.Sprintf("p.year <= $%d", len(args)))
	}

	if source != "" {
		args = append(args, source)
		clauses = append(clauses, fmt.Sprintf("p.source = $%d", len(args)))
	}

	args = append(args, size)
	sel := fmt.Sprintf(`
		SELECT p.paper_id, ts_rank(p.search_vector, q) AS score
		FROM papers p, plainto_tsquery('simple', $1) q
		WHERE %s
		ORDER BY score DESC, p.paper_id ASC
		LIMIT $%d
	`, strings.Join(clauses, " AND "), len(args))

	rows, err := s.db.Pool.Query(ctx, sel, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []rank.Hit

	for rows.Next() {
		var (
			id    string
			score float32
		)

		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}

		hits = append(hits, rank.Hit{PaperID: id, Score: float64(score)})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hits, nil
}

// QueryEmbedder produces an embedding for ad-hoc query text.
type QueryEmbedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorSearch ranks papers by cosine similarity over stored embeddings.
// It satisfies rank.VectorBackend; Ready is false until at least one paper
// embedding exists, which keeps an empty index out of the fusion.
type VectorSearch struct {
	db       *DB
	embedder QueryEmbedder
	logger   zerolog.Logger
}

func NewVectorSearch(database *DB, embedder QueryEmbedder, logger zerolog.Logger) *VectorSearch {
	return &VectorSearch{
		db:       database,
		embedder: embedder,
		logger:   logger.With().Str("component", "vector_search").Logger(),
	}
}

func (s *VectorSearch) Ready(ctx context.Context) bool {
	if s.embedder == nil {
		return false
	}

	var ready bool
	if err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM paper_features WHERE embedding IS NOT NULL)`,
	).Scan(&ready); err != nil {
		s.logger.Warn().Err(err).Msg("vector backend readiness probe failed")

		return false
	}

	return ready
}

func (s *VectorSearch) Search(ctx context.Context, queryText string, topK int) ([]rank.Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	if s.embedder == nil {
		return nil, fmt.Errorf("vector search: %w", apperrors.ErrBackendUnavailable)
	}

	vec, err := s.embedder.GetEmbedding(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT paper_id, 1 - (embedding <=> $1) AS score
		FROM paper_features
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1, paper_id ASC
		LIMIT $2
	`, pgvector.NewVector(vec), topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []rank.Hit

	for rows.Next() {
		var hit rank.Hit
		if err := rows.Scan(&hit.PaperID, &hit.Score); err != nil {
			return nil, err
		}

		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return hits, nil
}
