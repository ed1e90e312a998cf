package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
	"github.com/lueurxax/lit-review-engine/internal/rank"
)

const paperColumns = `p.paper_id, p.title, p.authors, p.year, p.journal, p.abstract, p.keywords, p.source,
       f.topic_id, f.attitude, f.method_label, f.embedding`

// FetchByIDs returns paper metadata (with features and embedding when
// present) for the given IDs, keyed by paper ID. Unknown IDs are simply
// absent from the result.
func (db *DB) FetchByIDs(ctx context.Context, ids []string) (map[string]domain.Paper, error) {
	if len(ids) == 0 {
		return map[string]domain.Paper{}, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+paperColumns+`
		FROM papers p
		LEFT JOIN paper_features f ON p.paper_id = f.paper_id
		WHERE p.paper_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch papers by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Paper, len(ids))

	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}

		out[paper.ID] = paper
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// FetchFeatures returns the derived features for the given paper IDs.
// Papers without a feature row are absent from the result.
func (db *DB) FetchFeatures(ctx context.Context, ids []string) (map[string]domain.Features, error) {
	if len(ids) == 0 {
		return map[string]domain.Features{}, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT paper_id, topic_id, attitude, method_label
		FROM paper_features
		WHERE paper_id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch features: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Features, len(ids))

	for rows.Next() {
		var (
			id          string
			topicID     pgtype.Text
			attitude    pgtype.Text
			methodLabel pgtype.Text
		)

		if err := rows.Scan(&id, &topicID, &attitude, &methodLabel); err != nil {
			return nil, err
		}

		out[id] = featuresWithDefaults(topicID.String, attitude.String, methodLabel.String)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ScanFilter is the no-backend fallback: a LIKE-style substring match over
// title, abstract, keywords and journal plus year-range and source filters,
// ordered by year descending then paper ID ascending. It returns the page
// and the total matched count before pagination.
func (db *DB) ScanFilter(ctx context.Context, q string, startYear, endYear int, source string, limit, offset int) ([]domain.Paper, int, error) {
	where, args := scanFilterClauses(q, startYear, endYear, source)

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM papers p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count filtered papers: %w", err)
	}

	args = append(args, limit, offset)
	sel := fmt.Sprintf(`
		SELECT `+paperColumns+`
		FROM papers p
		LEFT JOIN paper_features f ON p.paper_id = f.paper_id
		WHERE %s
		ORDER BY p.year DESC NULLS LAST, p.paper_id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := db.Pool.Query(ctx, sel, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("scan filtered papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper

	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, 0, err
		}

		papers = append(papers, paper)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return papers, total, nil
}

// ScanDistributions aggregates topic and year histograms over the full set
// matched by ScanFilter's clauses, independent of pagination. Rows without a
// topic or a year are excluded from the respective histogram.
func (db *DB) ScanDistributions(ctx context.Context, q string, startYear, endYear int, source string) ([]domain.DistributionEntry, []domain.YearCount, error) {
	where, args := scanFilterClauses(q, startYear, endYear, source)

	topicSel := fmt.Sprintf(`
		SELECT f.topic_id, COUNT(*) AS freq
		FROM papers p
		JOIN paper_features f ON p.paper_id = f.paper_id
		WHERE %s AND f.topic_id <> ''
		GROUP BY f.topic_id
		ORDER BY freq DESC, f.topic_id ASC
		LIMIT %d
	`, where, rank.TopicDistributionCap)

	rows, err := db.Pool.Query(ctx, topicSel, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("scan topic distribution: %w", err)
	}
	defer rows.Close()

	var topics []domain.DistributionEntry

	for rows.Next() {
		var entry domain.DistributionEntry
		if err := rows.Scan(&entry.Key, &entry.Count); err != nil {
			return nil, nil, err
		}

		topics = append(topics, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	yearSel := fmt.Sprintf(`
		SELECT p.year, COUNT(*)
		FROM papers p
		WHERE %s AND p.year IS NOT NULL
		GROUP BY p.year
		ORDER BY p.year ASC
	`, where)

	yearRows, err := db.Pool.Query(ctx, yearSel, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("scan year distribution: %w", err)
	}
	defer yearRows.Close()

	var years []domain.YearCount

	for yearRows.Next() {
		var entry domain.YearCount
		if err := yearRows.Scan(&entry.Year, &entry.Count); err != nil {
			return nil, nil, err
		}

		years = append(years, entry)
	}

	if err := yearRows.Err(); err != nil {
		return nil, nil, err
	}

	return topics, years, nil
}

func scanFilterClauses(q string, startYear, endYear int, source string) (string, []any) {
	clauses := []string{"TRUE"}

	var args []any

	if q = strings.TrimSpace(q); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.abstract ILIKE $%d OR array_to_string(p.keywords, ',') ILIKE $%d OR p.journal ILIKE $%d)",
			n, n, n, n))
	}

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

	return strings.Join(clauses, " AND "), args
}

// ListPapers returns the whole collection ordered by year descending then
// paper ID ascending. It backs the collection-wide analytics passes.
func (db *DB) ListPapers(ctx context.Context) ([]domain.Paper, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+paperColumns+`
		FROM papers p
		LEFT JOIN paper_features f ON p.paper_id = f.paper_id
		ORDER BY p.year DESC NULLS LAST, p.paper_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.Paper

	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}

		papers = append(papers, paper)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return papers, nil
}

// UpsertPaper inserts or updates one paper record.
func (db *DB) UpsertPaper(ctx context.Context, p domain.Paper) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO papers (paper_id, title, authors, year, journal, abstract, keywords, source)
		VALUES ($1, $2, $3, NULLIF($4, 0), $5, $6, $7, $8)
		ON CONFLICT (paper_id) DO UPDATE SET
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			year = EXCLUDED.year,
			journal = EXCLUDED.journal,
			abstract = EXCLUDED.abstract,
			keywords = EXCLUDED.keywords,
			source = EXCLUDED.source
	`, p.ID, p.Title, p.Authors, p.Year, p.Journal, p.Abstract, p.Keywords, p.Source)
	if err != nil {
		return fmt.Errorf("upsert paper %s: %w", p.ID, err)
	}

	return nil
}

// UpsertFeatures writes the derived features (and embedding, when non-nil)
// for one paper.
func (db *DB) UpsertFeatures(ctx context.Context, paperID string, f domain.Features, embedding []float32) error {
	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO paper_features (paper_id, topic_id, attitude, method_label, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (paper_id) DO UPDATE SET
			topic_id = EXCLUDED.topic_id,
			attitude = EXCLUDED.attitude,
			method_label = EXCLUDED.method_label,
			embedding = COALESCE(EXCLUDED.embedding, paper_features.embedding)
	`, paperID, f.TopicID, f.Attitude, f.MethodLabel, vec)
	if err != nil {
		return fmt.Errorf("upsert features %s: %w", paperID, err)
	}

	return nil
}

func scanPaper(rows pgx.Rows) (domain.Paper, error) {
	var (
		paper       domain.Paper
		year        pgtype.Int4
		journal     pgtype.Text
		abstract    pgtype.Text
		source      pgtype.Text
		topicID     pgtype.Text
		attitude    pgtype.Text
		methodLabel pgtype.Text
		embedding   *pgvector.Vector
	)

	if err := rows.Scan(&paper.ID, &paper.Title, &paper.Authors, &year, &journal, &abstract,
		&paper.Keywords, &source, &topicID, &attitude, &methodLabel, &embedding); err != nil {
		return domain.Paper{}, err
	}

	paper.Year = int(year.Int32)
	paper.Journal = journal.String
	paper.Abstract = abstract.String
	paper.Source = source.String
	paper.Features = featuresWithDefaults(topicID.String, attitude.String, methodLabel.String)

	if embedding != nil {
		paper.Embedding = embedding.Slice()
	}

	return paper, nil
}

func featuresWithDefaults(topicID, attitude, methodLabel string) domain.Features {
	if attitude == "" {
		attitude = domain.AttitudeCautiousNeutral
	}

	if methodLabel == "" {
		methodLabel = domain.MethodLabelOther
	}

	return domain.Features{
		TopicID:     topicID,
		Attitude:    attitude,
		MethodLabel: methodLabel,
	}
}
