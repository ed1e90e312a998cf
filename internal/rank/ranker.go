// Package rank merges keyword-match and vector-similarity signals with
// per-paper metadata weights into a single ranked candidate list. Backend
// failures and timeouts degrade the ranking to fewer signals or to a direct
// metadata scan; they never surface to the caller.
package rank

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
	apperrors "github.com/lueurxax/lit-review-engine/internal/core/errors"
)

// Hit is one raw backend result.
type Hit struct {
	PaperID string
	Score   float64
}

// KeywordBackend is the keyword-match (BM25-style) search collaborator.
// Availability is checked once per rank call.
type KeywordBackend interface {
	Available(ctx context.Context) bool
	Search(ctx context.Context, query string, startYear, endYear int, source string, size int) ([]Hit, error)
}

// VectorBackend is the vector-similarity search collaborator. Ready reports
// whether an index has been built; false is a valid, non-error state.
type VectorBackend interface {
	Ready(ctx context.Context) bool
	Search(ctx context.Context, queryText string, topK int) ([]Hit, error)
}

// MetadataStore provides paper metadata, derived features and the direct
// filtered scan used when no search backend is available. ScanDistributions
// aggregates over the same filtered set ScanFilter matches, unpaginated.
type MetadataStore interface {
	FetchByIDs(ctx context.Context, ids []string) (map[string]domain.Paper, error)
	FetchFeatures(ctx context.Context, ids []string) (map[string]domain.Features, error)
	ScanFilter(ctx context.Context, q string, startYear, endYear int, source string, limit, offset int) ([]domain.Paper, int, error)
	ScanDistributions(ctx context.Context, q string, startYear, endYear int, source string) ([]domain.DistributionEntry, []domain.YearCount, error)
}

// Weights configures the fused score. All weights are expected to be >= 0;
// with that constraint the fused score is bounded by their sum.
type Weights struct {
	Keyword    float64
	Vector     float64
	Journal    float64
	UserPref   float64
	TitleBonus float64
}

// DefaultWeights returns the tuned default weight set.
func DefaultWeights() Weights {
	return Weights{
		Keyword:    0.45,
		Vector:     0.25,
		Journal:    0.1,
		UserPref:   0.1,
		TitleBonus: 0.2,
	}
}

// Request is one ranking call.
type Request struct {
	Query      string
	TopicTerms []string
	StartYear  int
	EndYear    int
	Source     string
	PrefTerms  []string
	Limit      int
	Offset     int
	Weights    Weights
}

// Backend result size is oversampled relative to the requested window so the
// fusion step has enough candidates after filtering.
const backendOversample = 2

const defaultLimit = 100

// candidatePoolSize is the floor on the per-call backend fetch. The pool is
// independent of the requested page within this bound, so every page of one
// query is cut from the same candidate set.
const candidatePoolSize = defaultLimit * backendOversample

const (
	requestPathFused = "fused"
	requestPathScan  = "scan"
)

// Ranker fuses backend signals into ranked, paginated results.
type Ranker struct {
	keyword  KeywordBackend
	vector   VectorBackend
	store    MetadataStore
	journals *JournalWeights
	timeout  time.Duration
	logger   *zerolog.Logger
}

// New creates a Ranker. timeout bounds each individual backend call.
func New(keyword KeywordBackend, vector VectorBackend, store MetadataStore, journals *JournalWeights, timeout time.Duration, logger *zerolog.Logger) *Ranker {
	return &Ranker{
		keyword:  keyword,
		vector:   vector,
		store:    store,
		journals: journals,
		timeout:  timeout,
		logger:   logger,
	}
}

// Rank executes one ranking call. The returned result carries the paginated
// candidate page, the total matched count before pagination, and topic/year
// distributions over the full matched set.
func (r *Ranker) Rank(ctx context.Context, req Request) (domain.RankedResult, error) {
	start := time.Now()

	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	useKeyword := r.keyword != nil && r.keyword.Available(ctx)
	useVector := r.vector != nil && strings.TrimSpace(req.Query) != "" && r.vector.Ready(ctx)

	if !useKeyword && !useVector {
		defer func() { RecordRequest(requestPathScan, time.Since(start)) }()

		return r.scanFallback(ctx, req)
	}

	signals := r.collectSignals(ctx, req, useKeyword, useVector)
	if len(signals) == 0 {
		defer func() { RecordRequest(requestPathScan, time.Since(start)) }()

		return r.scanFallback(ctx, req)
	}

	defer func() { RecordRequest(requestPathFused, time.Since(start)) }()

	return r.fuse(ctx, req, signals)
}

// collectSignals queries the available backends concurrently and joins the
// per-paper raw signal maps. A failed or timed-out backend contributes
// nothing; the other backend's results are not blocked on it.
func (r *Ranker) collectSignals(ctx context.Context, req Request, useKeyword, useVector bool) map[string]map[string]float64 {
	size := candidatePoolSize
	if need := (req.Offset + req.Limit) * backendOversample; need > size {
		size = need
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		signals = make(map[string]map[string]float64)
	)

	record := func(name string, hits []Hit) {
		mu.Lock()
		defer mu.Unlock()

		for _, h := range hits {
			if signals[h.PaperID] == nil {
				signals[h.PaperID] = make(map[string]float64)
			}

			signals[h.PaperID][name] = h.Score
		}
	}

	if useKeyword {
		wg.Add(1)

		go func() {
			defer wg.Done()

			hits, err := r.searchKeyword(ctx, req, size)
			if err != nil {
				r.logger.Debug().Err(err).Msg("keyword backend degraded, continuing without signal")
				RecordBackendDegraded(domain.SignalKeyword)

				return
			}

			record(domain.SignalKeyword, hits)
		}()
	}

	if useVector {
		wg.Add(1)

		go func() {
			defer wg.Done()

			hits, err := r.searchVector(ctx, req, size)
			if err != nil {
				r.logger.Debug().Err(err).Msg("vector backend degraded, continuing without signal")
				RecordBackendDegraded(domain.SignalVector)

				return
			}

			record(domain.SignalVector, hits)
		}()
	}

	wg.Wait()

	return signals
}

func (r *Ranker) searchKeyword(ctx context.Context, req Request, size int) ([]Hit, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hits, err := r.keyword.Search(callCtx, req.Query, req.StartYear, req.EndYear, req.Source, size)

	return hits, wrapTimeout(callCtx, err)
}

func (r *Ranker) searchVector(ctx context.Context, req Request, size int) ([]Hit, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hits, err := r.vector.Search(callCtx, req.Query, size)

	return hits, wrapTimeout(callCtx, err)
}

// wrapTimeout marks a backend error caused by the per-call deadline so the
// degradation log distinguishes slow backends from broken ones.
func wrapTimeout(callCtx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if apperrors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrBackendTimeout, err)
	}

	return err
}

// fuse normalizes raw signals, applies hard filters and computes the fused
// score for every candidate, then sorts, paginates and attaches
// distributions.
func (r *Ranker) fuse(ctx context.Context, req Request, signals map[string]map[string]float64) (domain.RankedResult, error) {
	ids := make([]string, 0, len(signals))
	for id := range signals {
		ids = append(ids, id)
	}

	meta, err := r.store.FetchByIDs(ctx, ids)
	if err != nil {
		return domain.RankedResult{}, err
	}

	maxima := signalMaxima(signals)

	candidates := make([]domain.ScoredCandidate, 0, len(signals))

	for id, raw := range signals {
		paper, ok := meta[id]
		if !ok {
			continue
		}

		if !passesFilters(paper, req) {
			continue
		}

		candidates = append(candidates, domain.ScoredCandidate{
			Paper:      paper,
			RawSignals: raw,
			FusedScore: r.fusedScore(paper, raw, maxima, req),
		})
	}

	sortCandidates(candidates)

	page := paginate(candidates, req.Offset, req.Limit)
	if err := r.attachFeatures(ctx, page); err != nil {
		return domain.RankedResult{}, err
	}

	topicDist, yearDist := r.distributions(ctx, candidates)

	return domain.RankedResult{
		Results:           page,
		Total:             len(candidates),
		TopicDistribution: topicDist,
		YearDistribution:  yearDist,
	}, nil
}

// scanFallback serves the call from a direct metadata scan, sorted by year
// descending then paper ID ascending. No fusion scoring applies on this path.
func (r *Ranker) scanFallback(ctx context.Context, req Request) (domain.RankedResult, error) {
	r.logger.Debug().Msg("no search backend available, using metadata scan")
	RecordFallbackScan()

	papers, total, err := r.store.ScanFilter(ctx, req.Query, req.StartYear, req.EndYear, req.Source, req.Limit, req.Offset)
	if err != nil {
		return domain.RankedResult{}, err
	}

	page := make([]domain.ScoredCandidate, len(papers))
	for i, p := range papers {
		page[i] = domain.ScoredCandidate{Paper: p}
	}

	if err := r.attachFeatures(ctx, page); err != nil {
		return domain.RankedResult{}, err
	}

	// Distributions cover the unpaginated matched set, same as the fused path.
	topicDist, yearDist, err := r.store.ScanDistributions(ctx, req.Query, req.StartYear, req.EndYear, req.Source)
	if err != nil {
		return domain.RankedResult{}, err
	}

	return domain.RankedResult{
		Results:           page,
		Total:             total,
		TopicDistribution: topicDist,
		YearDistribution:  yearDist,
	}, nil
}

func (r *Ranker) fusedScore(paper domain.Paper, raw map[string]float64, maxima map[string]float64, req Request) float64 {
	w := req.Weights

	normKeyword := raw[domain.SignalKeyword] / maxima[domain.SignalKeyword]
	normVector := raw[domain.SignalVector] / maxima[domain.SignalVector]

	score := w.Keyword*normKeyword +
		w.Vector*normVector +
		w.Journal*r.journals.Weight(paper.Journal) +
		w.UserPref*userPrefScore(paper.Title+" "+paper.Abstract, req.PrefTerms)

	if titleMatches(paper.Title, req.TopicTerms, req.Query) {
		score += w.TitleBonus
	}

	return score
}

// signalMaxima returns the per-signal maximum raw value observed in this
// call. A non-positive maximum maps to 1 so normalization never divides by
// zero.
func signalMaxima(signals map[string]map[string]float64) map[string]float64 {
	maxima := map[string]float64{
		domain.SignalKeyword: 0,
		domain.SignalVector:  0,
	}

	for _, raw := range signals {
		for name, v := range raw {
			if v > maxima[name] {
				maxima[name] = v
			}
		}
	}

	for name, v := range maxima {
		if v <= 0 {
			maxima[name] = 1
		}
	}

	return maxima
}

// passesFilters applies the hard year-range and source filters. A missing
// year excludes the candidate whenever a year filter is active.
func passesFilters(paper domain.Paper, req Request) bool {
	if req.StartYear != 0 || req.EndYear != 0 {
		if !paper.HasYear() {
			return false
		}

		if req.StartYear != 0 && paper.Year < req.StartYear {
			return false
		}

		if req.EndYear != 0 && paper.Year > req.EndYear {
			return false
		}
	}

	if req.Source != "" && paper.Source != req.Source {
		return false
	}

	return true
}

// userPrefScore rewards overlap between the paper text and the caller's
// preference terms. Any hit lifts the score into [0.5, 1].
func userPrefScore(text string, prefTerms []string) float64 {
	if len(prefTerms) == 0 || text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	hits := 0

	for _, t := range prefTerms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			hits++
		}
	}

	if hits == 0 {
		return 0
	}

	score := float64(hits)/float64(len(prefTerms))*0.5 + 0.5
	if score > 1 {
		score = 1
	}

	return score
}

// titleMatches reports whether any topic term, or the raw query itself,
// appears as a case-insensitive substring of the title. This is a binary
// tie-break amplifier, not a normalized signal.
func titleMatches(title string, topicTerms []string, rawQuery string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return false
	}

	for _, t := range topicTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(title, t) {
			return true
		}
	}

	q := strings.ToLower(strings.TrimSpace(rawQuery))

	return q != "" && strings.Contains(title, q)
}

// sortCandidates orders by fused score descending with paper ID ascending as
// the stable tie-break, so identical inputs always yield identical order.
func sortCandidates(candidates []domain.ScoredCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FusedScore != candidates[j].FusedScore {
			return candidates[i].FusedScore > candidates[j].FusedScore
		}

		return candidates[i].Paper.ID < candidates[j].Paper.ID
	})
}

func paginate(candidates []domain.ScoredCandidate, offset, limit int) []domain.ScoredCandidate {
	if offset >= len(candidates) {
		return []domain.ScoredCandidate{}
	}

	end := offset + limit
	if end > len(candidates) {
		end = len(candidates)
	}

	page := make([]domain.ScoredCandidate, end-offset)
	copy(page, candidates[offset:end])

	return page
}

// attachFeatures backfills derived features for the returned page. Missing
// feature rows leave the defaults in place.
func (r *Ranker) attachFeatures(ctx context.Context, page []domain.ScoredCandidate) error {
	if len(page) == 0 {
		return nil
	}

	ids := make([]string, len(page))
	for i, c := range page {
		ids[i] = c.Paper.ID
	}

	features, err := r.store.FetchFeatures(ctx, ids)
	if err != nil {
		return err
	}

	for i := range page {
		if f, ok := features[page[i].Paper.ID]; ok {
			page[i].Paper.Features = f
		}
	}

	return nil
}

// distributions computes topic and year histograms over the full matched
// set, fetching features for papers beyond the returned page as needed.
func (r *Ranker) distributions(ctx context.Context, matched []domain.ScoredCandidate) ([]domain.DistributionEntry, []domain.YearCount) {
	papers := make([]domain.Paper, len(matched))
	for i, c := range matched {
		papers[i] = c.Paper
	}

	ids := make([]string, 0, len(papers))

	for _, p := range papers {
		if p.Features.TopicID == "" {
			ids = append(ids, p.ID)
		}
	}

	if len(ids) > 0 {
		if features, err := r.store.FetchFeatures(ctx, ids); err == nil {
			for i := range papers {
				if f, ok := features[papers[i].ID]; ok {
					papers[i].Features = f
				}
			}
		} else {
			r.logger.Debug().Err(err).Msg("feature fetch for distributions failed, topic histogram may be partial")
		}
	}

	return TopicDistribution(papers), YearDistribution(papers)
}
