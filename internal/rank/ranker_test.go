package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

const testTimeout = time.Second

var errBackendDown = errors.New("backend down")

type fakeKeyword struct {
	available bool
	hits      []Hit
	err       error
	calls     int
}

func (f *fakeKeyword) Available(context.Context) bool { return f.available }

// Search honors the requested size the way a real backend does: best scores
// first, truncated to size.
func (f *fakeKeyword) Search(_ context.Context, _ string, _, _ int, _ string, size int) ([]Hit, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	hits := append([]Hit(nil), f.hits...)
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if size < len(hits) {
		hits = hits[:size]
	}

	return hits, nil
}

type fakeVector struct {
	ready bool
	hits  []Hit
	err   error
}

func (f *fakeVector) Ready(context.Context) bool { return f.ready }

func (f *fakeVector) Search(context.Context, string, int) ([]Hit, error) {
	return f.hits, f.err
}

type fakeStore struct {
	papers    map[string]domain.Paper
	features  map[string]domain.Features
	scanPage  []domain.Paper
	scanAll   []domain.Paper
	scanTotal int
	scanCalls int
}

func (f *fakeStore) FetchByIDs(_ context.Context, ids []string) (map[string]domain.Paper, error) {
	out := make(map[string]domain.Paper, len(ids))
	for _, id := range ids {
		if p, ok := f.papers[id]; ok {
			out[id] = p
		}
	}

	return out, nil
}

func (f *fakeStore) FetchFeatures(_ context.Context, ids []string) (map[string]domain.Features, error) {
	out := make(map[string]domain.Features, len(ids))
	for _, id := range ids {
		if feats, ok := f.features[id]; ok {
			out[id] = feats
		}
	}

	return out, nil
}

func (f *fakeStore) ScanFilter(_ context.Context, _ string, _, _ int, _ string, limit, offset int) ([]domain.Paper, int, error) {
	f.scanCalls++

	if offset >= len(f.scanPage) {
		return nil, f.scanTotal, nil
	}

	end := offset + limit
	if end > len(f.scanPage) {
		end = len(f.scanPage)
	}

	return f.scanPage[offset:end], f.scanTotal, nil
}

func (f *fakeStore) ScanDistributions(context.Context, string, int, int, string) ([]domain.DistributionEntry, []domain.YearCount, error) {
	return TopicDistribution(f.scanAll), YearDistribution(f.scanAll), nil
}

func testPapers() map[string]domain.Paper {
	return map[string]domain.Paper{
		"p1": {ID: "p1", Title: "数字治理研究", Year: 2020, Journal: "经济研究"},
		"p2": {ID: "p2", Title: "平台经济", Year: 2021, Journal: "某学报"},
		"p3": {ID: "p3", Title: "unrelated", Year: 2019, Journal: ""},
		"p4": {ID: "p4", Title: "no year paper"},
	}
}

func newTestRanker(kw KeywordBackend, vec VectorBackend, store MetadataStore) *Ranker {
	logger := zerolog.Nop()

	return New(kw, vec, store, NewJournalWeights([]string{"经济研究"}), testTimeout, &logger)
}

func TestRank_FusedOrderingAndNormalization(t *testing.T) {
	kw := &fakeKeyword{available: true, hits: []Hit{
		{PaperID: "p1", Score: 10},
		{PaperID: "p2", Score: 5},
	}}
	vec := &fakeVector{ready: true, hits: []Hit{
		{PaperID: "p2", Score: 0.8},
	}}
	store := &fakeStore{papers: testPapers()}

	r := newTestRanker(kw, vec, store)

	res, err := r.Rank(context.Background(), Request{Query: "数字治理", Weights: DefaultWeights()})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)

	// p1: keyword 10/10*0.45 + journal 0.9*0.1 + title bonus 0.2 = 0.74
	// p2: keyword 5/10*0.45 + vector 0.8/0.8*0.25 + journal 0.5*0.1 = 0.525
	assert.Equal(t, "p1", res.Results[0].Paper.ID)
	assert.Equal(t, "p2", res.Results[1].Paper.ID)
	assert.InDelta(t, 0.74, res.Results[0].FusedScore, 1e-9)
	assert.InDelta(t, 0.525, res.Results[1].FusedScore, 1e-9)
	assert.Equal(t, 2, res.Total)
}

func TestRank_ScoreBounded(t *testing.T) {
	w := DefaultWeights()
	bound := w.Keyword + w.Vector + w.Journal + w.UserPref + w.TitleBonus

	kw := &fakeKeyword{available: true, hits: []Hit{{PaperID: "p1", Score: 3}}}
	vec := &fakeVector{ready: true, hits: []Hit{{PaperID: "p1", Score: 0.9}}}
	store := &fakeStore{papers: testPapers()}

	r := newTestRanker(kw, vec, store)

	res, err := r.Rank(context.Background(), Request{
		Query:      "数字治理",
		TopicTerms: []string{"数字治理"},
		PrefTerms:  []string{"数字"},
		Weights:    w,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)

	for _, c := range res.Results {
		assert.LessOrEqual(t, c.FusedScore, bound+1e-9)
		assert.GreaterOrEqual(t, c.FusedScore, 0.0)
	}
}

func TestRank_TieBreakByPaperID(t *testing.T) {
	papers := map[string]domain.Paper{
		"b": {ID: "b", Title: "same", Year: 2020},
		"a": {ID: "a", Title: "same", Year: 2020},
	}
	kw := &fakeKeyword{available: true, hits: []Hit{
		{PaperID: "b", Score: 1},
		{PaperID: "a", Score: 1},
	}}
	store := &fakeStore{papers: papers}

	r := newTestRanker(kw, &fakeVector{}, store)

	res, err := r.Rank(context.Background(), Request{Query: "same", Weights: DefaultWeights()})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)

	assert.Equal(t, "a", res.Results[0].Paper.ID)
	assert.Equal(t, "b", res.Results[1].Paper.ID)
}

func TestRank_PaginationConsistent(t *testing.T) {
	papers := make(map[string]domain.Paper)
	hits := make([]Hit, 0, 10)

	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("p%02d", i)
		papers[id] = domain.Paper{ID: id, Title: "t", Year: 2015 + i}
		hits = append(hits, Hit{PaperID: id, Score: float64(i + 1)})
	}

	kw := &fakeKeyword{available: true, hits: hits}
	store := &fakeStore{papers: papers}
	r := newTestRanker(kw, &fakeVector{}, store)

	full, err := r.Rank(context.Background(), Request{Query: "t", Limit: 10, Weights: DefaultWeights()})
	require.NoError(t, err)
	require.Len(t, full.Results, 10)

	var paged []domain.ScoredCandidate

	for offset := 0; offset < 10; offset += 3 {
		page, err := r.Rank(context.Background(), Request{Query: "t", Limit: 3, Offset: offset, Weights: DefaultWeights()})
		require.NoError(t, err)

		assert.Equal(t, 10, page.Total)

		paged = append(paged, page.Results...)
	}

	require.Len(t, paged, 10)

	for i := range full.Results {
		assert.Equal(t, full.Results[i].Paper.ID, paged[i].Paper.ID)
	}
}

func TestRank_Idempotent(t *testing.T) {
	kw := &fakeKeyword{available: true, hits: []Hit{
		{PaperID: "p1", Score: 2},
		{PaperID: "p2", Score: 1},
		{PaperID: "p3", Score: 1.5},
	}}
	store := &fakeStore{papers: testPapers()}
	r := newTestRanker(kw, &fakeVector{}, store)

	req := Request{Query: "数字", Weights: DefaultWeights()}

	first, err := r.Rank(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := r.Rank(context.Background(), req)
		require.NoError(t, err)

		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Rank() not idempotent on call %d", i)
		}
	}
}

func TestRank_YearFilterExcludesMissingYear(t *testing.T) {
	kw := &fakeKeyword{available: true, hits: []Hit{
		{PaperID: "p1", Score: 1},
		{PaperID: "p4", Score: 5},
	}}
	store := &fakeStore{papers: testPapers()}
	r := newTestRanker(kw, &fakeVector{}, store)

	res, err := r.Rank(context.Background(), Request{Query: "q", EndYear: 2022, Weights: DefaultWeights()})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	assert.Equal(t, "p1", res.Results[0].Paper.ID)
}

func TestRank_FallbackScanWhenNoBackend(t *testing.T) {
	scanAll := make([]domain.Paper, 0, 100)
	for i := 0; i < 100; i++ {
		scanAll = append(scanAll, domain.Paper{ID: fmt.Sprintf("s%03d", i), Year: 2015 + i%5})
	}

	scanPage := []domain.Paper{
		{ID: "p2", Year: 2021},
		{ID: "p1", Year: 2020},
	}
	store := &fakeStore{papers: testPapers(), scanPage: scanPage, scanAll: scanAll, scanTotal: 100}
	kw := &fakeKeyword{available: false}
	vec := &fakeVector{ready: false}

	r := newTestRanker(kw, vec, store)

	res, err := r.Rank(context.Background(), Request{Query: "anything", Limit: 2, Weights: DefaultWeights()})
	require.NoError(t, err)

	assert.Equal(t, 1, store.scanCalls)
	assert.Equal(t, 0, kw.calls)
	assert.Equal(t, 100, res.Total)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "p2", res.Results[0].Paper.ID)
	assert.Zero(t, res.Results[0].FusedScore)

	// Distributions cover the full matched set, not just the returned page.
	sum := 0
	for _, yc := range res.YearDistribution {
		sum += yc.Count
	}

	assert.Equal(t, 100, sum)
}

func TestRank_DegradedBackendDoesNotFail(t *testing.T) {
	kw := &fakeKeyword{available: true, err: errBackendDown}
	vec := &fakeVector{ready: true, hits: []Hit{{PaperID: "p1", Score: 0.7}}}
	store := &fakeStore{papers: testPapers()}

	r := newTestRanker(kw, vec, store)

	res, err := r.Rank(context.Background(), Request{Query: "数字治理", Weights: DefaultWeights()})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	assert.Equal(t, "p1", res.Results[0].Paper.ID)
	_, hasKeyword := res.Results[0].RawSignals[domain.SignalKeyword]
	assert.False(t, hasKeyword)
}

func TestRank_BothBackendsErrorFallsBack(t *testing.T) {
	kw := &fakeKeyword{available: true, err: errBackendDown}
	vec := &fakeVector{ready: true, err: errBackendDown}
	store := &fakeStore{papers: testPapers(), scanPage: []domain.Paper{{ID: "p1", Year: 2020}}, scanTotal: 1}

	r := newTestRanker(kw, vec, store)

	res, err := r.Rank(context.Background(), Request{Query: "q", Weights: DefaultWeights()})
	require.NoError(t, err)

	assert.Equal(t, 1, store.scanCalls)
	assert.Equal(t, 1, res.Total)
}

func TestUserPrefScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		terms []string
		want  float64
	}{
		{"no terms", "some text", nil, 0},
		{"empty text", "", []string{"a"}, 0},
		{"no hits", "digital governance", []string{"rural"}, 0},
		{"half hits", "digital governance", []string{"digital", "rural"}, 0.75},
		{"all hits", "digital governance", []string{"digital", "governance"}, 1},
		{"case insensitive", "Digital Governance", []string{"digital"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userPrefScore(tt.text, tt.terms)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("userPrefScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignalMaxima_NonPositiveGuard(t *testing.T) {
	signals := map[string]map[string]float64{
		"p1": {domain.SignalKeyword: 0, domain.SignalVector: -0.2},
	}

	maxima := signalMaxima(signals)

	assert.Equal(t, 1.0, maxima[domain.SignalKeyword])
	assert.Equal(t, 1.0, maxima[domain.SignalVector])
}

func TestTitleMatches(t *testing.T) {
	tests := []struct {
		name  string
		title string
		terms []string
		raw   string
		want  bool
	}{
		{"topic term hit", "数字治理研究", []string{"数字治理"}, "", true},
		{"raw query hit", "Digital Governance Review", nil, "governance", true},
		{"no hit", "unrelated", []string{"数字"}, "other", false},
		{"empty title", "", []string{"数字"}, "数字", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleMatches(tt.title, tt.terms, tt.raw); got != tt.want {
				t.Errorf("titleMatches() = %v, want %v", got, tt.want)
			}
		})
	}
}
