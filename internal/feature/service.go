// Package feature provides the injectable handle to the feature-extraction
// resources: an embedding provider registry plus lightweight keyword and
// attitude fallbacks. Initialization is bounded by an explicit timeout; a
// resource that does not come up in time is marked unavailable, never
// blocking the caller. Enrichment is copy-on-enrich: caller slices are never
// mutated.
package feature

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
	"github.com/lueurxax/lit-review-engine/internal/core/errors"
)

// Embedder is the minimal surface consumed from the embedding registry.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	ProviderCount() int
}

// Enrichment input limits, matching what the embedding providers accept.
const (
	embedTextLimit     = 2000
	fallbackKeywordTop = 5
)

var keywordTokenRe = regexp.MustCompile(`[a-zA-Z\x{4e00}-\x{9fff}]{2,}`)

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateUnavailable
)

// Service owns the lazily-initialized feature resources. It is safe for
// concurrent use; after initialization the resources are read-only.
type Service struct {
	embedder    Embedder
	initTimeout time.Duration
	logger      *zerolog.Logger

	mu    sync.Mutex
	state state
}

// NewService creates a Service around an embedder. The embedder may be nil,
// in which case embedding enrichment is permanently unavailable.
func NewService(embedder Embedder, initTimeout time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		embedder:    embedder,
		initTimeout: initTimeout,
		logger:      logger,
	}
}

// EnsureReady performs the one-time bounded initialization check. It returns
// nil when the embedding resources are usable and ErrFeatureUnavailable
// otherwise; the unavailable result is cached, so callers may probe cheaply.
func (s *Service) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateReady:
		return nil
	case stateUnavailable:
		return errors.ErrFeatureUnavailable
	}

	if s.embedder == nil || s.embedder.ProviderCount() == 0 {
		s.state = stateUnavailable
		return errors.ErrFeatureUnavailable
	}

	initCtx, cancel := context.WithTimeout(ctx, s.initTimeout)
	defer cancel()

	// A probe embedding both warms the provider and proves it answers
	// within the bound.
	done := make(chan error, 1)

	go func() {
		_, err := s.embedder.GetEmbedding(initCtx, "init probe")
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warn().Err(err).Msg("feature resources failed to initialize, marking unavailable")
			s.state = stateUnavailable

			return errors.ErrFeatureUnavailable
		}

		s.state = stateReady

		return nil
	case <-initCtx.Done():
		s.logger.Warn().Dur("timeout", s.initTimeout).Msg("feature resource initialization timed out, marking unavailable")
		s.state = stateUnavailable

		return errors.ErrFeatureUnavailable
	}
}

// Available reports the cached resource state without triggering
// initialization.
func (s *Service) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == stateReady
}

// Enrich returns a copy of the papers with missing keywords, embeddings and
// attitude labels filled in. The input slice and its elements are never
// mutated. Missing embedding resources degrade to keyword/attitude-only
// enrichment.
func (s *Service) Enrich(ctx context.Context, papers []domain.Paper) []domain.Paper {
	embedOK := s.EnsureReady(ctx) == nil

	out := make([]domain.Paper, len(papers))

	for i, p := range papers {
		enriched := clonePaper(p)

		if len(enriched.Keywords) == 0 {
			enriched.Keywords = ExtractKeywords(enriched.Title+". "+enriched.Abstract, fallbackKeywordTop)
		}

		if len(enriched.Embedding) == 0 && embedOK {
			if vec := s.embed(ctx, enriched); vec != nil {
				enriched.Embedding = vec
			}
		}

		if enriched.Features.Attitude == "" {
			enriched.Features.Attitude = domain.AttitudeCautiousNeutral
		}

		if enriched.Features.MethodLabel == "" {
			enriched.Features.MethodLabel = domain.MethodLabelOther
		}

		out[i] = enriched
	}

	return out
}

func (s *Service) embed(ctx context.Context, p domain.Paper) []float32 {
	text := strings.TrimSpace(p.Title + "\n" + p.Abstract)
	if text == "" {
		return nil
	}

	// Truncate on a rune boundary so CJK text never reaches the provider as
	// invalid UTF-8.
	if runes := []rune(text); len(runes) > embedTextLimit {
		text = string(runes[:embedTextLimit])
	}

	vec, err := s.embedder.GetEmbedding(ctx, text)
	if err != nil {
		s.logger.Debug().Err(err).Str("paper_id", p.ID).Msg("embedding enrichment failed for paper")
		return nil
	}

	return vec
}

// ExtractKeywords is the model-free fallback extractor: it ranks word runs
// of the text by frequency and returns the top n, ties broken by first
// appearance.
func ExtractKeywords(text string, n int) []string {
	tokens := keywordTokenRe.FindAllString(text, -1)
	if len(tokens) == 0 {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for i, tok := range tokens {
		tok = strings.ToLower(tok)

		counts[tok]++

		if _, seen := firstSeen[tok]; !seen {
			firstSeen[tok] = i
		}
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}

	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}

		return firstSeen[words[i]] < firstSeen[words[j]]
	})

	if len(words) > n {
		words = words[:n]
	}

	return words
}

func clonePaper(p domain.Paper) domain.Paper {
	out := p

	if p.Authors != nil {
		out.Authors = append([]string(nil), p.Authors...)
	}

	if p.Keywords != nil {
		out.Keywords = append([]string(nil), p.Keywords...)
	}

	if p.Embedding != nil {
		out.Embedding = append([]float32(nil), p.Embedding...)
	}

	return out
}
