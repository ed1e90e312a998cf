// Package analysis derives second-order structure over a paper collection:
// topic clusters, keyword co-occurrence graphs, temporal trend series and
// attitude-evolution series. All computations are request-scoped and operate
// on the caller's slice without mutating it.
package analysis

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
	"github.com/lueurxax/lit-review-engine/internal/core/errors"
	"github.com/lueurxax/lit-review-engine/internal/platform/observability"
)

// Topic naming constants.
const (
	topicNameKeywords  = 2
	topicKeywordRunes  = 8
	topicNameSeparator = " / "
	ellipsis           = "…"
)

// Metric status values for clustering runs.
const (
	runStatusOK    = "ok"
	runStatusEmpty = "empty"
	runStatusError = "error"
)

var topicCaser = cases.Title(language.English)

// Clusterer groups a paper collection into topic clusters from embedding
// vectors.
type Clusterer struct {
	logger *zerolog.Logger
}

// NewClusterer creates a Clusterer.
func NewClusterer(logger *zerolog.Logger) *Clusterer {
	return &Clusterer{logger: logger}
}

// Cluster partitions the papers that carry an embedding into at most k
// groups. Papers without an embedding are skipped, never an error; fewer
// than two qualifying papers yield an empty run. Embeddings of inconsistent
// dimensionality within one call are a structural error.
func (c *Clusterer) Cluster(papers []domain.Paper, k int) (domain.ClusterRun, error) {
	run := domain.ClusterRun{RunID: uuid.NewString(), Clusters: []domain.Cluster{}}

	if k <= 0 {
		observability.ClusteringRuns.WithLabelValues(runStatusError).Inc()
		return run, fmt.Errorf("%w: %d", errors.ErrInvalidClusterCount, k)
	}

	qualified, vectors, err := embeddingMatrix(papers)
	if err != nil {
		observability.ClusteringRuns.WithLabelValues(runStatusError).Inc()
		return run, err
	}

	effectiveK := k
	if len(qualified) < effectiveK {
		effectiveK = len(qualified)
	}

	if effectiveK < 2 {
		c.logger.Debug().
			Int("qualifying", len(qualified)).
			Int("requested_k", k).
			Msg("not enough embedded papers to cluster")
		observability.ClusteringRuns.WithLabelValues(runStatusEmpty).Inc()

		return run, nil
	}

	labels := kmeans(vectors, effectiveK)
	run.Clusters = summarize(qualified, labels, effectiveK)

	observability.ClusteringRuns.WithLabelValues(runStatusOK).Inc()

	return run, nil
}

// embeddingMatrix selects papers with a usable embedding and converts their
// vectors, enforcing consistent dimensionality across the call.
func embeddingMatrix(papers []domain.Paper) ([]domain.Paper, [][]float64, error) {
	var (
		qualified []domain.Paper
		vectors   [][]float64
		dim       int
	)

	for _, p := range papers {
		if len(p.Embedding) == 0 {
			continue
		}

		if dim == 0 {
			dim = len(p.Embedding)
		} else if len(p.Embedding) != dim {
			return nil, nil, fmt.Errorf("%w: paper %s has %d dimensions, expected %d",
				errors.ErrDimensionMismatch, p.ID, len(p.Embedding), dim)
		}

		vec := make([]float64, len(p.Embedding))
		for i, x := range p.Embedding {
			vec[i] = float64(x)
		}

		qualified = append(qualified, p)
		vectors = append(vectors, vec)
	}

	return qualified, vectors, nil
}

// summarize groups papers by label and derives a human-readable topic name
// per cluster. Cluster ordinals follow ascending internal label and carry no
// cross-call identity.
func summarize(papers []domain.Paper, labels []int, k int) []domain.Cluster {
	groups := make(map[int][]domain.Paper, k)
	for i, label := range labels {
		groups[label] = append(groups[label], papers[i])
	}

	orderedLabels := make([]int, 0, len(groups))
	for label := range groups {
		orderedLabels = append(orderedLabels, label)
	}

	sort.Ints(orderedLabels)

	clusters := make([]domain.Cluster, 0, len(groups))

	for ordinal, label := range orderedLabels {
		members := groups[label]

		ids := make([]string, len(members))
		for i, p := range members {
			ids[i] = p.ID
		}

		clusters = append(clusters, domain.Cluster{
			ID:        ordinal,
			TopicName: topicName(members, ordinal),
			PaperIDs:  ids,
		})
	}

	return clusters
}

// topicName joins the two most frequent keywords of the cluster, each
// truncated to 8 runes. A cluster with no extractable keywords falls back to
// a generic ordinal label.
func topicName(members []domain.Paper, ordinal int) string {
	top := topKeywords(members, topicNameKeywords)
	if len(top) == 0 {
		return topicCaser.String(fmt.Sprintf("topic %d", ordinal))
	}

	// Keyword-derived names keep the keywords' own casing; only the generic
	// fallback label is title-cased.
	parts := make([]string, len(top))
	for i, kw := range top {
		parts[i] = truncateWithEllipsis(kw, topicKeywordRunes)
	}

	name := parts[0]
	for _, p := range parts[1:] {
		name += topicNameSeparator + p
	}

	return name
}

func topKeywords(members []domain.Paper, n int) []string {
	counts := make(map[string]int)

	for _, p := range members {
		for _, kw := range p.Keywords {
			if kw != "" {
				counts[kw]++
			}
		}
	}

	keywords := make([]string, 0, len(counts))
	for kw := range counts {
		keywords = append(keywords, kw)
	}

	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}

		return keywords[i] < keywords[j]
	})

	if len(keywords) > n {
		keywords = keywords[:n]
	}

	return keywords
}

func truncateWithEllipsis(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return string(runes[:maxRunes]) + ellipsis
}
