package rank

import (
	"sort"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

// TopicDistributionCap bounds topic histograms to keep dashboards readable.
// The metadata scan path applies the same cap in SQL.
const TopicDistributionCap = 20

// TopicDistribution counts non-empty topic IDs over a paper set, sorted by
// count descending (topic ID ascending on ties) and capped at 20 entries.
// Papers without a topic ID are excluded from the histogram but remain part
// of the set they were counted in.
func TopicDistribution(papers []domain.Paper) []domain.DistributionEntry {
	counts := make(map[string]int)

	for _, p := range papers {
		if p.Features.TopicID != "" {
			counts[p.Features.TopicID]++
		}
	}

	entries := make([]domain.DistributionEntry, 0, len(counts))
	for id, n := range counts {
		entries = append(entries, domain.DistributionEntry{Key: id, Count: n})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}

		return entries[i].Key < entries[j].Key
	})

	if len(entries) > TopicDistributionCap {
		entries = entries[:TopicDistributionCap]
	}

	return entries
}

// YearDistribution counts present years over a paper set, sorted ascending
// by year. Papers without a known year are excluded from the histogram.
func YearDistribution(papers []domain.Paper) []domain.YearCount {
	counts := make(map[int]int)

	for _, p := range papers {
		if p.HasYear() {
			counts[p.Year]++
		}
	}

	entries := make([]domain.YearCount, 0, len(counts))
	for y, n := range counts {
		entries = append(entries, domain.YearCount{Year: y, Count: n})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Year < entries[j].Year
	})

	return entries
}
