package analysis

import (
	"sort"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

// Dashboard distribution caps.
const (
	dashboardTopKeywords = 10
	dashboardTopMethods  = 10
)

// DashboardStats aggregates a collection into the counters the dashboard
// renders: papers per year, top keywords, attitude distribution and method
// distribution.
func DashboardStats(papers []domain.Paper) domain.DashboardStats {
	yearly := make(map[int]int)
	keywords := make(map[string]int)
	attitudes := make(map[string]int)
	methods := make(map[string]int)

	for _, p := range papers {
		if p.HasYear() {
			yearly[p.Year]++
		}

		for _, kw := range p.Keywords {
			if kw != "" {
				keywords[kw]++
			}
		}

		att := p.Features.Attitude
		if att == "" {
			att = domain.AttitudeCautiousNeutral
		}

		attitudes[att]++

		method := p.Features.MethodLabel
		if method == "" {
			method = domain.MethodLabelOther
		}

		methods[method]++
	}

	years := make([]domain.YearCount, 0, len(yearly))
	for y, n := range yearly {
		years = append(years, domain.YearCount{Year: y, Count: n})
	}

	sort.Slice(years, func(i, j int) bool {
		return years[i].Year < years[j].Year
	})

	return domain.DashboardStats{
		YearlyCounts:         years,
		TopKeywords:          countEntries(keywords, dashboardTopKeywords),
		AttitudeDistribution: countEntries(attitudes, len(attitudes)),
		MethodDistribution:   countEntries(methods, dashboardTopMethods),
	}
}

func countEntries(counts map[string]int, n int) []domain.DistributionEntry {
	entries := make([]domain.DistributionEntry, 0, len(counts))

	for _, key := range topByCount(counts, n) {
		entries = append(entries, domain.DistributionEntry{Key: key, Count: counts[key]})
	}

	return entries
}
