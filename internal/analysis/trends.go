package analysis

import (
	"sort"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

// Trend series track the globally most frequent keywords.
const trendTopKeywords = 10

// KeywordTrends accumulates keyword frequency per year, selects the global
// top keywords by total frequency and emits one zero-filled count series per
// keyword over the ascending year axis. Papers without a known year are
// excluded.
func KeywordTrends(papers []domain.Paper) domain.YearSeries {
	yearKeyword := make(map[int]map[string]int)
	totals := make(map[string]int)

	for _, p := range papers {
		if !p.HasYear() {
			continue
		}

		for _, kw := range p.Keywords {
			if kw == "" {
				continue
			}

			if yearKeyword[p.Year] == nil {
				yearKeyword[p.Year] = make(map[string]int)
			}

			yearKeyword[p.Year][kw]++
			totals[kw]++
		}
	}

	years := sortedYears(yearKeyword)
	selected := topByCount(totals, trendTopKeywords)

	series := make([]domain.Series, 0, len(selected))

	for _, kw := range selected {
		data := make([]int, len(years))
		for i, y := range years {
			data[i] = yearKeyword[y][kw]
		}

		series = append(series, domain.Series{Name: kw, Data: data})
	}

	return domain.YearSeries{Years: years, Series: series}
}

// AttitudeEvolution accumulates attitude-category counts per year and emits
// one zero-filled series per category observed anywhere in the collection,
// sorted by category name, intended for stacked rendering. Papers without a
// label count as cautious-neutral; papers without a year are excluded.
func AttitudeEvolution(papers []domain.Paper) domain.YearSeries {
	yearAttitude := make(map[int]map[string]int)
	categories := make(map[string]struct{})

	for _, p := range papers {
		if !p.HasYear() {
			continue
		}

		att := p.Features.Attitude
		if att == "" {
			att = domain.AttitudeCautiousNeutral
		}

		if yearAttitude[p.Year] == nil {
			yearAttitude[p.Year] = make(map[string]int)
		}

		yearAttitude[p.Year][att]++
		categories[att] = struct{}{}
	}

	years := sortedYears(yearAttitude)

	names := make([]string, 0, len(categories))
	for cat := range categories {
		names = append(names, cat)
	}

	sort.Strings(names)

	series := make([]domain.Series, 0, len(names))

	for _, cat := range names {
		data := make([]int, len(years))
		for i, y := range years {
			data[i] = yearAttitude[y][cat]
		}

		series = append(series, domain.Series{Name: cat, Data: data})
	}

	return domain.YearSeries{Years: years, Series: series}
}

func sortedYears[V any](byYear map[int]V) []int {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}

	sort.Ints(years)

	return years
}

// topByCount returns up to n keys ordered by count descending, key ascending
// on ties.
func topByCount(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}

		return keys[i] < keys[j]
	})

	if len(keys) > n {
		keys = keys[:n]
	}

	return keys
}
