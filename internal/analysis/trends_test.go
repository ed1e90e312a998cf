package analysis

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

func trendPaper(id string, year int, keywords ...string) domain.Paper {
	return domain.Paper{ID: id, Year: year, Keywords: keywords}
}

func TestKeywordTrends(t *testing.T) {
	papers := []domain.Paper{
		trendPaper("p1", 2019, "治理", "数字化"),
		trendPaper("p2", 2021, "治理"),
		trendPaper("p3", 2021, "治理", "平台"),
		trendPaper("p4", 0, "治理"), // unknown year excluded
	}

	got := KeywordTrends(papers)

	if !reflect.DeepEqual(got.Years, []int{2019, 2021}) {
		t.Fatalf("Years = %v, want [2019 2021]", got.Years)
	}

	series := make(map[string][]int)
	for _, s := range got.Series {
		series[s.Name] = s.Data
	}

	if !reflect.DeepEqual(series["治理"], []int{1, 2}) {
		t.Errorf("治理 series = %v, want [1 2]", series["治理"])
	}

	// 2020 is absent from the axis entirely, but years where a keyword
	// has no occurrences carry explicit zeros.
	if !reflect.DeepEqual(series["数字化"], []int{1, 0}) {
		t.Errorf("数字化 series = %v, want [1 0]", series["数字化"])
	}

	if !reflect.DeepEqual(series["平台"], []int{0, 1}) {
		t.Errorf("平台 series = %v, want [0 1]", series["平台"])
	}
}

func TestKeywordTrends_TopKeywordCap(t *testing.T) {
	var papers []domain.Paper
	for i := 0; i < 15; i++ {
		papers = append(papers, trendPaper(fmt.Sprintf("p%d", i), 2020, fmt.Sprintf("kw%02d", i)))
	}

	got := KeywordTrends(papers)

	if len(got.Series) != 10 {
		t.Errorf("series = %d, want 10", len(got.Series))
	}

	for _, s := range got.Series {
		if len(s.Data) != len(got.Years) {
			t.Errorf("series %q length %d != years length %d", s.Name, len(s.Data), len(got.Years))
		}
	}
}

func TestKeywordTrends_Empty(t *testing.T) {
	got := KeywordTrends(nil)

	if len(got.Years) != 0 || len(got.Series) != 0 {
		t.Errorf("KeywordTrends(nil) = %+v, want empty", got)
	}
}

func TestAttitudeEvolution(t *testing.T) {
	withAttitude := func(id string, year int, att string) domain.Paper {
		return domain.Paper{ID: id, Year: year, Features: domain.Features{Attitude: att}}
	}

	papers := []domain.Paper{
		withAttitude("p1", 2019, domain.AttitudeOptimistic),
		withAttitude("p2", 2019, ""), // defaults to cautious-neutral
		withAttitude("p3", 2020, domain.AttitudeCritical),
		withAttitude("p4", 0, domain.AttitudeConcerned), // no year, excluded
	}

	got := AttitudeEvolution(papers)

	if !reflect.DeepEqual(got.Years, []int{2019, 2020}) {
		t.Fatalf("Years = %v, want [2019 2020]", got.Years)
	}

	names := make([]string, len(got.Series))
	series := make(map[string][]int)

	for i, s := range got.Series {
		names[i] = s.Name
		series[s.Name] = s.Data
	}

	// Categories sorted by name, one series per observed category only.
	want := []string{
		domain.AttitudeCautiousNeutral,
		domain.AttitudeCritical,
		domain.AttitudeOptimistic,
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("categories = %v, want %v", names, want)
	}

	if !reflect.DeepEqual(series[domain.AttitudeCautiousNeutral], []int{1, 0}) {
		t.Errorf("cautious-neutral series = %v, want [1 0]", series[domain.AttitudeCautiousNeutral])
	}

	if !reflect.DeepEqual(series[domain.AttitudeCritical], []int{0, 1}) {
		t.Errorf("critical series = %v, want [0 1]", series[domain.AttitudeCritical])
	}
}

func TestDashboardStats(t *testing.T) {
	papers := []domain.Paper{
		{ID: "p1", Year: 2020, Keywords: []string{"治理", "数字化"}, Features: domain.Features{Attitude: domain.AttitudeOptimistic, MethodLabel: "case-study"}},
		{ID: "p2", Year: 2020, Keywords: []string{"治理"}},
		{ID: "p3", Year: 2018},
	}

	got := DashboardStats(papers)

	wantYears := []domain.YearCount{{Year: 2018, Count: 1}, {Year: 2020, Count: 2}}
	if !reflect.DeepEqual(got.YearlyCounts, wantYears) {
		t.Errorf("YearlyCounts = %v, want %v", got.YearlyCounts, wantYears)
	}

	wantKeywords := []domain.DistributionEntry{{Key: "治理", Count: 2}, {Key: "数字化", Count: 1}}
	if !reflect.DeepEqual(got.TopKeywords, wantKeywords) {
		t.Errorf("TopKeywords = %v, want %v", got.TopKeywords, wantKeywords)
	}

	wantAttitudes := []domain.DistributionEntry{
		{Key: domain.AttitudeCautiousNeutral, Count: 2},
		{Key: domain.AttitudeOptimistic, Count: 1},
	}
	if !reflect.DeepEqual(got.AttitudeDistribution, wantAttitudes) {
		t.Errorf("AttitudeDistribution = %v, want %v", got.AttitudeDistribution, wantAttitudes)
	}

	wantMethods := []domain.DistributionEntry{
		{Key: domain.MethodLabelOther, Count: 2},
		{Key: "case-study", Count: 1},
	}
	if !reflect.DeepEqual(got.MethodDistribution, wantMethods) {
		t.Errorf("MethodDistribution = %v, want %v", got.MethodDistribution, wantMethods)
	}
}
