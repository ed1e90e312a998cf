package rank

import (
	"math"
	"testing"
)

func TestJournalWeights_Weight(t *testing.T) {
	j := NewJournalWeights([]string{"经济研究", " Journal of Finance ", ""})

	tests := []struct {
		name    string
		journal string
		want    float64
	}{
		{"empty journal", "", 0},
		{"whitespace journal", "   ", 0},
		{"curated top venue", "经济研究", 0.9},
		{"curated venue case insensitive", "JOURNAL OF FINANCE", 0.9},
		{"curated venue substring", "经济研究(月刊)", 0.9},
		{"generic cjk marker", "南方某学报", 0.5},
		{"generic journal marker", "International Journal of Things", 0.5},
		{"generic review marker", "Annual Review of Sociology", 0.5},
		{"plain venue", "工作论文集", 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := j.Weight(tt.journal); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight(%q) = %v, want %v", tt.journal, got, tt.want)
			}
		})
	}
}

func TestJournalWeights_TopTierBeatsGenericMarker(t *testing.T) {
	j := NewJournalWeights([]string{"journal of finance"})

	// Contains both the curated venue and the generic "journal" marker;
	// the curated tier must win.
	if got := j.Weight("The Journal of Finance"); got != 0.9 {
		t.Errorf("Weight() = %v, want 0.9", got)
	}
}
