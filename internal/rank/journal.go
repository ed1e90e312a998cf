package rank

import "strings"

// JournalWeights implements the static three-tier venue lookup. The curated
// top-venue set is configuration data, not hardcoded logic.
type JournalWeights struct {
	topVenues []string
}

// Tier values for the journal signal.
const (
	journalWeightTop     = 0.9
	journalWeightGeneric = 0.5
	journalWeightBase    = 0.2
)

// Generic venue markers for the middle tier.
var genericVenueMarkers = []string{"学报", "journal", "review"}

// NewJournalWeights creates the lookup from a curated top-venue list.
// Venue matching is case-insensitive substring containment.
func NewJournalWeights(topVenues []string) *JournalWeights {
	lowered := make([]string, 0, len(topVenues))

	for _, v := range topVenues {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			lowered = append(lowered, v)
		}
	}

	return &JournalWeights{topVenues: lowered}
}

// Weight returns the tier weight for a journal name; an empty name scores 0.
func (j *JournalWeights) Weight(journal string) float64 {
	journal = strings.ToLower(strings.TrimSpace(journal))
	if journal == "" {
		return 0
	}

	for _, v := range j.topVenues {
		if strings.Contains(journal, v) {
			return journalWeightTop
		}
	}

	for _, marker := range genericVenueMarkers {
		if strings.Contains(journal, marker) {
			return journalWeightGeneric
		}
	}

	return journalWeightBase
}
