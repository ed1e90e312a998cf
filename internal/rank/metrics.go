package rank

import (
	"time"

	"github.com/lueurxax/lit-review-engine/internal/platform/observability"
)

// RecordRequest records one rank call by its serving path.
func RecordRequest(path string, elapsed time.Duration) {
	observability.RankRequests.WithLabelValues(path).Inc()
	observability.RankDuration.Observe(elapsed.Seconds())
}

// RecordBackendDegraded records a backend that failed or timed out during a
// rank call.
func RecordBackendDegraded(signal string) {
	observability.RankBackendDegraded.WithLabelValues(signal).Inc()
}

// RecordFallbackScan records a rank call served entirely by the metadata
// scan path.
func RecordFallbackScan() {
	observability.RankFallbackScans.Inc()
}
