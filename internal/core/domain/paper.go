// Package domain defines the core data model shared by retrieval and
// analytics components. All types here are derived, per-request artifacts;
// the persisted paper corpus is owned by the storage layer.
package domain

// Attitude labels form a closed set assigned by the feature-extraction
// collaborator. Unknown or missing labels default to AttitudeCautiousNeutral.
const (
	AttitudeOptimistic      = "optimistic"
	AttitudeCautiousNeutral = "cautious-neutral"
	AttitudeCritical        = "critical"
	AttitudeConcerned       = "concerned"
)

// MethodLabelOther is the default method label when classification is absent.
const MethodLabelOther = "other"

// Paper is the canonical paper record, constructed once at the ingestion
// boundary. A zero Year means the publication year is unknown. Embedding may
// be nil; components that need it must degrade gracefully.
type Paper struct {
	ID        string    `json:"paper_id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Year      int       `json:"year,omitempty"`
	Journal   string    `json:"journal"`
	Abstract  string    `json:"abstract"`
	Keywords  []string  `json:"keywords"`
	Source    string    `json:"source,omitempty"`
	Features  Features  `json:"features"`
	Embedding []float32 `json:"-"`
}

// Features carries the derived per-paper labels.
type Features struct {
	TopicID     string `json:"topic_id,omitempty"`
	Attitude    string `json:"attitude"`
	MethodLabel string `json:"method_label"`
}

// HasYear reports whether the paper carries a known publication year.
func (p Paper) HasYear() bool {
	return p.Year != 0
}

// Signal names attached to ScoredCandidate.RawSignals.
const (
	SignalKeyword = "keyword"
	SignalVector  = "vector"
)

// ScoredCandidate is one ranked paper with its raw backend signals and the
// fused score. A signal is present in RawSignals only if that backend
// answered for this paper.
type ScoredCandidate struct {
	Paper      Paper              `json:"paper"`
	RawSignals map[string]float64 `json:"raw_signals,omitempty"`
	FusedScore float64            `json:"score"`
}

// DistributionEntry is one bucket of a topic or year distribution.
type DistributionEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// YearCount is one bucket of a year histogram.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// RankedResult is a paginated page of candidates plus distributions computed
// over the full (unpaginated) matched set.
type RankedResult struct {
	Results           []ScoredCandidate   `json:"results"`
	Total             int                 `json:"total"`
	TopicDistribution []DistributionEntry `json:"topic_distribution"`
	YearDistribution  []YearCount         `json:"year_distribution"`
}

// Cluster is one topic cluster produced by a single clustering run. IDs are
// stable only within that run.
type Cluster struct {
	ID        int      `json:"cluster_id"`
	TopicName string   `json:"topic_name"`
	PaperIDs  []string `json:"paper_ids"`
}

// ClusterRun is the result of one clustering invocation.
type ClusterRun struct {
	RunID    string    `json:"run_id"`
	Clusters []Cluster `json:"clusters"`
}

// GraphNode is a keyword node of the co-occurrence graph. Name is the
// display-truncated form of ID; Value is the raw keyword frequency.
type GraphNode struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	SymbolSize float64 `json:"symbolSize"`
}

// GraphEdge is an undirected keyword co-occurrence edge.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"value"`
}

// CooccurrenceGraph is the keyword co-occurrence network over a collection.
type CooccurrenceGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"links"`
}

// Series is one named count series aligned with the year axis it was
// produced with: len(Data) always equals len(years).
type Series struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// YearSeries pairs an ascending, deduplicated year axis with per-keyword or
// per-category count series. Missing year/series combinations are explicit
// zeros, never absent.
type YearSeries struct {
	Years  []int    `json:"years"`
	Series []Series `json:"series"`
}

// DashboardStats aggregates collection-level counters for the dashboard.
type DashboardStats struct {
	YearlyCounts         []YearCount         `json:"yearlyCounts"`
	TopKeywords          []DistributionEntry `json:"topKeywords"`
	AttitudeDistribution []DistributionEntry `json:"attitudeDistribution"`
	MethodDistribution   []DistributionEntry `json:"methodDistribution"`
}
