package analysis

import (
	"math"
	"sort"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

// Node display constants. Display size grows logarithmically so extreme
// outliers do not visually dominate the graph.
const (
	nodeNameRunes  = 12
	nodeSizeFactor = 5
)

type keywordPair struct {
	a, b string
}

// orderedPair returns the unordered pair key; edges are undirected.
func orderedPair(a, b string) keywordPair {
	if a > b {
		a, b = b, a
	}

	return keywordPair{a: a, b: b}
}

// BuildCooccurrenceGraph scans every paper's keyword list and counts each
// unordered pair of distinct keywords appearing within the same paper.
// Pairs below minWeight are dropped, and only keywords participating in a
// surviving edge become nodes. Output ordering is deterministic.
func BuildCooccurrenceGraph(papers []domain.Paper, minWeight int) domain.CooccurrenceGraph {
	if minWeight < 1 {
		minWeight = 1
	}

	pairCounts := make(map[keywordPair]int)
	wordCounts := make(map[string]int)

	for _, p := range papers {
		for i, kw := range p.Keywords {
			if kw == "" {
				continue
			}

			wordCounts[kw]++

			for _, other := range p.Keywords[i+1:] {
				// Distinct positions holding the same keyword would form a
				// self-loop; skip them.
				if other == "" || other == kw {
					continue
				}

				pairCounts[orderedPair(kw, other)]++
			}
		}
	}

	edges := make([]domain.GraphEdge, 0, len(pairCounts))
	nodeSet := make(map[string]struct{})

	for pair, weight := range pairCounts {
		if weight < minWeight {
			continue
		}

		edges = append(edges, domain.GraphEdge{Source: pair.a, Target: pair.b, Weight: weight})
		nodeSet[pair.a] = struct{}{}
		nodeSet[pair.b] = struct{}{}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}

		return edges[i].Target < edges[j].Target
	})

	nodes := make([]domain.GraphNode, 0, len(nodeSet))

	for kw := range nodeSet {
		freq := wordCounts[kw]
		nodes = append(nodes, domain.GraphNode{
			ID:         kw,
			Name:       truncateWithEllipsis(kw, nodeNameRunes),
			Value:      freq,
			SymbolSize: math.Log(float64(freq)+1) * nodeSizeFactor,
		})
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})

	return domain.CooccurrenceGraph{Nodes: nodes, Edges: edges}
}
