package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/lueurxax/lit-review-engine/internal/core/domain"
)

func kwPaper(id string, keywords ...string) domain.Paper {
	return domain.Paper{ID: id, Keywords: keywords}
}

func TestBuildCooccurrenceGraph(t *testing.T) {
	papers := []domain.Paper{
		kwPaper("p1", "治理", "数字化", "平台"),
		kwPaper("p2", "治理", "数字化"),
		kwPaper("p3", "乡村"),
	}

	graph := BuildCooccurrenceGraph(papers, 1)

	// Pairs: (治理,数字化)x2, (治理,平台), (数字化,平台). 乡村 has no pair.
	if len(graph.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(graph.Edges))
	}

	if len(graph.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(graph.Nodes))
	}

	for _, n := range graph.Nodes {
		if n.ID == "乡村" {
			t.Error("isolated keyword must not become a node")
		}
	}

	weights := make(map[string]int)
	for _, e := range graph.Edges {
		weights[e.Source+"|"+e.Target] = e.Weight
	}

	if weights["数字化|治理"] != 2 {
		t.Errorf("weight(数字化,治理) = %d, want 2", weights["数字化|治理"])
	}
}

func TestBuildCooccurrenceGraph_NoSelfLoops(t *testing.T) {
	papers := []domain.Paper{
		kwPaper("p1", "治理", "治理", "数字化"),
	}

	graph := BuildCooccurrenceGraph(papers, 1)

	for _, e := range graph.Edges {
		if e.Source == e.Target {
			t.Errorf("self loop on %q", e.Source)
		}
	}
}

func TestBuildCooccurrenceGraph_MinWeightThreshold(t *testing.T) {
	papers := []domain.Paper{
		kwPaper("p1", "a", "b"),
		kwPaper("p2", "a", "b"),
		kwPaper("p3", "a", "c"),
	}

	graph := BuildCooccurrenceGraph(papers, 2)

	if len(graph.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(graph.Edges))
	}

	if graph.Edges[0].Source != "a" || graph.Edges[0].Target != "b" {
		t.Errorf("surviving edge = %+v, want a-b", graph.Edges[0])
	}

	// c's only edge fell below the threshold, so c must not be a node.
	if len(graph.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(graph.Nodes))
	}
}

func TestBuildCooccurrenceGraph_NodeDisplay(t *testing.T) {
	long := strings.Repeat("字", 15)
	papers := []domain.Paper{
		kwPaper("p1", long, "b"),
		kwPaper("p2", long, "b"),
		kwPaper("p3", long, "b"),
	}

	graph := BuildCooccurrenceGraph(papers, 1)

	var node domain.GraphNode

	for _, n := range graph.Nodes {
		if n.ID == long {
			node = n
		}
	}

	if node.ID == "" {
		t.Fatal("long keyword node missing")
	}

	wantName := strings.Repeat("字", 12) + "…"
	if node.Name != wantName {
		t.Errorf("node name = %q, want %q", node.Name, wantName)
	}

	if node.Value != 3 {
		t.Errorf("node value = %d, want 3", node.Value)
	}

	wantSize := math.Log(4) * 5
	if math.Abs(node.SymbolSize-wantSize) > 1e-9 {
		t.Errorf("symbol size = %v, want %v", node.SymbolSize, wantSize)
	}
}

func TestBuildCooccurrenceGraph_Deterministic(t *testing.T) {
	papers := []domain.Paper{
		kwPaper("p1", "c", "a", "b"),
		kwPaper("p2", "b", "a"),
	}

	first := BuildCooccurrenceGraph(papers, 1)

	for i := 0; i < 5; i++ {
		again := BuildCooccurrenceGraph(papers, 1)

		if len(again.Edges) != len(first.Edges) || len(again.Nodes) != len(first.Nodes) {
			t.Fatal("graph shape changed between runs")
		}

		for j := range first.Edges {
			if first.Edges[j] != again.Edges[j] {
				t.Fatalf("edge order changed: %+v vs %+v", first.Edges[j], again.Edges[j])
			}
		}

		for j := range first.Nodes {
			if first.Nodes[j] != again.Nodes[j] {
				t.Fatalf("node order changed: %+v vs %+v", first.Nodes[j], again.Nodes[j])
			}
		}
	}
}
