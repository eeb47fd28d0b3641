package graph

import (
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/ziadkadry99/flowgraph/internal/chat"
)

// ComputeMetrics derives node, edge and cyclomatic counts from DOT source.
// Only edges contribute: a node that is declared but never connected does
// not count, and repeated edges between the same pair count once.
// Cyclomatic complexity is E - N + 2.
func ComputeMetrics(code string) (chat.Metrics, error) {
	g, err := Parse(code)
	if err != nil {
		return chat.Metrics{}, err
	}
	return MetricsOf(g), nil
}

// MetricsOf computes metrics for an already parsed graph. The edges are
// loaded into a directed graph that keeps self-loops and holds at most one
// line per ordered pair.
func MetricsOf(g *Graph) chat.Metrics {
	dg := multi.NewDirectedGraph()
	ids := map[string]gonum.Node{}
	node := func(name string) gonum.Node {
		n, ok := ids[name]
		if !ok {
			n = dg.NewNode()
			dg.AddNode(n)
			ids[name] = n
		}
		return n
	}
	for _, e := range g.Edges {
		from, to := node(e.From), node(e.To)
		if dg.HasEdgeFromTo(from.ID(), to.ID()) {
			continue
		}
		dg.SetLine(dg.NewLine(from, to))
	}

	n := len(gonum.NodesOf(dg.Nodes()))
	m := len(gonum.EdgesOf(dg.Edges()))
	return chat.Metrics{
		Nodes:      n,
		Edges:      m,
		Cyclomatic: m - n + 2,
	}
}
