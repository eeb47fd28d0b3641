package graph

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"
)

var (
	// ErrEmpty is returned for blank DOT input.
	ErrEmpty = errors.New("empty graph source")
	// ErrNoDigraph is returned when a response contains no digraph block.
	ErrNoDigraph = errors.New("no digraph found")
	// ErrUnbalanced is returned when the digraph block never closes.
	ErrUnbalanced = errors.New("unbalanced braces")
	// ErrSyntax wraps every DOT parse failure.
	ErrSyntax = errors.New("invalid DOT syntax")
)

// Edge is a directed connection between two node names.
type Edge struct {
	From string
	To   string
}

// Graph is the structural skeleton of a DOT document: enough to count nodes
// and edges, not enough to lay it out.
type Graph struct {
	Name     string
	Directed bool
	Strict   bool
	// Nodes lists every node name in first-seen order, including nodes that
	// only appear in node statements.
	Nodes []string
	Edges []Edge
}

// Parse reads the first graph of a DOT document. Node names are the node
// id with any port kept (`a:s` and `a` are different nodes) and surrounding
// quotes trimmed, so `"a"` and `a` are the same node.
func Parse(src string) (*Graph, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmpty
	}
	// Models like to close with "};", which the grammar has no room for.
	src = strings.TrimRight(src, "; \t\r\n")

	file, err := dot.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(file.Graphs) == 0 {
		return nil, fmt.Errorf("%w: no graph in source", ErrSyntax)
	}

	ag := file.Graphs[0]
	w := &walker{
		g:    &Graph{Name: strings.Trim(ag.ID, `"`), Directed: ag.Directed, Strict: ag.Strict},
		seen: map[string]bool{},
	}
	w.stmts(ag.Stmts)
	return w.g, nil
}

// walker collects nodes and edges from the parsed statements. Subgraphs
// used as edge endpoints stand for every node they mention.
type walker struct {
	g    *Graph
	seen map[string]bool
}

func (w *walker) stmts(stmts []ast.Stmt) []string {
	var members []string
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.NodeStmt:
			members = append(members, w.node(s.Node))
		case *ast.EdgeStmt:
			members = append(members, w.edges(s)...)
		case *ast.Subgraph:
			members = append(members, w.stmts(s.Stmts)...)
		}
	}
	return members
}

func (w *walker) edges(s *ast.EdgeStmt) []string {
	left := w.vertex(s.From)
	all := append([]string(nil), left...)
	for e := s.To; e != nil; e = e.To {
		right := w.vertex(e.Vertex)
		for _, from := range left {
			for _, to := range right {
				w.g.Edges = append(w.g.Edges, Edge{From: from, To: to})
			}
		}
		all = append(all, right...)
		left = right
	}
	return all
}

func (w *walker) vertex(v ast.Vertex) []string {
	switch v := v.(type) {
	case *ast.Node:
		return []string{w.node(v)}
	case *ast.Subgraph:
		return w.stmts(v.Stmts)
	}
	return nil
}

func (w *walker) node(n *ast.Node) string {
	name := n.ID
	if n.Port != nil {
		name += n.Port.String()
	}
	name = strings.Trim(name, `"`)
	if !w.seen[name] {
		w.seen[name] = true
		w.g.Nodes = append(w.g.Nodes, name)
	}
	return name
}
