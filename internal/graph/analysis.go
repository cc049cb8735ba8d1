package graph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Analysis describes the shape of a graph: how it falls apart into weakly
// connected pieces and how much of it sits on cycles.
type Analysis struct {
	Components       int // weakly connected components
	LargestComponent int // nodes in the largest one
	CyclicNodes      int // nodes in a strongly connected component of size > 1
	SelfLoops        int
	Tips             int // nodes with exactly one incident edge
}

// Analyze computes g's Analysis with gonum's topology routines.
func Analyze(g *Graph) Analysis {
	var a Analysis
	ids := make(map[string]int64, len(g.nodes))
	dg := simple.NewDirectedGraph()
	ug := simple.NewUndirectedGraph()
	for _, n := range g.Nodes() {
		id := int64(len(ids))
		ids[n.Seq] = id
		dg.AddNode(simple.Node(id))
		ug.AddNode(simple.Node(id))
	}
	for key := range g.edges {
		f, fok := ids[key.From]
		t, tok := ids[key.To]
		if !fok || !tok {
			continue
		}
		if f == t {
			a.SelfLoops++
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
		ug.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
	}

	for _, cc := range topo.ConnectedComponents(ug) {
		a.Components++
		if len(cc) > a.LargestComponent {
			a.LargestComponent = len(cc)
		}
	}
	for _, scc := range topo.TarjanSCC(dg) {
		if len(scc) > 1 {
			a.CyclicNodes += len(scc)
		}
	}
	// A->B and B->A share one undirected edge, so B is still a tip.
	for _, id := range ids {
		if ug.From(id).Len() == 1 {
			a.Tips++
		}
	}
	return a
}
