// internal/writers/convert.go
package writers

import (
	"fmt"

	"kgraph/internal/graph"
	"kgraph/pkg/api"
)

// ToAPISummary converts a graph summary to the stable wire schema (v1).
func ToAPISummary(s graph.Summary) api.SummaryV1 {
	return api.SummaryV1{
		K:                 s.K,
		Nodes:             s.Nodes,
		Edges:             s.Edges,
		TotalCount:        s.TotalCount,
		TotalMultiplicity: s.TotalMultiplicity,
		SharedNodes:       s.SharedNodes,
		SharedEdges:       s.SharedEdges,
		Sources:           append([]string(nil), s.Sources...),
	}
}

// ToAPINode converts one node entry.
func ToAPINode(n graph.NodeEntry) api.NodeV1 {
	return api.NodeV1{Seq: n.Seq, Count: n.Count, Sources: append([]string(nil), n.Sources...)}
}

// ToAPIEdge converts one edge entry, including its k-mer.
func ToAPIEdge(e graph.EdgeEntry) api.EdgeV1 {
	return api.EdgeV1{
		From:         e.From,
		To:           e.To,
		Kmer:         e.Kmer(),
		Multiplicity: e.Multiplicity,
		Sources:      append([]string(nil), e.Sources...),
	}
}

// ToAPI converts g to the stable wire schema (v1), sorted.
func ToAPI(g *graph.Graph) api.GraphV1 {
	nodes := g.Nodes()
	edges := g.Edges()
	v := api.GraphV1{
		Version: api.Version,
		K:       g.K(),
		Summary: ToAPISummary(g.Summary()),
		Nodes:   make([]api.NodeV1, 0, len(nodes)),
		Edges:   make([]api.EdgeV1, 0, len(edges)),
	}
	for _, n := range nodes {
		v.Nodes = append(v.Nodes, ToAPINode(n))
	}
	for _, e := range edges {
		v.Edges = append(v.Edges, ToAPIEdge(e))
	}
	return v
}

// FromAPI rebuilds a mutable graph from its wire form. Duplicate entries
// accumulate, so concatenated dumps merge naturally.
func FromAPI(v api.GraphV1) (*graph.Graph, error) {
	if v.Version != api.Version {
		return nil, fmt.Errorf("unsupported graph version %d", v.Version)
	}
	if v.K <= 0 {
		return nil, fmt.Errorf("invalid k %d", v.K)
	}
	g := graph.New(v.K)
	for _, n := range v.Nodes {
		if len(n.Seq) != v.K-1 {
			return nil, fmt.Errorf("node %q: length %d, want %d", n.Seq, len(n.Seq), v.K-1)
		}
		g.AddNode(n.Seq, n.Count, graph.NewProvenance(n.Sources...))
	}
	for _, e := range v.Edges {
		if _, ok := g.Node(e.From); !ok {
			return nil, fmt.Errorf("edge %s->%s: unknown source node", e.From, e.To)
		}
		if _, ok := g.Node(e.To); !ok {
			return nil, fmt.Errorf("edge %s->%s: unknown target node", e.From, e.To)
		}
		g.AddEdge(e.From, e.To, e.Multiplicity, graph.NewProvenance(e.Sources...))
	}
	return g, nil
}
