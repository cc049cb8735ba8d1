// internal/graph/graph.go
package graph

import (
	"sort"
)

// Node is the accumulated state of one (k-1)-mer.
type Node struct {
	Count   uint64
	Sources Provenance
}

// EdgeKey identifies an edge by its node pair. Distinct k-mers that induce
// the same pair accumulate into one edge.
type EdgeKey struct {
	From, To string
}

// Edge is the accumulated state of one prefix -> suffix transition.
type Edge struct {
	Multiplicity uint64
	Sources      Provenance
}

// Graph is a content-keyed de Bruijn graph. Nodes are (k-1)-mers, edges are
// keyed by (prefix, suffix). A Graph is owned by one goroutine at a time;
// once frozen it is read-only and may be shared.
type Graph struct {
	k      int
	nodes  map[string]*Node
	edges  map[EdgeKey]*Edge
	frozen bool
}

// New returns an empty graph for window length k. The empty graph is the
// identity of Merge.
func New(k int) *Graph {
	return &Graph{
		k:     k,
		nodes: make(map[string]*Node),
		edges: make(map[EdgeKey]*Edge),
	}
}

func (g *Graph) K() int         { return g.k }
func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }
func (g *Graph) Frozen() bool   { return g.frozen }

// Freeze makes g immutable. Any later mutation panics.
func (g *Graph) Freeze() { g.frozen = true }

func (g *Graph) mustBeMutable() {
	if g.frozen {
		panic("graph: mutation of frozen graph")
	}
}

// Node looks up a node by content.
func (g *Graph) Node(seq string) (Node, bool) {
	n, ok := g.nodes[seq]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge looks up an edge by its node pair.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	e, ok := g.edges[EdgeKey{from, to}]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// AddKmer records one promoted k-mer: both endpoint nodes gain one
// observation and the prefix -> suffix edge gains one unit of
// multiplicity. An empty source records no provenance.
func (g *Graph) AddKmer(km []byte, source string) {
	g.mustBeMutable()
	prefix := string(km[:len(km)-1])
	suffix := string(km[1:])
	g.addNode(prefix, 1, source, nil)
	g.addNode(suffix, 1, source, nil)
	g.addEdge(EdgeKey{prefix, suffix}, 1, source, nil)
}

// AddNode accumulates count and sources into the node seq, creating it when
// absent. Readers use it to rebuild a graph from its serialized form.
func (g *Graph) AddNode(seq string, count uint64, sources Provenance) {
	g.mustBeMutable()
	g.addNode(seq, count, "", sources)
}

// AddEdge accumulates multiplicity and sources into the edge from -> to.
// Endpoint nodes are not created.
func (g *Graph) AddEdge(from, to string, multiplicity uint64, sources Provenance) {
	g.mustBeMutable()
	g.addEdge(EdgeKey{from, to}, multiplicity, "", sources)
}

func (g *Graph) addNode(seq string, count uint64, label string, sources Provenance) {
	n, ok := g.nodes[seq]
	if !ok {
		n = &Node{}
		g.nodes[seq] = n
	}
	n.Count += count
	n.Sources = n.Sources.Add(label).Union(sources)
}

func (g *Graph) addEdge(key EdgeKey, mult uint64, label string, sources Provenance) {
	e, ok := g.edges[key]
	if !ok {
		e = &Edge{}
		g.edges[key] = e
	}
	e.Multiplicity += mult
	e.Sources = e.Sources.Add(label).Union(sources)
}

// NodeEntry is a node together with its content.
type NodeEntry struct {
	Seq string
	Node
}

// EdgeEntry is an edge together with its endpoints.
type EdgeEntry struct {
	EdgeKey
	Edge
}

// Kmer is the k-mer label that induced the edge: the prefix extended by the
// suffix's last base.
func (e EdgeEntry) Kmer() string {
	if e.To == "" {
		return e.From
	}
	return e.From + e.To[len(e.To)-1:]
}

// Nodes returns every node sorted by content.
func (g *Graph) Nodes() []NodeEntry {
	out := make([]NodeEntry, 0, len(g.nodes))
	for seq, n := range g.nodes {
		out = append(out, NodeEntry{Seq: seq, Node: *n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Edges returns every edge sorted by (from, to).
func (g *Graph) Edges() []EdgeEntry {
	out := make([]EdgeEntry, 0, len(g.edges))
	for key, e := range g.edges {
		out = append(out, EdgeEntry{EdgeKey: key, Edge: *e})
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].EdgeKey, out[j].EdgeKey) })
	return out
}

func lessKey(a, b EdgeKey) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}

// Successors returns the outgoing edges of seq sorted by target.
func (g *Graph) Successors(seq string) []EdgeEntry {
	var out []EdgeEntry
	for key, e := range g.edges {
		if key.From == seq {
			out = append(out, EdgeEntry{EdgeKey: key, Edge: *e})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}

// Prune drops edges with multiplicity below min, then nodes no longer
// touched by any edge. It returns the number of edges removed. Node counts
// of surviving nodes are left as they were.
func (g *Graph) Prune(min uint64) int {
	g.mustBeMutable()
	if min <= 1 {
		return 0
	}
	removed := 0
	for key, e := range g.edges {
		if e.Multiplicity < min {
			delete(g.edges, key)
			removed++
		}
	}
	if removed == 0 {
		return 0
	}
	touched := make(map[string]struct{}, len(g.nodes))
	for key := range g.edges {
		touched[key.From] = struct{}{}
		touched[key.To] = struct{}{}
	}
	for seq := range g.nodes {
		if _, ok := touched[seq]; !ok {
			delete(g.nodes, seq)
		}
	}
	return removed
}

// Clone returns a mutable deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		k:     g.k,
		nodes: make(map[string]*Node, len(g.nodes)),
		edges: make(map[EdgeKey]*Edge, len(g.edges)),
	}
	for seq, n := range g.nodes {
		cp := *n
		out.nodes[seq] = &cp
	}
	for key, e := range g.edges {
		cp := *e
		out.edges[key] = &cp
	}
	return out
}

// Summary holds the scalar view of a graph handed to reporters.
type Summary struct {
	K                 int
	Nodes             int
	Edges             int
	TotalCount        uint64
	TotalMultiplicity uint64
	SharedNodes       int
	SharedEdges       int
	Sources           []string
}

// PrivateNodes is the number of nodes seen in at most one source.
func (s Summary) PrivateNodes() int { return s.Nodes - s.SharedNodes }

// PrivateEdges is the number of edges seen in at most one source.
func (s Summary) PrivateEdges() int { return s.Edges - s.SharedEdges }

// Summary computes the scalar view of g.
func (g *Graph) Summary() Summary {
	s := Summary{K: g.k, Nodes: len(g.nodes), Edges: len(g.edges)}
	var all Provenance
	for _, n := range g.nodes {
		s.TotalCount += n.Count
		if n.Sources.Shared() {
			s.SharedNodes++
		}
		all = all.Union(n.Sources)
	}
	for _, e := range g.edges {
		s.TotalMultiplicity += e.Multiplicity
		if e.Sources.Shared() {
			s.SharedEdges++
		}
	}
	s.Sources = []string(all)
	return s
}
