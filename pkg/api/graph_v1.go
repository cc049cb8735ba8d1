// pkg/api/graph_v1.go
package api

// Version is the value of GraphV1.Version written by this package.
const Version = 1

// GraphV1 is the stable JSON/msgpack schema for a complete graph.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
// Nodes are sorted by Seq and edges by (From, To).
type GraphV1 struct {
	Version int       `json:"version" msgpack:"version"`
	K       int       `json:"k" msgpack:"k"`
	Summary SummaryV1 `json:"summary" msgpack:"summary"`
	Nodes   []NodeV1  `json:"nodes" msgpack:"nodes"`
	Edges   []EdgeV1  `json:"edges" msgpack:"edges"`
}

// NodeV1 is one (k-1)-mer.
type NodeV1 struct {
	Seq     string   `json:"seq" msgpack:"seq"`
	Count   uint64   `json:"count" msgpack:"count"`
	Sources []string `json:"sources,omitempty" msgpack:"sources,omitempty"`
}

// EdgeV1 is one prefix -> suffix transition. Kmer is derived from From and
// To and is informational only.
type EdgeV1 struct {
	From         string   `json:"from" msgpack:"from"`
	To           string   `json:"to" msgpack:"to"`
	Kmer         string   `json:"kmer" msgpack:"kmer"`
	Multiplicity uint64   `json:"multiplicity" msgpack:"multiplicity"`
	Sources      []string `json:"sources,omitempty" msgpack:"sources,omitempty"`
}

// SummaryV1 holds the scalar view of a graph.
type SummaryV1 struct {
	K                 int      `json:"k" msgpack:"k"`
	Nodes             int      `json:"nodes" msgpack:"nodes"`
	Edges             int      `json:"edges" msgpack:"edges"`
	TotalCount        uint64   `json:"total_count" msgpack:"total_count"`
	TotalMultiplicity uint64   `json:"total_multiplicity" msgpack:"total_multiplicity"`
	SharedNodes       int      `json:"shared_nodes" msgpack:"shared_nodes"`
	SharedEdges       int      `json:"shared_edges" msgpack:"shared_edges"`
	Sources           []string `json:"sources,omitempty" msgpack:"sources,omitempty"`
}

// RecordV1 is one JSONL line: exactly one of Summary, Node, Edge is set,
// matching Type ("summary" | "node" | "edge").
type RecordV1 struct {
	Type    string     `json:"type"`
	Summary *SummaryV1 `json:"summary,omitempty"`
	Node    *NodeV1    `json:"node,omitempty"`
	Edge    *EdgeV1    `json:"edge,omitempty"`
}
