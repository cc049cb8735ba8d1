package pipeline

import (
	"time"

	"kgraph/internal/builder"
	"kgraph/internal/graph"
)

// Report describes one run for diagnostics. It is not part of the graph.
type Report struct {
	RunID       string
	Started     time.Time
	Duration    time.Duration
	Chunks      int
	Succeeded   int
	Failed      []FailedChunk // best-effort only
	Stats       []builder.Stats
	PrunedEdges int
	Summary     graph.Summary
	Fingerprint string

	failures []*ChunkError
}

// FailedChunk is a chunk skipped under best-effort.
type FailedChunk struct {
	Index int
	Error string
}

// Totals sums per-chunk statistics.
func (r Report) Totals() builder.Stats {
	var t builder.Stats
	t.Chunk = -1
	for _, s := range r.Stats {
		t.Sequences += s.Sequences
		t.Bases += s.Bases
		t.Kmers += s.Kmers
		t.Skipped += s.Skipped
		t.Repeated += s.Repeated
		t.Promoted += s.Promoted
		t.Duration += s.Duration
	}
	return t
}
