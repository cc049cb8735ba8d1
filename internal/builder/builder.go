// internal/builder/builder.go
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"kgraph/internal/bloom"
	"kgraph/internal/graph"
	"kgraph/internal/kmer"
	"kgraph/internal/schedule"
	"kgraph/internal/sequence"
)

// ErrMalformedSequence fails the chunk holding a sequence with bytes that
// are not letters.
var ErrMalformedSequence = sequence.ErrMalformed

// Promotion decides when a k-mer becomes an edge.
type Promotion int

const (
	// SecondSighting promotes a k-mer the second time the chunk's filter
	// sees it, and on every sighting after that.
	SecondSighting Promotion = iota
	// FirstSighting promotes every valid k-mer. The filter still runs and
	// feeds Stats.Repeated.
	FirstSighting
)

func (p Promotion) String() string {
	switch p {
	case SecondSighting:
		return "second-sighting"
	case FirstSighting:
		return "first-sighting"
	}
	return fmt.Sprintf("Promotion(%d)", int(p))
}

// ParsePromotion maps a config value to a Promotion.
func ParsePromotion(s string) (Promotion, error) {
	switch s {
	case "", "second-sighting":
		return SecondSighting, nil
	case "first-sighting":
		return FirstSighting, nil
	}
	return 0, fmt.Errorf("unknown promotion %q (want second-sighting|first-sighting)", s)
}

// Options fixes everything that determines a chunk's partial graph.
type Options struct {
	K               int
	Canonicalize    bool
	Promotion       Promotion
	TrackProvenance bool
	FilterBits      uint // m
	FilterHashes    uint // h
}

// Stats are per-chunk diagnostics.
type Stats struct {
	Chunk     int
	Sequences int
	Bases     int
	Kmers     int // windows emitted
	Skipped   int // windows dropped for unsupported symbols
	Repeated  int // filter said "seen before"
	Promoted  int // k-mers that became edge observations
	Duration  time.Duration
}

// Result is one chunk's output. Filter is the chunk-local filter, handed
// back so callers can union it into a run-level filter.
type Result struct {
	Graph  *graph.Graph
	Filter *bloom.Filter
	Stats  Stats
}

// Build turns one chunk into a partial graph using a fresh chunk-local
// filter. For a fixed chunk and Options the output is deterministic.
//
// ctx is checked between sequences only.
func Build(ctx context.Context, c schedule.Chunk, opts Options) (Result, error) {
	if opts.K <= 0 {
		return Result{}, fmt.Errorf("builder: k must be positive, got %d", opts.K)
	}
	start := time.Now()
	g := graph.New(opts.K)
	f := bloom.NewWithParameters(opts.FilterBits, opts.FilterHashes)
	ex := kmer.Extractor{K: opts.K, Canonical: opts.Canonicalize}
	st := Stats{Chunk: c.Index}

	for _, s := range c.Sequences {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := s.Validate(); err != nil {
			return Result{}, errors.Wrapf(err, "chunk %d", c.Index)
		}
		bases := kmer.Normalize(s.Bases)
		label := ""
		if opts.TrackProvenance {
			label = s.Label
		}
		emitted, skipped := kmer.Count(bases, opts.K)
		st.Sequences++
		st.Bases += len(bases)
		st.Kmers += emitted
		st.Skipped += skipped

		for _, km := range ex.All(bases) {
			seen := f.Insert(km)
			if seen {
				st.Repeated++
			}
			if seen || opts.Promotion == FirstSighting {
				g.AddKmer(km, label)
				st.Promoted++
			}
		}
	}
	st.Duration = time.Since(start)
	return Result{Graph: g, Filter: f, Stats: st}, nil
}
