// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kgraph/internal/bloom"
	"kgraph/internal/builder"
	"kgraph/internal/config"
	"kgraph/internal/graph"
	"kgraph/internal/merger"
	"kgraph/internal/metrics"
	"kgraph/internal/schedule"
	"kgraph/internal/sequence"
)

// filterMemoryFraction is the share of physical memory the live chunk
// filters may take before the run logs a warning.
const filterMemoryFraction = 0.5

// ChunkError is the failure of a single chunk.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string { return fmt.Sprintf("chunk %d: %v", e.Index, e.Err) }
func (e *ChunkError) Unwrap() error { return e.Err }

// Runner builds a final graph from materialized sequences: partition,
// build every chunk on a fixed worker pool, reduce, prune, freeze.
type Runner struct {
	Config  config.Config
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics // may be nil
	Builder ChunkBuilder     // nil means builder.Build
}

// Result is a completed run. Graph is frozen.
type Result struct {
	Graph  *graph.Graph
	Filter *bloom.Filter // union of chunk filters; nil unless keep_filter
	Report Report
}

// Err aggregates the chunk failures tolerated under best-effort, or nil.
func (r *Result) Err() error {
	var result *multierror.Error
	for _, f := range r.Report.failures {
		result = multierror.Append(result, f)
	}
	return result.ErrorOrNil()
}

type outcome struct {
	index int
	res   builder.Result
	err   error
}

// Run executes the pipeline over seqs. Under fail-fast the first chunk
// failure cancels the remaining work and is returned; under best-effort
// failed chunks are recorded in the report and the rest are merged.
// Cancelling ctx discards every partial graph and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, seqs []sequence.Sequence) (*Result, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := r.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	build := r.Builder
	if build == nil {
		build = BuildFunc(builder.Build)
	}

	started := time.Now()
	runID := uuid.NewString()
	log = log.WithFields(logrus.Fields{"action": "build_graph", "run_id": runID})

	chunks, err := schedule.Partition(seqs, cfg.ChunkSize, cfg.Unit())
	if err != nil {
		return nil, errors.Wrap(config.ErrInvalidConfig, err.Error())
	}
	opts := cfg.BuilderOptions()
	threads := cfg.Workers
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(chunks) {
		threads = max(len(chunks), 1)
	}
	if err := bloom.CheckFootprint(opts.FilterBits, threads, 1); err != nil {
		return nil, errors.Wrap(config.ErrInvalidConfig, err.Error())
	}
	if err := bloom.CheckFootprint(opts.FilterBits, threads, filterMemoryFraction); err != nil {
		log.WithError(err).Warn("chunk filters may exhaust memory")
	}
	log.WithFields(logrus.Fields{
		"sequences": len(seqs),
		"chunks":    len(chunks),
		"workers":   threads,
		"k":         cfg.K,
		"filter_m":  opts.FilterBits,
		"filter_h":  opts.FilterHashes,
	}).Info("starting graph construction")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan schedule.Chunk, threads*2)
	results := make(chan outcome, threads*2)

	// Workers
	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case c, ok := <-jobs:
					if !ok {
						return
					}
					res, err := buildSafe(runCtx, build, c, opts)
					select {
					case results <- outcome{index: c.Index, res: res, err: err}:
					case <-runCtx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector
	var (
		partials = make([]builder.Result, len(chunks))
		done     = make([]bool, len(chunks))
		failures []*ChunkError
		firstErr error
		cwg      sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for o := range results {
			if o.err != nil {
				if cerr := runCtx.Err(); cerr != nil && errors.Is(o.err, cerr) {
					continue
				}
				ce := &ChunkError{Index: o.index, Err: o.err}
				failures = append(failures, ce)
				r.Metrics.ChunkFailed()
				log.WithError(o.err).WithField("chunk", o.index).Warn("chunk failed")
				if cfg.FailurePolicy == config.FailFast && firstErr == nil {
					firstErr = ce
					cancel()
				}
				continue
			}
			st := o.res.Stats
			partials[o.index] = o.res
			done[o.index] = true
			r.Metrics.ChunkDone(st.Duration, st.Kmers, st.Skipped, st.Promoted)
			log.WithFields(logrus.Fields{
				"chunk":    st.Chunk,
				"kmers":    st.Kmers,
				"skipped":  st.Skipped,
				"promoted": st.Promoted,
				"took":     st.Duration,
			}).Debug("chunk built")
		}
	}()

	// Feed work
feed:
	for _, c := range chunks {
		select {
		case <-runCtx.Done():
			break feed
		case jobs <- c:
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("run cancelled, partial graphs discarded")
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	parts := make([]*graph.Graph, 0, len(chunks))
	stats := make([]builder.Stats, 0, len(chunks))
	var filter *bloom.Filter
	for i := range partials {
		if !done[i] {
			continue
		}
		parts = append(parts, partials[i].Graph)
		stats = append(stats, partials[i].Stats)
		if cfg.KeepFilter {
			if filter == nil {
				filter = bloom.NewWithParameters(opts.FilterBits, opts.FilterHashes)
			}
			if err := filter.Merge(partials[i].Filter); err != nil {
				return nil, err
			}
		}
		partials[i] = builder.Result{}
	}

	mergeStart := time.Now()
	var final *graph.Graph
	if cfg.Reduce == config.ReduceSequential {
		final, err = merger.Fold(cfg.K, parts)
	} else {
		final, err = merger.TreeReduce(ctx, cfg.K, parts, threads)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reduce partial graphs")
	}
	pruned := final.Prune(cfg.MinMultiplicity)
	final.Freeze()
	r.Metrics.Merged(time.Since(mergeStart), final.NodeCount(), final.EdgeCount())

	rep := Report{
		RunID:       runID,
		Started:     started,
		Duration:    time.Since(started),
		Chunks:      len(chunks),
		Succeeded:   len(parts),
		Stats:       stats,
		PrunedEdges: pruned,
		Summary:     final.Summary(),
		Fingerprint: graph.Fingerprint(final),
		failures:    failures,
	}
	for _, f := range failures {
		rep.Failed = append(rep.Failed, FailedChunk{Index: f.Index, Error: f.Err.Error()})
	}
	entry := log.WithFields(logrus.Fields{
		"nodes":       rep.Summary.Nodes,
		"edges":       rep.Summary.Edges,
		"failed":      len(rep.Failed),
		"fingerprint": rep.Fingerprint,
		"took":        rep.Duration,
	})
	if len(rep.Failed) > 0 {
		entry.Warn("graph built with failed chunks skipped")
	} else {
		entry.Info("graph built")
	}
	return &Result{Graph: final, Filter: filter, Report: rep}, nil
}

// buildSafe runs one chunk, turning a panic into that chunk's error.
func buildSafe(ctx context.Context, b ChunkBuilder, c schedule.Chunk, opts builder.Options) (res builder.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return b.Build(ctx, c, opts)
}
