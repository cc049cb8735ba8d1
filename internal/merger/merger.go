// internal/merger/merger.go
package merger

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"kgraph/internal/graph"
)

// Fold merges parts left to right into a new graph. parts are not modified.
// An empty parts yields graph.New(k).
func Fold(k int, parts []*graph.Graph) (*graph.Graph, error) {
	acc := graph.New(k)
	for i, p := range parts {
		if err := graph.MergeInto(acc, p); err != nil {
			return nil, fmt.Errorf("fold part %d: %w", i, err)
		}
	}
	return acc, nil
}

// TreeReduce merges parts pairwise, level by level, running up to workers
// merges at once (workers <= 0 means one per pair). The result equals
// Fold(k, parts). parts are not modified; cancelling ctx abandons the
// reduction and returns ctx.Err().
func TreeReduce(ctx context.Context, k int, parts []*graph.Graph, workers int) (*graph.Graph, error) {
	if len(parts) == 0 {
		return graph.New(k), nil
	}
	for _, p := range parts {
		if p.K() != k {
			return nil, fmt.Errorf("tree reduce: %w", graph.ErrIncompatibleK)
		}
	}
	level := parts
	owned := false // level holds graphs we allocated and may mutate
	for len(level) > 1 {
		next := make([]*graph.Graph, (len(level)+1)/2)
		eg, ectx := errgroup.WithContext(ctx)
		if workers > 0 {
			eg.SetLimit(workers)
		}
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next[i/2] = level[i]
				continue
			}
			goSafe(eg, func() error {
				if err := ectx.Err(); err != nil {
					return err
				}
				if owned {
					if err := graph.MergeInto(level[i], level[i+1]); err != nil {
						return err
					}
					next[i/2] = level[i]
					return nil
				}
				m, err := graph.Merge(level[i], level[i+1])
				next[i/2] = m
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if !owned && len(level)%2 == 1 {
			// the carried tail is still a caller's graph
			next[len(next)-1] = next[len(next)-1].Clone()
		}
		level, owned = next, true
	}
	if !owned {
		return level[0].Clone(), nil
	}
	return level[0], nil
}

// goSafe runs f in eg, turning a panic into an error.
func goSafe(eg *errgroup.Group, f func() error) {
	eg.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic during merge: %v\n%s", r, debug.Stack())
			}
		}()
		return f()
	})
}
