package app

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kgraph/internal/cli"
	"kgraph/internal/cmdutil"
	"kgraph/internal/config"
	"kgraph/internal/fasta"
	"kgraph/internal/graph"
	"kgraph/internal/merger"
	"kgraph/internal/store"
	"kgraph/internal/writers"
)

// inputFormat picks --input-format, else a readable format named by the
// extension, else json.
func inputFormat(o cli.MergeOptions, path string) string {
	if o.InputFormat != "" {
		return o.InputFormat
	}
	if f := writers.FormatFromPath(path); f != "" {
		if _, ok := writers.GraphReaders[f]; ok {
			return f
		}
	}
	return "json"
}

func readGraph(ctx context.Context, path, format string) (*graph.Graph, error) {
	rc, err := fasta.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	g, err := writers.ReadGraph(format, rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return g, nil
}

func runMerge(ctx context.Context, o cli.MergeOptions, stdout io.Writer, log logrus.FieldLogger) error {
	paths, err := cli.ExpandInputs(o.Args.Graphs)
	if err != nil {
		return errors.Wrap(cmdutil.ErrUsage, err.Error())
	}
	runID := uuid.NewString()
	log = log.WithFields(logrus.Fields{"action": "merge_graphs", "run_id": runID})

	parts := make([]*graph.Graph, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, err := readGraph(ctx, p, inputFormat(o, p))
		if err != nil {
			return err
		}
		if len(parts) > 0 && g.K() != parts[0].K() {
			return errors.Wrapf(graph.ErrIncompatibleK, "%s has k=%d, %s has k=%d", p, g.K(), paths[0], parts[0].K())
		}
		parts = append(parts, g)
	}

	start := time.Now()
	k := parts[0].K()
	var final *graph.Graph
	if o.Reduce == config.ReduceSequential {
		final, err = merger.Fold(k, parts)
	} else {
		final, err = merger.TreeReduce(ctx, k, parts, o.Workers)
	}
	if err != nil {
		return err
	}
	pruned := final.Prune(o.MinMultiplicity)
	final.Freeze()
	log.WithFields(logrus.Fields{
		"graphs":      len(parts),
		"nodes":       final.NodeCount(),
		"edges":       final.EdgeCount(),
		"pruned":      pruned,
		"fingerprint": graph.Fingerprint(final),
		"took":        time.Since(start),
	}).Info("graphs merged")

	return writeGraph(o.OutputOptions, stdout, final, nil, store.Info{RunID: runID}, log)
}
