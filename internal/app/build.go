package app

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"kgraph/internal/cli"
	"kgraph/internal/cmdutil"
	"kgraph/internal/fasta"
	"kgraph/internal/graph"
	"kgraph/internal/metrics"
	"kgraph/internal/pipeline"
	"kgraph/internal/store"
	"kgraph/internal/writers"
	"kgraph/pkg/api"
)

func runBuild(ctx context.Context, o cli.BuildOptions, stdout io.Writer, log logrus.FieldLogger) error {
	cfg, err := o.Resolve()
	if err != nil {
		return err
	}
	inputs, err := cli.ExpandInputs(o.Args.Inputs)
	if err != nil {
		return errors.Wrap(cmdutil.ErrUsage, err.Error())
	}

	seqs, err := fasta.ReadAll(ctx, inputs, fasta.Options{
		Label:   o.Label,
		Window:  o.Window,
		Overlap: cfg.K - 1,
	})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"inputs": len(inputs), "sequences": len(seqs)}).Debug("inputs read")

	reg := prometheus.NewRegistry()
	runner := pipeline.Runner{Config: cfg, Logger: log, Metrics: metrics.New(reg)}
	res, err := runner.Run(ctx, seqs)
	if err != nil {
		return err
	}
	if o.Metrics != "" {
		if err := prometheus.WriteToTextfile(o.Metrics, reg); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}

	info := store.Info{RunID: res.Report.RunID, Canonical: cfg.Canonicalize}
	if err := writeGraph(o.OutputOptions, stdout, res.Graph, res.Filter, info, log); err != nil {
		return err
	}
	if o.Report != "" {
		rep := toReportV1(res.Report, graph.Analyze(res.Graph))
		if err := writeFile(o.Report, stdout, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}); err != nil {
			return err
		}
	}
	return nil
}

func toReportV1(r pipeline.Report, a graph.Analysis) api.ReportV1 {
	t := r.Totals()
	v := api.ReportV1{
		RunID:       r.RunID,
		Started:     r.Started.UTC().Format(time.RFC3339),
		DurationMS:  r.Duration.Milliseconds(),
		Chunks:      r.Chunks,
		Succeeded:   r.Succeeded,
		Kmers:       t.Kmers,
		Skipped:     t.Skipped,
		Promoted:    t.Promoted,
		PrunedEdges: r.PrunedEdges,
		Fingerprint: r.Fingerprint,
		Summary:     writers.ToAPISummary(r.Summary),
		Analysis: &api.AnalysisV1{
			Components:       a.Components,
			LargestComponent: a.LargestComponent,
			CyclicNodes:      a.CyclicNodes,
			SelfLoops:        a.SelfLoops,
			Tips:             a.Tips,
		},
	}
	for _, f := range r.Failed {
		v.Failed = append(v.Failed, api.FailedChunkV1{Index: f.Index, Error: f.Error})
	}
	return v
}
