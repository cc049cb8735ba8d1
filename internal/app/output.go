package app

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kgraph/internal/bloom"
	"kgraph/internal/cli"
	"kgraph/internal/cmdutil"
	"kgraph/internal/graph"
	"kgraph/internal/store"
	"kgraph/internal/writers"
)

// outputFormat picks --format, else the --output extension, else tsv.
func outputFormat(o cli.OutputOptions) string {
	if o.Format != "" {
		return o.Format
	}
	if f := writers.FormatFromPath(o.Output); f != "" {
		return f
	}
	return "tsv"
}

// writeGraph writes g to o.Output ('-' is stdout); a .gz path is
// compressed. It then saves g into o.Store when one is given.
func writeGraph(o cli.OutputOptions, stdout io.Writer, g *graph.Graph, filter *bloom.Filter, info store.Info, log logrus.FieldLogger) error {
	format := outputFormat(o)
	if _, ok := writers.GraphWriters[format]; !ok {
		return errors.Wrapf(cmdutil.ErrUsage, "unknown output format %q", format)
	}
	if err := writeFile(o.Output, stdout, func(w io.Writer) error {
		return writers.WriteGraph(format, w, g)
	}); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"output": o.Output, "format": format}).Debug("graph written")

	if o.Store == "" {
		return nil
	}
	st, err := store.Open(o.Store, false, log)
	if err != nil {
		return err
	}
	if err := st.Save(g, filter, info); err != nil {
		_ = st.Close()
		return err
	}
	return st.Close()
}

func writeFile(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}
	if err := write(w); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
