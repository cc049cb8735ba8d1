package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"kgraph/internal/cli"
	"kgraph/internal/metrics"
	"kgraph/internal/server"
	"kgraph/internal/store"
)

const shutdownTimeout = 5 * time.Second

// runServe answers queries until ctx is cancelled, then shuts down
// gracefully.
func runServe(ctx context.Context, o cli.ServeOptions, log logrus.FieldLogger) error {
	st, err := store.Open(o.Store, true, log)
	if err != nil {
		return err
	}
	defer st.Close()
	meta, err := st.Meta()
	if err != nil {
		return errors.Wrapf(err, "store %s holds no graph", o.Store)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	m.GraphNodes.Set(float64(meta.Summary.Nodes))
	m.GraphEdges.Set(float64(meta.Summary.Edges))

	ln, err := net.Listen("tcp", o.Listen)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	srv := &http.Server{
		Handler:           server.New(st, log, m, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.WithFields(logrus.Fields{
		"action":      "serve_graph",
		"addr":        ln.Addr().String(),
		"k":           meta.K,
		"nodes":       meta.Summary.Nodes,
		"fingerprint": meta.Fingerprint,
	}).Info("serving graph")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	log.Info("server stopped")
	return nil
}
