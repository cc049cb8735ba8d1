// internal/server/server.go
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"kgraph/internal/bloom"
	"kgraph/internal/graph"
	"kgraph/internal/kmer"
	"kgraph/internal/metrics"
	"kgraph/internal/store"
	"kgraph/internal/writers"
	"kgraph/pkg/api"
)

// Querier is the read side of a graph store.
type Querier interface {
	Meta() (store.Meta, error)
	Node(seq string) (graph.Node, error)
	Successors(seq string) ([]graph.EdgeEntry, error)
	Filter() (*bloom.Filter, error)
}

type handler struct {
	q       Querier
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	filterOnce sync.Once
	filter     *bloom.Filter
	filterErr  error
}

// New returns the read-only query API over q. gatherer backs /metrics and
// may be nil.
func New(q Querier, logger logrus.FieldLogger, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	h := &handler{q: q, log: logger.WithField("action", "serve_graph"), metrics: m}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, "health", http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/summary", h.summary)
	r.Get("/nodes/{seq}", h.node)
	r.Get("/nodes/{seq}/successors", h.successors)
	r.Get("/kmers/{kmer}/seen", h.seen)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *handler) writeJSON(w http.ResponseWriter, route string, status int, v any) {
	h.metrics.Query(route, strconv.Itoa(status))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).WithField("route", route).Debug("write response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, route string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	default:
		h.log.WithError(err).WithField("route", route).Error("query failed")
	}
	h.writeJSON(w, route, status, api.ErrorV1{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

// nodeParam reads {seq} and upper-cases it the way the builder does.
func nodeParam(r *http.Request) string {
	return string(kmer.Normalize([]byte(chi.URLParam(r, "seq"))))
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	meta, err := h.q.Meta()
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}
	h.writeJSON(w, "summary", http.StatusOK, api.StoreInfoV1{
		K:           meta.K,
		RunID:       meta.RunID,
		Fingerprint: meta.Fingerprint,
		Canonical:   meta.Canonical,
		HasFilter:   meta.HasFilter,
		Summary:     writers.ToAPISummary(meta.Summary),
	})
}

func (h *handler) node(w http.ResponseWriter, r *http.Request) {
	seq := nodeParam(r)
	n, err := h.q.Node(seq)
	if err != nil {
		h.writeError(w, "node", errors.Wrapf(err, "node %q", seq))
		return
	}
	h.writeJSON(w, "node", http.StatusOK, writers.ToAPINode(graph.NodeEntry{Seq: seq, Node: n}))
}

func (h *handler) successors(w http.ResponseWriter, r *http.Request) {
	seq := nodeParam(r)
	edges, err := h.q.Successors(seq)
	if err != nil {
		h.writeError(w, "successors", errors.Wrapf(err, "node %q", seq))
		return
	}
	out := make([]api.EdgeV1, 0, len(edges))
	for _, e := range edges {
		out = append(out, writers.ToAPIEdge(e))
	}
	h.writeJSON(w, "successors", http.StatusOK, out)
}

func (h *handler) loadFilter() (*bloom.Filter, error) {
	h.filterOnce.Do(func() {
		h.filter, h.filterErr = h.q.Filter()
	})
	return h.filter, h.filterErr
}

func (h *handler) seen(w http.ResponseWriter, r *http.Request) {
	meta, err := h.q.Meta()
	if err != nil {
		h.writeError(w, "seen", err)
		return
	}
	km := kmer.Normalize([]byte(chi.URLParam(r, "kmer")))
	if len(km) != meta.K {
		h.writeError(w, "seen", errors.Wrapf(errBadRequest, "k-mer %q: length %d, want %d", km, len(km), meta.K))
		return
	}
	for _, b := range km {
		if !kmer.Valid(b) {
			h.writeError(w, "seen", errors.Wrapf(errBadRequest, "k-mer %q: unsupported symbol %q", km, b))
			return
		}
	}
	f, err := h.loadFilter()
	if err != nil {
		h.writeError(w, "seen", errors.Wrap(err, "run filter"))
		return
	}
	query := km
	if meta.Canonical {
		query = kmer.Canonical(nil, km)
	}
	h.writeJSON(w, "seen", http.StatusOK, api.SeenV1{
		Kmer:  string(km),
		Query: string(query),
		Seen:  f.Contains(query),
	})
}
