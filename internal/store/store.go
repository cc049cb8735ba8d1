// internal/store/store.go
package store

import (
	"bytes"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"kgraph/internal/bloom"
	"kgraph/internal/graph"
)

// ErrNotFound is returned for a missing node, graph or filter.
var ErrNotFound = errors.New("not found")

var (
	nodesBucket = []byte("nodes")
	edgesBucket = []byte("edges")
	metaBucket  = []byte("meta")

	keyMeta   = []byte("graph")
	keyFilter = []byte("filter")
)

// Node keys carry a type byte because bbolt rejects empty keys, and k=1
// graphs have a single empty node. Edge keys are from, 0, to.
const eTypeNode byte = 'n'

const formatVersion = 1

// Meta describes the stored graph.
type Meta struct {
	Version     int           `msgpack:"version"`
	K           int           `msgpack:"k"`
	RunID       string        `msgpack:"run_id"`
	Fingerprint string        `msgpack:"fingerprint"`
	Canonical   bool          `msgpack:"canonical"`
	Saved       time.Time     `msgpack:"saved"`
	Summary     graph.Summary `msgpack:"summary"`
	HasFilter   bool          `msgpack:"has_filter"`
}

type nodeValue struct {
	Count   uint64   `msgpack:"c"`
	Sources []string `msgpack:"s,omitempty"`
}

type edgeValue struct {
	Multiplicity uint64   `msgpack:"m"`
	Sources      []string `msgpack:"s,omitempty"`
}

// Store persists one final graph (and optionally its run-level filter) in
// a bbolt file and answers point queries without loading the whole graph.
type Store struct {
	db  *bolt.DB
	log logrus.FieldLogger
}

// Open opens or creates the store at path. A read-only store shares the
// file with other readers.
func Open(path string, readOnly bool, logger logrus.FieldLogger) (*Store, error) {
	if readOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "open store %q", path)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, errors.Wrapf(err, "open store %q", path)
	}
	if logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		logger = l
	}
	return &Store{db: db, log: logger.WithField("store", path)}, nil
}

// Close releases the file.
func (s *Store) Close() error { return s.db.Close() }

func nodeKey(seq string) []byte {
	return append([]byte{eTypeNode}, seq...)
}

func edgeKey(from, to string) []byte {
	k := make([]byte, 0, len(from)+len(to)+1)
	k = append(k, from...)
	k = append(k, 0)
	return append(k, to...)
}

// Info is the run context saved next to a graph.
type Info struct {
	RunID     string
	Canonical bool // filter holds canonical k-mers
}

// Save replaces the stored graph with g. filter may be nil.
func (s *Store) Save(g *graph.Graph, filter *bloom.Filter, info Info) error {
	meta := Meta{
		Version:     formatVersion,
		K:           g.K(),
		RunID:       info.RunID,
		Canonical:   info.Canonical,
		Fingerprint: graph.Fingerprint(g),
		Saved:       time.Now().UTC(),
		Summary:     g.Summary(),
		HasFilter:   filter != nil,
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{nodesBucket, edgesBucket, metaBucket} {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return errors.Wrapf(err, "reset bucket %s", name)
			}
		}
		nodes, err := tx.CreateBucket(nodesBucket)
		if err != nil {
			return err
		}
		edges, err := tx.CreateBucket(edgesBucket)
		if err != nil {
			return err
		}
		mb, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}

		for _, n := range g.Nodes() {
			v, err := msgpack.Marshal(nodeValue{Count: n.Count, Sources: n.Sources})
			if err != nil {
				return errors.Wrapf(err, "encode node %q", n.Seq)
			}
			if err := nodes.Put(nodeKey(n.Seq), v); err != nil {
				return err
			}
		}
		for _, e := range g.Edges() {
			v, err := msgpack.Marshal(edgeValue{Multiplicity: e.Multiplicity, Sources: e.Sources})
			if err != nil {
				return errors.Wrapf(err, "encode edge %s->%s", e.From, e.To)
			}
			if err := edges.Put(edgeKey(e.From, e.To), v); err != nil {
				return err
			}
		}
		if filter != nil {
			var buf bytes.Buffer
			if _, err := filter.WriteTo(&buf); err != nil {
				return err
			}
			if err := mb.Put(keyFilter, buf.Bytes()); err != nil {
				return err
			}
		}
		raw, err := msgpack.Marshal(meta)
		if err != nil {
			return errors.Wrap(err, "encode meta")
		}
		return mb.Put(keyMeta, raw)
	})
	if err != nil {
		return errors.Wrap(err, "save graph")
	}
	s.log.WithFields(logrus.Fields{
		"action": "store_save",
		"nodes":  meta.Summary.Nodes,
		"edges":  meta.Summary.Edges,
		"filter": meta.HasFilter,
	}).Debug("graph saved")
	return nil
}

// Meta returns the stored graph's metadata.
func (s *Store) Meta() (Meta, error) {
	var m Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		if b == nil {
			return ErrNotFound
		}
		raw := b.Get(keyMeta)
		if raw == nil {
			return ErrNotFound
		}
		return msgpack.Unmarshal(raw, &m)
	})
	return m, err
}

// Load rebuilds the stored graph. The result is frozen.
func (s *Store) Load() (*graph.Graph, error) {
	meta, err := s.Meta()
	if err != nil {
		return nil, err
	}
	g := graph.New(meta.K)
	err = s.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket(nodesBucket).ForEach(func(k, v []byte) error {
			var nv nodeValue
			if err := msgpack.Unmarshal(v, &nv); err != nil {
				return errors.Wrapf(err, "decode node %q", k[1:])
			}
			g.AddNode(string(k[1:]), nv.Count, graph.NewProvenance(nv.Sources...))
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(edgesBucket).ForEach(func(k, v []byte) error {
			i := bytes.IndexByte(k, 0)
			if i < 0 {
				return errors.Errorf("malformed edge key %q", k)
			}
			var ev edgeValue
			if err := msgpack.Unmarshal(v, &ev); err != nil {
				return errors.Wrapf(err, "decode edge %q", k)
			}
			g.AddEdge(string(k[:i]), string(k[i+1:]), ev.Multiplicity, graph.NewProvenance(ev.Sources...))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "load graph")
	}
	g.Freeze()
	return g, nil
}

// Node returns one node by content.
func (s *Store) Node(seq string) (graph.Node, error) {
	var n graph.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(nodesBucket)
		if b == nil {
			return ErrNotFound
		}
		raw := b.Get(nodeKey(seq))
		if raw == nil {
			return ErrNotFound
		}
		var nv nodeValue
		if err := msgpack.Unmarshal(raw, &nv); err != nil {
			return err
		}
		n = graph.Node{Count: nv.Count, Sources: graph.NewProvenance(nv.Sources...)}
		return nil
	})
	return n, err
}

// Successors returns the outgoing edges of seq, sorted by target. A node
// without outgoing edges yields an empty slice; an unknown node yields
// ErrNotFound.
func (s *Store) Successors(seq string) ([]graph.EdgeEntry, error) {
	if _, err := s.Node(seq); err != nil {
		return nil, err
	}
	out := []graph.EdgeEntry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		prefix := edgeKey(seq, "")
		c := tx.Bucket(edgesBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var ev edgeValue
			if err := msgpack.Unmarshal(v, &ev); err != nil {
				return err
			}
			out = append(out, graph.EdgeEntry{
				EdgeKey: graph.EdgeKey{From: seq, To: string(k[len(prefix):])},
				Edge:    graph.Edge{Multiplicity: ev.Multiplicity, Sources: graph.NewProvenance(ev.Sources...)},
			})
		}
		return nil
	})
	return out, err
}

// Filter returns the stored run-level filter.
func (s *Store) Filter() (*bloom.Filter, error) {
	var f *bloom.Filter
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		if b == nil {
			return ErrNotFound
		}
		raw := b.Get(keyFilter)
		if raw == nil {
			return ErrNotFound
		}
		f = &bloom.Filter{}
		_, err := f.ReadFrom(bytes.NewReader(raw))
		return err
	})
	return f, err
}
