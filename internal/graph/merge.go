// internal/graph/merge.go
package graph

import (
	"github.com/pkg/errors"
)

// ErrIncompatibleK is returned when merging graphs built with different k.
var ErrIncompatibleK = errors.New("graphs built with different k")

// ErrFrozen is returned by MergeInto when the destination is frozen.
var ErrFrozen = errors.New("graph is frozen")

// Merge returns a new graph holding a ∪ b: node counts and edge
// multiplicities add, provenance sets union. Neither input is modified.
// Merge is associative and commutative, with New(k) as identity.
func Merge(a, b *Graph) (*Graph, error) {
	if a.k != b.k {
		return nil, errors.Wrapf(ErrIncompatibleK, "k=%d and k=%d", a.k, b.k)
	}
	// Clone the larger side so the loop runs over the smaller one.
	if len(a.nodes)+len(a.edges) < len(b.nodes)+len(b.edges) {
		a, b = b, a
	}
	out := a.Clone()
	out.absorb(b)
	return out, nil
}

// MergeInto folds src into dst in place. dst must be owned by the caller.
func MergeInto(dst, src *Graph) error {
	if dst.frozen {
		return ErrFrozen
	}
	if dst.k != src.k {
		return errors.Wrapf(ErrIncompatibleK, "k=%d and k=%d", dst.k, src.k)
	}
	dst.absorb(src)
	return nil
}

func (g *Graph) absorb(src *Graph) {
	for seq, n := range src.nodes {
		g.addNode(seq, n.Count, "", n.Sources)
	}
	for key, e := range src.edges {
		g.addEdge(key, e.Multiplicity, "", e.Sources)
	}
}

// Equal reports whether a and b hold the same k, nodes, edges, counts and
// provenance. Frozen state is ignored.
func Equal(a, b *Graph) bool {
	if a.k != b.k || len(a.nodes) != len(b.nodes) || len(a.edges) != len(b.edges) {
		return false
	}
	for seq, n := range a.nodes {
		m, ok := b.nodes[seq]
		if !ok || m.Count != n.Count || !m.Sources.Equal(n.Sources) {
			return false
		}
	}
	for key, e := range a.edges {
		f, ok := b.edges[key]
		if !ok || f.Multiplicity != e.Multiplicity || !f.Sources.Equal(e.Sources) {
			return false
		}
	}
	return true
}
