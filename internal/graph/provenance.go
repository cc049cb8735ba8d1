package graph

import (
	"slices"
	"sort"
)

// Provenance is the sorted, duplicate-free set of source labels that
// contributed to a node or edge. Values are never modified in place, so
// graphs may share them freely.
type Provenance []string

// NewProvenance builds a set from labels, dropping empties and duplicates.
func NewProvenance(labels ...string) Provenance {
	var p Provenance
	for _, l := range labels {
		p = p.Add(l)
	}
	return p
}

// Contains reports whether label is in p.
func (p Provenance) Contains(label string) bool {
	i := sort.SearchStrings(p, label)
	return i < len(p) && p[i] == label
}

// Add returns p ∪ {label}. p is returned unchanged when label is empty or
// already present; otherwise the result is a fresh slice.
func (p Provenance) Add(label string) Provenance {
	if label == "" {
		return p
	}
	i := sort.SearchStrings(p, label)
	if i < len(p) && p[i] == label {
		return p
	}
	out := make(Provenance, 0, len(p)+1)
	out = append(out, p[:i]...)
	out = append(out, label)
	return append(out, p[i:]...)
}

// Union returns p ∪ q without modifying either.
func (p Provenance) Union(q Provenance) Provenance {
	switch {
	case len(q) == 0:
		return p
	case len(p) == 0:
		return q
	}
	out := make(Provenance, 0, len(p)+len(q))
	i, j := 0, 0
	for i < len(p) && j < len(q) {
		switch {
		case p[i] < q[j]:
			out = append(out, p[i])
			i++
		case p[i] > q[j]:
			out = append(out, q[j])
			j++
		default:
			out = append(out, p[i])
			i++
			j++
		}
	}
	out = append(out, p[i:]...)
	out = append(out, q[j:]...)
	if len(out) == len(p) {
		return p
	}
	return out
}

// Equal reports set equality.
func (p Provenance) Equal(q Provenance) bool { return slices.Equal(p, q) }

// Shared reports whether more than one source contributed.
func (p Provenance) Shared() bool { return len(p) > 1 }
