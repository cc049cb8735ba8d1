// Package graph holds the content-keyed de Bruijn graph and its merge
// algebra.
//
// Nodes are (k-1)-mers keyed by content; edges are keyed by their
// (prefix, suffix) node pair, so two different k-mers inducing the same
// pair share one edge. Merge sums counts and multiplicities and unions
// provenance, which makes it associative and commutative with New(k) as
// identity: any fold order or reduction tree over a set of partial graphs
// yields the same result.
package graph
