package graph

import (
	"encoding/binary"
	"fmt"

	"github.com/spaolacci/murmur3"
)

// Fingerprint is a 128-bit murmur3 digest of g's content in sorted order.
// Equal graphs have equal fingerprints regardless of how they were built.
func Fingerprint(g *Graph) string {
	h := murmur3.New128()
	var num [8]byte
	writeNum := func(v uint64) {
		binary.BigEndian.PutUint64(num[:], v)
		h.Write(num[:])
	}
	writeStr := func(s string) {
		writeNum(uint64(len(s)))
		h.Write([]byte(s))
	}
	writeSources := func(p Provenance) {
		writeNum(uint64(len(p)))
		for _, l := range p {
			writeStr(l)
		}
	}

	writeNum(uint64(g.k))
	nodes := g.Nodes()
	writeNum(uint64(len(nodes)))
	for _, n := range nodes {
		writeStr(n.Seq)
		writeNum(n.Count)
		writeSources(n.Sources)
	}
	edges := g.Edges()
	writeNum(uint64(len(edges)))
	for _, e := range edges {
		writeStr(e.From)
		writeStr(e.To)
		writeNum(e.Multiplicity)
		writeSources(e.Sources)
	}
	hi, lo := h.Sum128()
	return fmt.Sprintf("%016x%016x", hi, lo)
}
