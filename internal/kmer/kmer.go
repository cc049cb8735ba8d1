// internal/kmer/kmer.go
package kmer

import (
	"bytes"
	"iter"
)

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'
}

// Valid reports whether b is an accepted (upper-case) nucleotide.
func Valid(b byte) bool { return complement[b] != 0 }

// Normalize returns seq with lower-case letters upper-cased. seq itself is
// returned when it is already upper-case, so the common path does not copy.
func Normalize(seq []byte) []byte {
	for _, b := range seq {
		if b >= 'a' && b <= 'z' {
			return bytes.ToUpper(seq)
		}
	}
	return seq
}

// ReverseComplement writes the reverse complement of km into dst (grown as
// needed) and returns it. km must contain only ACGT.
func ReverseComplement(dst, km []byte) []byte {
	n := len(km)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = complement[km[n-1-i]]
	}
	return dst
}

// Canonical returns the lexicographically smaller of km and its reverse
// complement. scratch is used for the complement and may be returned.
func Canonical(scratch, km []byte) []byte {
	rc := ReverseComplement(scratch, km)
	if bytes.Compare(rc, km) < 0 {
		return rc
	}
	return km
}

// Windows yields (offset, k-mer) for every start offset 0..len(seq)-k whose
// window holds only ACGT. A sequence shorter than k, or k <= 0, yields
// nothing. The yielded slices alias seq.
//
// The sequence is restartable: ranging over the result again starts from
// offset 0. A single range loop must not be shared between goroutines.
func Windows(seq []byte, k int) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		if k <= 0 || len(seq) < k {
			return
		}
		run := 0 // length of the valid run ending at i
		for i, b := range seq {
			if !Valid(b) {
				run = 0
				continue
			}
			run++
			if run >= k {
				start := i - k + 1
				if !yield(start, seq[start:i+1]) {
					return
				}
			}
		}
	}
}

// Count returns how many windows Windows would emit and how many offsets it
// skips because of unsupported symbols.
func Count(seq []byte, k int) (emitted, skipped int) {
	if k <= 0 || len(seq) < k {
		return 0, 0
	}
	run := 0
	for _, b := range seq {
		if !Valid(b) {
			run = 0
			continue
		}
		run++
		if run >= k {
			emitted++
		}
	}
	return emitted, len(seq) - k + 1 - emitted
}

// Extractor applies the configured canonicalization policy on top of Windows.
type Extractor struct {
	K         int
	Canonical bool
}

// All yields the k-mers of seq. With Canonical set, the yielded slice may be
// a scratch buffer owned by the iterator; copy it to retain it past the
// current iteration.
func (e Extractor) All(seq []byte) iter.Seq2[int, []byte] {
	if !e.Canonical {
		return Windows(seq, e.K)
	}
	return func(yield func(int, []byte) bool) {
		scratch := make([]byte, e.K)
		for off, km := range Windows(seq, e.K) {
			if !yield(off, Canonical(scratch, km)) {
				return
			}
		}
	}
}
