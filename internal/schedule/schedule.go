// internal/schedule/schedule.go
package schedule

import (
	"fmt"

	"kgraph/internal/sequence"
)

// Unit selects how a chunk's size budget is measured.
type Unit int

const (
	Sequences Unit = iota // at most N sequences per chunk
	Bytes                 // at most N bases per chunk
)

func (u Unit) String() string {
	switch u {
	case Sequences:
		return "sequences"
	case Bytes:
		return "bytes"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit maps a config value to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "sequences":
		return Sequences, nil
	case "bytes":
		return Bytes, nil
	}
	return 0, fmt.Errorf("unknown chunk unit %q (want sequences|bytes)", s)
}

// Chunk is a contiguous run of the input processed by one worker.
type Chunk struct {
	Index     int
	Sequences []sequence.Sequence
}

// Bytes is the number of bases in the chunk.
func (c Chunk) Bytes() int { return sequence.TotalBases(c.Sequences) }

// Partition splits seqs into ordered chunks of at most size units. Every
// sequence lands in exactly one chunk, whole and in input order. In Bytes
// mode a sequence larger than size occupies a chunk by itself.
//
// Chunks alias seqs; nothing is copied.
func Partition(seqs []sequence.Sequence, size int, unit Unit) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	var chunks []Chunk
	emit := func(lo, hi int) {
		chunks = append(chunks, Chunk{Index: len(chunks), Sequences: seqs[lo:hi:hi]})
	}
	switch unit {
	case Sequences:
		for lo := 0; lo < len(seqs); lo += size {
			emit(lo, min(lo+size, len(seqs)))
		}
	case Bytes:
		lo, used := 0, 0
		for i, s := range seqs {
			if i > lo && used+s.Len() > size {
				emit(lo, i)
				lo, used = i, 0
			}
			used += s.Len()
		}
		if lo < len(seqs) {
			emit(lo, len(seqs))
		}
	default:
		return nil, fmt.Errorf("unknown chunk unit %v", unit)
	}
	return chunks, nil
}
