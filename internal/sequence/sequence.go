// internal/sequence/sequence.go
package sequence

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformed marks a sequence that carries bytes no nucleotide alphabet
// could contain (digits, punctuation, whitespace, control bytes). Letters
// outside ACGT are not malformed: the k-mer extractor skips them.
var ErrMalformed = errors.New("malformed sequence")

// Sequence is one read or haplotype as delivered by a source.
// Bases must not be mutated after the sequence is handed to the scheduler.
type Sequence struct {
	Label string
	Bases []byte
}

// Len returns the number of bases.
func (s Sequence) Len() int { return len(s.Bases) }

// Validate reports the first byte that is not an ASCII letter.
func (s Sequence) Validate() error {
	for i, b := range s.Bases {
		if !isLetter(b) {
			return errors.Wrap(ErrMalformed, fmt.Sprintf("%q: byte 0x%02x at offset %d", s.Label, b, i))
		}
	}
	return nil
}

// TotalBases sums Len over seqs.
func TotalBases(seqs []Sequence) int {
	n := 0
	for _, s := range seqs {
		n += len(s.Bases)
	}
	return n
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
