// internal/bloom/filter.go
package bloom

import (
	"fmt"
	"io"
	"math"

	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
	wbloom "github.com/willf/bloom"
)

// Filter is an insert-only approximate set of byte strings. It never
// reports a false negative; false positives occur at a rate governed by
// Bits, Hashes and the number of distinct values inserted.
//
// A Filter is not safe for concurrent use. The pipeline gives every chunk
// its own.
type Filter struct {
	bf *wbloom.BloomFilter
}

// MaxBits is the largest bit array a Filter is sized to (32 TiB).
const MaxBits uint64 = 1 << 48

// ErrTooLarge is returned when n and p call for more than MaxBits bits.
var ErrTooLarge = errors.New("bloom: filter too large")

func requiredBits(n uint, p float64) float64 {
	if n == 0 {
		n = 1
	}
	return math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
}

// CheckParameters returns ErrTooLarge when a filter for n values at rate p
// would exceed MaxBits.
func CheckParameters(n uint, p float64) error {
	if bits := requiredBits(n, p); math.IsNaN(bits) || bits > float64(MaxBits) {
		return errors.Wrapf(ErrTooLarge, "%d values at false-positive rate %g need %g bits, limit %d",
			n, p, bits, MaxBits)
	}
	return nil
}

// EstimateParameters sizes a filter for n distinct values at a target
// false-positive rate p: m = -n·ln(p)/(ln 2)², h = (m/n)·ln 2. m is capped
// at MaxBits; CheckParameters reports when that happens.
func EstimateParameters(n uint, p float64) (m, h uint) {
	if n == 0 {
		n = 1
	}
	bits := requiredBits(n, p)
	switch {
	case math.IsNaN(bits) || bits > float64(MaxBits):
		m = uint(MaxBits)
	case bits > 0:
		m = uint(bits)
	}
	if m == 0 {
		m = 1
	}
	h = uint(math.Round(float64(m) / float64(n) * math.Ln2))
	if h == 0 {
		h = 1
	}
	return m, h
}

// New returns a filter sized for n distinct values at false-positive rate p.
func New(n uint, p float64) *Filter {
	m, h := EstimateParameters(n, p)
	return NewWithParameters(m, h)
}

// NewWithParameters returns a filter with m bits and h hash functions.
func NewWithParameters(m, h uint) *Filter {
	return &Filter{bf: wbloom.New(m, h)}
}

// Insert adds v and reports whether v was (probably) present before.
func (f *Filter) Insert(v []byte) bool {
	return f.bf.TestAndAdd(v)
}

// Contains reports whether v was (probably) inserted. It never mutates f.
func (f *Filter) Contains(v []byte) bool {
	return f.bf.Test(v)
}

// Bits is the size of the bit array (m).
func (f *Filter) Bits() uint { return f.bf.Cap() }

// Hashes is the number of hash functions (h).
func (f *Filter) Hashes() uint { return f.bf.K() }

// EstimatedFalsePositiveRate is the theoretical false-positive rate after n
// distinct insertions: (1 - e^(-h·n/m))^h.
func (f *Filter) EstimatedFalsePositiveRate(n uint) float64 {
	m, h := float64(f.Bits()), float64(f.Hashes())
	return math.Pow(1-math.Exp(-h*float64(n)/m), h)
}

// Merge ORs other into f. Both filters must share m and h; the result
// answers Contains positively for anything inserted into either.
func (f *Filter) Merge(other *Filter) error {
	if f.Bits() != other.Bits() || f.Hashes() != other.Hashes() {
		return fmt.Errorf("bloom: cannot merge m=%d h=%d with m=%d h=%d",
			f.Bits(), f.Hashes(), other.Bits(), other.Hashes())
	}
	return errors.Wrap(f.bf.Merge(other.bf), "bloom merge")
}

// WriteTo serializes f in the willf/bloom binary layout.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	n, err := f.bf.WriteTo(w)
	return n, errors.Wrap(err, "write bloom filter")
}

// ReadFrom replaces f's state with a filter previously written by WriteTo.
func (f *Filter) ReadFrom(r io.Reader) (int64, error) {
	bf := &wbloom.BloomFilter{}
	n, err := bf.ReadFrom(r)
	if err != nil {
		return n, errors.Wrap(err, "read bloom filter")
	}
	f.bf = bf
	return n, nil
}

// Footprint is the memory held by `live` filters of m bits each.
func Footprint(m uint, live int) uint64 {
	return uint64(live) * ((uint64(m) + 63) / 64) * 8
}

// CheckFootprint returns an error when `live` filters of m bits would take
// more than fraction of the machine's physical memory. It returns nil when
// the total memory cannot be determined.
func CheckFootprint(m uint, live int, fraction float64) error {
	total := memory.TotalMemory()
	if total == 0 {
		return nil
	}
	need := Footprint(m, live)
	if float64(need) > fraction*float64(total) {
		return fmt.Errorf("bloom: %d filters of %d bits need %d bytes, over %.0f%% of %d bytes of memory",
			live, m, need, fraction*100, total)
	}
	return nil
}
