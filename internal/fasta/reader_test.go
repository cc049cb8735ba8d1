package fasta

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/internal/sequence"
)

const plain = `>seq1 first record
ACGT
acgt
>seq2
NNnn
`

func write(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

// writeGz creates a gzipped file with provided data, returns the file path.
func writeGz(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	fh, err := os.Create(path)
	require.NoError(t, err)
	gw := gzip.NewWriter(fh)
	_, err = gw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, fh.Close())
	return path
}

func labelsAndBases(seqs []sequence.Sequence) (labels, bases []string) {
	for _, s := range seqs {
		labels = append(labels, s.Label)
		bases = append(bases, string(s.Bases))
	}
	return labels, bases
}

func TestReadAll_FASTA(t *testing.T) {
	seqs, err := ReadAll(context.Background(), []string{write(t, "x.fa", plain)}, Options{})
	require.NoError(t, err)
	labels, bases := labelsAndBases(seqs)
	assert.Equal(t, []string{"seq1", "seq2"}, labels)
	assert.Equal(t, []string{"ACGTacgt", "NNnn"}, bases)
}

func TestReadAll_Gzip(t *testing.T) {
	// magic number detection works without the suffix
	for _, name := range []string{"x.fa.gz", "x.fa"} {
		seqs, err := ReadAll(context.Background(), []string{writeGz(t, name, plain)}, Options{})
		require.NoError(t, err, name)
		require.Len(t, seqs, 2, name)
		assert.Equal(t, "ACGTacgt", string(seqs[0].Bases))
	}
}

func TestReadAll_FASTQ(t *testing.T) {
	fq := "@r1 extra\nACGTT\n+\nIIIII\n@r2\nGG\n+r2\n@@\n"
	seqs, err := ReadAll(context.Background(), []string{write(t, "x.fq", fq)}, Options{})
	require.NoError(t, err)
	labels, bases := labelsAndBases(seqs)
	assert.Equal(t, []string{"r1", "r2"}, labels)
	assert.Equal(t, []string{"ACGTT", "GG"}, bases)
}

func TestReadAll_EmptyHeader(t *testing.T) {
	seqs, err := ReadAll(context.Background(), []string{write(t, "x.fa", ">\nACGTACGTT\n>r2\nGGGG\n>\n")}, Options{})
	require.NoError(t, err)
	labels, bases := labelsAndBases(seqs)
	assert.Equal(t, []string{"x:1", "r2", "x:3"}, labels)
	assert.Equal(t, []string{"ACGTACGTT", "GGGG", ""}, bases)

	seqs, err = ReadAll(context.Background(), []string{write(t, "y.fq", "@\nACG\n+\nIII\n")}, Options{})
	require.NoError(t, err)
	labels, _ = labelsAndBases(seqs)
	assert.Equal(t, []string{"y:1"}, labels)
}

func TestReadAll_FASTQErrors(t *testing.T) {
	cases := map[string]string{
		"short quality": "@r1\nACGT\n+\nII\n",
		"no separator":  "@r1\nACGT\nIIII\nIIII\n",
		"truncated":     "@r1\nACGT\n",
	}
	for name, data := range cases {
		_, err := ReadAll(context.Background(), []string{write(t, "x.fq", data)}, Options{})
		assert.True(t, errors.Is(err, ErrFormat), "%s: %v", name, err)
	}
}

func TestReadAll_UnknownFormat(t *testing.T) {
	_, err := ReadAll(context.Background(), []string{write(t, "x.txt", "hello\n")}, Options{})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestReadAll_FileLabels(t *testing.T) {
	a := write(t, "hapA.fasta", ">chr1\nACGT\n>chr2\nTTTT\n")
	b := writeGz(t, "hapB.fa.gz", ">chr1\nGGGG\n")
	seqs, err := ReadAll(context.Background(), []string{a, b}, Options{Label: LabelFile})
	require.NoError(t, err)
	labels, _ := labelsAndBases(seqs)
	assert.Equal(t, []string{"hapA", "hapA", "hapB"}, labels)

	_, err = ReadAll(context.Background(), []string{a}, Options{Label: "sample"})
	assert.Error(t, err)
}

func TestReadAll_Windows(t *testing.T) {
	path := write(t, "x.fa", ">long\nAAAACCCCGG\n")
	seqs, err := ReadAll(context.Background(), []string{path}, Options{Window: 4, Overlap: 2})
	require.NoError(t, err)
	labels, bases := labelsAndBases(seqs)
	assert.Equal(t, []string{"AAAA", "AACC", "CCCC", "CCGG"}, bases)
	assert.Equal(t, []string{"long", "long", "long", "long"}, labels)

	// overlap >= window disables splitting
	seqs, err = ReadAll(context.Background(), []string{path}, Options{Window: 3, Overlap: 3})
	require.NoError(t, err)
	assert.Len(t, seqs, 1)
}

func TestWindowsKeepEveryKmer(t *testing.T) {
	const k = 5
	rec := "ACGTTGCAAGGCTTACGATCGATTTACG"
	var got []string
	err := splitWindows([]byte(rec), 9, k-1, func(w []byte) error {
		for i := 0; i+k <= len(w); i++ {
			got = append(got, string(w[i:i+k]))
		}
		return nil
	})
	require.NoError(t, err)
	for i := 0; i+k <= len(rec); i++ {
		assert.Contains(t, got, rec[i:i+k])
	}
}

func TestReadAll_MissingFileIsPermanent(t *testing.T) {
	_, err := ReadAll(context.Background(), []string{filepath.Join(t.TempDir(), "none.fa")}, Options{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)), "got %v", err)
}

func TestStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	err := Stream(ctx, write(t, "x.fa", plain), Options{}, func(sequence.Sequence) error {
		n++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestFileLabel(t *testing.T) {
	assert.Equal(t, "stdin", FileLabel("-"))
	assert.Equal(t, "hap1", FileLabel("/data/hap1.fa.gz"))
	assert.Equal(t, "reads", FileLabel("reads.fastq"))
	assert.Equal(t, "noext", FileLabel("dir/noext"))
}
