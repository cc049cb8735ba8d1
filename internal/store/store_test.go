package store

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/internal/bloom"
	"kgraph/internal/graph"
)

func sample() *graph.Graph {
	g := graph.New(4)
	for _, km := range []string{"ACGT", "CGTA", "CGTT", "ACGT"} {
		g.AddKmer([]byte(km), "h1")
	}
	g.AddKmer([]byte("CGTT"), "h2")
	g.Freeze()
	return g
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path, false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSaveLoad(t *testing.T) {
	s, _ := openTemp(t)
	g := sample()
	require.NoError(t, s.Save(g, nil, Info{RunID: "run-1"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.True(t, graph.Equal(g, got))
	assert.True(t, got.Frozen())

	meta, err := s.Meta()
	require.NoError(t, err)
	assert.Equal(t, 4, meta.K)
	assert.Equal(t, "run-1", meta.RunID)
	assert.Equal(t, graph.Fingerprint(g), meta.Fingerprint)
	assert.Equal(t, g.Summary(), meta.Summary)
	assert.False(t, meta.HasFilter)
}

func TestSaveReplacesPreviousGraph(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Save(sample(), nil, Info{RunID: "a"}))

	small := graph.New(4)
	small.AddKmer([]byte("TTTT"), "")
	require.NoError(t, s.Save(small, nil, Info{RunID: "b"}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.True(t, graph.Equal(small, got))
	_, err = s.Node("ACG")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNodeAndSuccessors(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Save(sample(), nil, Info{}))

	n, err := s.Node("CGT")
	require.NoError(t, err)
	assert.EqualValues(t, 5, n.Count)

	succ, err := s.Successors("CGT")
	require.NoError(t, err)
	require.Len(t, succ, 2)
	assert.Equal(t, "GTA", succ[0].To)
	assert.Equal(t, "GTT", succ[1].To)
	assert.EqualValues(t, 2, succ[1].Multiplicity)
	assert.Equal(t, graph.NewProvenance("h1", "h2"), succ[1].Sources)

	succ, err = s.Successors("GTT")
	require.NoError(t, err)
	assert.Empty(t, succ)

	_, err = s.Successors("AAA")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSuccessorsDoNotLeakAcrossPrefixes(t *testing.T) {
	s, _ := openTemp(t)
	g := graph.New(3)
	g.AddKmer([]byte("ACG"), "")
	g.AddKmer([]byte("ACT"), "")
	g.AddKmer([]byte("CAC"), "")
	require.NoError(t, s.Save(g, nil, Info{}))

	succ, err := s.Successors("AC")
	require.NoError(t, err)
	require.Len(t, succ, 2)
	for _, e := range succ {
		assert.Equal(t, "AC", e.From)
	}
}

func TestKOneGraph(t *testing.T) {
	s, _ := openTemp(t)
	g := graph.New(1)
	g.AddKmer([]byte("A"), "")
	g.AddKmer([]byte("C"), "")
	require.NoError(t, s.Save(g, nil, Info{}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.True(t, graph.Equal(g, got))

	n, err := s.Node("")
	require.NoError(t, err)
	assert.EqualValues(t, 4, n.Count)
}

func TestFilter(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.Save(sample(), nil, Info{}))
	_, err := s.Filter()
	assert.True(t, errors.Is(err, ErrNotFound))

	f := bloom.New(100, 0.01)
	f.Insert([]byte("ACGT"))
	require.NoError(t, s.Save(sample(), f, Info{}))
	require.NoError(t, s.Close())

	ro, err := Open(path, true, nil)
	require.NoError(t, err)
	defer ro.Close()
	got, err := ro.Filter()
	require.NoError(t, err)
	assert.True(t, got.Contains([]byte("ACGT")))
	assert.Equal(t, f.Bits(), got.Bits())
}

func TestEmptyStore(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.Meta()
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Load()
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Node("ACG")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpenReadOnlyMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"), true, nil)
	assert.Error(t, err)
}
