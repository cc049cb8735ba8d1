package builder

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/internal/bloom"
	"kgraph/internal/graph"
	"kgraph/internal/schedule"
	"kgraph/internal/sequence"
)

func opts(k int) Options {
	m, h := bloom.EstimateParameters(10_000, 0.001)
	return Options{K: k, FilterBits: m, FilterHashes: h}
}

func chunk(seqs ...string) schedule.Chunk {
	c := schedule.Chunk{Index: 3}
	for i, s := range seqs {
		c.Sequences = append(c.Sequences, sequence.Sequence{Label: string(rune('a' + i)), Bases: []byte(s)})
	}
	return c
}

func TestBuild_SecondSightingScenario(t *testing.T) {
	res, err := Build(context.Background(), chunk("ACGTACGTT"), opts(4))
	require.NoError(t, err)

	g := res.Graph
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	e, ok := g.Edge("ACG", "CGT")
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Multiplicity)
	for _, seq := range []string{"ACG", "CGT"} {
		n, ok := g.Node(seq)
		require.True(t, ok, seq)
		assert.Equal(t, uint64(1), n.Count, seq)
	}

	assert.Equal(t, Stats{
		Chunk: 3, Sequences: 1, Bases: 9, Kmers: 6, Repeated: 1, Promoted: 1,
		Duration: res.Stats.Duration,
	}, res.Stats)
	assert.True(t, res.Filter.Contains([]byte("CGTT")))
}

func TestBuild_ThirdSightingIncrements(t *testing.T) {
	res, err := Build(context.Background(), chunk("ACGT", "ACGT", "ACGT"), opts(4))
	require.NoError(t, err)
	e, _ := res.Graph.Edge("ACG", "CGT")
	assert.Equal(t, uint64(2), e.Multiplicity)
}

func TestBuild_FirstSighting(t *testing.T) {
	o := opts(4)
	o.Promotion = FirstSighting
	res, err := Build(context.Background(), chunk("ACGTACGTT"), o)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Graph.NodeCount())
	assert.Equal(t, 5, res.Graph.EdgeCount())
	e, _ := res.Graph.Edge("ACG", "CGT")
	assert.Equal(t, uint64(2), e.Multiplicity)
	assert.Equal(t, 6, res.Stats.Promoted)
	assert.Equal(t, 1, res.Stats.Repeated)
}

func TestBuild_SkipsUnsupportedSymbols(t *testing.T) {
	o := opts(3)
	o.Promotion = FirstSighting
	res, err := Build(context.Background(), chunk("acgNtac"), o)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Kmers) // ACG, TAC
	assert.Equal(t, 3, res.Stats.Skipped)
	_, ok := res.Graph.Edge("AC", "CG")
	assert.True(t, ok, "lower case input is normalised")
}

func TestBuild_MalformedSequenceFailsChunk(t *testing.T) {
	_, err := Build(context.Background(), chunk("ACGT", "AC GT"), opts(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSequence))
	assert.Contains(t, err.Error(), "chunk 3")
}

func TestBuild_Provenance(t *testing.T) {
	o := opts(3)
	o.Promotion = FirstSighting
	res, err := Build(context.Background(), chunk("ACGT"), o)
	require.NoError(t, err)
	n, _ := res.Graph.Node("CG")
	assert.Empty(t, n.Sources)

	o.TrackProvenance = true
	res, err = Build(context.Background(), chunk("ACGT", "CGTT"), o)
	require.NoError(t, err)
	n, _ = res.Graph.Node("CG")
	assert.Equal(t, graph.Provenance{"a", "b"}, n.Sources)
}

func TestBuild_Canonicalize(t *testing.T) {
	o := opts(4)
	o.Canonicalize = true
	// GTTT's reverse complement is AAAC: the second sighting promotes it
	res, err := Build(context.Background(), chunk("GTTT", "AAAC"), o)
	require.NoError(t, err)
	e, ok := res.Graph.Edge("AAA", "AAC")
	require.True(t, ok)
	assert.Equal(t, uint64(1), e.Multiplicity)
}

func TestBuild_Deterministic(t *testing.T) {
	c := chunk("ACGTTGCAACGTTGCA", "TTGCAACGNNACGTTG", "GGGGGGGGG")
	a, err := Build(context.Background(), c, opts(5))
	require.NoError(t, err)
	b, err := Build(context.Background(), c, opts(5))
	require.NoError(t, err)
	assert.True(t, graph.Equal(a.Graph, b.Graph))
	assert.Equal(t, graph.Fingerprint(a.Graph), graph.Fingerprint(b.Graph))
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, chunk("ACGT"), opts(3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_RejectsBadK(t *testing.T) {
	_, err := Build(context.Background(), chunk("ACGT"), opts(0))
	assert.Error(t, err)
}

func TestParsePromotion(t *testing.T) {
	p, err := ParsePromotion("first-sighting")
	require.NoError(t, err)
	assert.Equal(t, FirstSighting, p)
	p, err = ParsePromotion("")
	require.NoError(t, err)
	assert.Equal(t, SecondSighting, p)
	_, err = ParsePromotion("third")
	assert.Error(t, err)
	assert.Equal(t, "first-sighting", FirstSighting.String())
}
