// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/internal/app"
	"kgraph/pkg/api"
)

func write(t *testing.T, name, data string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
	return fn
}

func randomFASTA(seed int64, records, length int) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	for r := 0; r < records; r++ {
		fmt.Fprintf(&b, ">r%d\n", r)
		for i := 0; i < length; i++ {
			b.WriteByte("ACGT"[rng.Intn(4)])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func build(t *testing.T, args ...string) string {
	t.Helper()
	var out, errB bytes.Buffer
	code := app.Run(append([]string{"build", "--log-level", "error"}, args...), &out, &errB)
	require.Equal(t, 0, code, errB.String())
	return out.String()
}

func TestEndToEnd(t *testing.T) {
	fa := write(t, "itest.fa", ">s\nACGTACGTT\n")
	var g api.GraphV1
	require.NoError(t, json.Unmarshal([]byte(build(t, "-k", "4", "-f", "json", fa)), &g))
	assert.Equal(t, 4, g.K)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "ACGT", g.Edges[0].Kmer)
	assert.EqualValues(t, 1, g.Edges[0].Multiplicity)
	require.Len(t, g.Nodes, 2)
	for _, n := range g.Nodes {
		assert.EqualValues(t, 1, n.Count)
	}
}

func TestEmptyInput(t *testing.T) {
	fa := write(t, "empty.fa", "")
	var g api.GraphV1
	require.NoError(t, json.Unmarshal([]byte(build(t, "-k", "4", "-f", "json", fa)), &g))
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}

func TestParallelMatchesSerial(t *testing.T) {
	fa := write(t, "par.fa", randomFASTA(7, 40, 200))
	common := []string{"-k", "9", "--chunk-size", "3", "-f", "msgpack", fa}

	serial := build(t, append([]string{"-j", "1", "--reduce", "sequential"}, common...)...)
	parallel := build(t, append([]string{"-j", "4", "--reduce", "tree"}, common...)...)
	assert.Equal(t, serial, parallel)
}

func TestRerunIsByteIdentical(t *testing.T) {
	fa := write(t, "idem.fa", randomFASTA(11, 25, 150))
	for _, format := range []string{"tsv", "json", "jsonl", "gfa", "msgpack"} {
		args := []string{"-k", "7", "--chunk-size", "4", "--provenance", "--label", "record", "-f", format, fa}
		assert.Equal(t, build(t, args...), build(t, args...), format)
	}
}

func TestFirstSightingIsChunkingInvariant(t *testing.T) {
	fa := write(t, "inv.fa", randomFASTA(3, 30, 120))
	one := build(t, "-k", "6", "--promotion", "first-sighting", "--chunk-size", "1000", "-f", "json", fa)
	many := build(t, "-k", "6", "--promotion", "first-sighting", "--chunk-size", "1", "-f", "json", fa)
	assert.Equal(t, one, many)
}
