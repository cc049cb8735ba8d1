package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgraph/internal/store"
	"kgraph/pkg/api"
)

func writeInput(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	return p
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errB bytes.Buffer
	code = Run(args, &out, &errB)
	return code, out.String(), errB.String()
}

func TestHelp(t *testing.T) {
	code, out, _ := run(t, "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "merge")
	assert.Contains(t, out, "serve")
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "--version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "kgraph version "))
}

func TestUsageErrors(t *testing.T) {
	code, _, errOut := run(t, "build")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "kgraph:")

	code, _, _ = run(t, "frobnicate")
	assert.Equal(t, 2, code)

	code, _, _ = run(t, "build", "-k", "0", "x.fa")
	assert.Equal(t, 2, code)

	code, _, _ = run(t, "build", filepath.Join(t.TempDir(), "*.fa"))
	assert.Equal(t, 2, code)
}

func TestBuild_MissingInputIsRuntimeError(t *testing.T) {
	code, _, errOut := run(t, "build", "-k", "4", filepath.Join(t.TempDir(), "missing.fa"))
	assert.Equal(t, 3, code)
	assert.Contains(t, errOut, "missing.fa")
}

func TestBuild_Scenario(t *testing.T) {
	fa := writeInput(t, t.TempDir(), "s.fa", ">s\nACGTACGTT\n")
	code, out, errOut := run(t, "build", "-k", "4", fa)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "# nodes\t2\n")
	assert.Contains(t, out, "# edges\t1\n")
	assert.Contains(t, out, "E\tACG\tCGT\tACGT\t1\t.\n")
}

func TestBuild_StoreAndReport(t *testing.T) {
	dir := t.TempDir()
	fa := writeInput(t, dir, "h1.fa", ">h1\nCCCGATTACAGCTCCC\n")
	fb := writeInput(t, dir, "h2.fa", ">h2\nGGGGATTACAGCTGGG\n")
	db := filepath.Join(dir, "g.db")
	rep := filepath.Join(dir, "report.json")
	out := filepath.Join(dir, "g.json.gz")

	code, _, errOut := run(t, "build", "-k", "5", "--promotion", "first-sighting", "--provenance",
		"--keep-filter", "--canonical", "--store", db, "--report", rep, "-o", out, fa, fb)
	require.Equal(t, 0, code, errOut)

	raw, err := os.ReadFile(rep)
	require.NoError(t, err)
	var r api.ReportV1
	require.NoError(t, json.Unmarshal(raw, &r))
	assert.Equal(t, 1, r.Chunks)
	assert.Len(t, r.Fingerprint, 32)
	require.NotNil(t, r.Analysis)
	assert.Equal(t, []string{"h1", "h2"}, r.Summary.Sources)
	assert.Positive(t, r.Summary.SharedEdges)

	st, err := store.Open(db, true, nil)
	require.NoError(t, err)
	defer st.Close()
	meta, err := st.Meta()
	require.NoError(t, err)
	assert.Equal(t, r.Fingerprint, meta.Fingerprint)
	assert.Equal(t, r.RunID, meta.RunID)
	assert.True(t, meta.Canonical)
	f, err := st.Filter()
	require.NoError(t, err)
	assert.True(t, f.Contains([]byte("ATTAC")) || f.Contains([]byte("GTAAT")))

	_, err = os.Stat(out)
	require.NoError(t, err)
}

func TestBuild_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	fa := writeInput(t, dir, "s.fa", ">s\nACGTACGTT\n")
	mf := filepath.Join(dir, "build.prom")
	code, _, errOut := run(t, "build", "-k", "4", "--metrics-file", mf, "-o", filepath.Join(dir, "g.tsv"), fa)
	require.Equal(t, 0, code, errOut)

	raw, err := os.ReadFile(mf)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `kgraph_chunks_processed_total{outcome="ok"} 1`)
	assert.Contains(t, text, `kgraph_kmers_total{kind="emitted"} 6`)
	assert.Contains(t, text, "kgraph_graph_nodes 2")
	assert.Contains(t, text, "kgraph_graph_edges 1")
	assert.Contains(t, text, "kgraph_merge_duration_seconds_count 1")
}

func TestMerge_EqualsSingleBuild(t *testing.T) {
	dir := t.TempDir()
	fa := writeInput(t, dir, "a.fa", ">a\nACGTTGCAACGGT\n")
	fb := writeInput(t, dir, "b.fa", ">b\nTTGCAACGGTACC\n")
	common := []string{"-k", "5", "--promotion", "first-sighting", "--provenance"}

	pa := filepath.Join(dir, "a.msgpack")
	pb := filepath.Join(dir, "b.json")
	code, _, errOut := run(t, append(append([]string{"build"}, common...), "-o", pa, fa)...)
	require.Equal(t, 0, code, errOut)
	code, _, errOut = run(t, append(append([]string{"build"}, common...), "-o", pb, fb)...)
	require.Equal(t, 0, code, errOut)

	code, merged, errOut := run(t, "merge", "-f", "json", pa, pb)
	require.Equal(t, 0, code, errOut)
	code, whole, errOut := run(t, append(append([]string{"build"}, common...), "-f", "json", fa, fb)...)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, whole, merged)
}

func TestMerge_IncompatibleK(t *testing.T) {
	dir := t.TempDir()
	fa := writeInput(t, dir, "a.fa", ">a\nACGTTGCAACGGT\n")
	p4 := filepath.Join(dir, "k4.json")
	p5 := filepath.Join(dir, "k5.json")
	code, _, _ := run(t, "build", "-k", "4", "-o", p4, fa)
	require.Equal(t, 0, code)
	code, _, _ = run(t, "build", "-k", "5", "-o", p5, fa)
	require.Equal(t, 0, code)

	code, _, errOut := run(t, "merge", p4, p5)
	assert.Equal(t, 3, code)
	assert.Contains(t, errOut, "different k")
}

func TestServe_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	fa := writeInput(t, dir, "a.fa", ">a\nACGTTGCAACGGT\n")
	db := filepath.Join(dir, "g.db")
	code, _, errOut := run(t, "build", "-k", "4", "--store", db, "-o", filepath.Join(dir, "g.tsv"), fa)
	require.Equal(t, 0, code, errOut)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var out, errB bytes.Buffer
	code = RunContext(ctx, []string{"serve", "--store", db, "--listen", "127.0.0.1:0"}, &out, &errB)
	assert.Equal(t, 0, code, errB.String())
	assert.Contains(t, errB.String(), "serving graph")
}

func TestServe_MissingStore(t *testing.T) {
	code, _, _ := run(t, "serve", "--store", filepath.Join(t.TempDir(), "none.db"), "--listen", "127.0.0.1:0")
	assert.Equal(t, 3, code)
}
