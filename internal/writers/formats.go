// internal/writers/formats.go
package writers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"kgraph/internal/graph"
	"kgraph/pkg/api"
)

// TSVHeader is the column header of the adjacency section of TSV output.
// Keep this as the single source of truth; the TSV writer uses it.
const TSVHeader = "kind\tfrom\tto\tkmer\tcount\tsources"

func init() {
	RegisterWriter("tsv", writeTSV)
	RegisterWriter("json", writeJSON)
	RegisterWriter("jsonl", writeJSONL)
	RegisterWriter("gfa", writeGFA)
	RegisterWriter("msgpack", writeMsgpack)

	RegisterReader("json", readJSON)
	RegisterReader("msgpack", readMsgpack)
}

func joinSources(p graph.Provenance) string {
	if len(p) == 0 {
		return "."
	}
	return strings.Join(p, ",")
}

// writeTSV emits "# key\tvalue" summary lines, the header, then one N row
// per node and one E row per edge.
func writeTSV(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	s := g.Summary()
	fmt.Fprintf(bw, "# k\t%d\n# nodes\t%d\n# edges\t%d\n", s.K, s.Nodes, s.Edges)
	fmt.Fprintf(bw, "# shared_nodes\t%d\n# shared_edges\t%d\n", s.SharedNodes, s.SharedEdges)
	fmt.Fprintln(bw, TSVHeader)
	for _, n := range g.Nodes() {
		fmt.Fprintf(bw, "N\t%s\t\t\t%d\t%s\n", n.Seq, n.Count, joinSources(n.Sources))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "E\t%s\t%s\t%s\t%d\t%s\n", e.From, e.To, e.Kmer(), e.Multiplicity, joinSources(e.Sources))
	}
	return bw.Flush()
}

// writeJSON writes a single indented api.GraphV1 document.
func writeJSON(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToAPI(g))
}

func readJSON(r io.Reader) (*graph.Graph, error) {
	var v api.GraphV1
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return FromAPI(v)
}

// writeJSONL streams one api.RecordV1 per line: the summary, every node,
// then every edge.
func writeJSONL(w io.Writer, g *graph.Graph) error {
	in, done := StartRecordJSONLWriter(w, 256)
	s := ToAPISummary(g.Summary())
	in <- api.RecordV1{Type: "summary", Summary: &s}
	for _, n := range g.Nodes() {
		v := ToAPINode(n)
		in <- api.RecordV1{Type: "node", Node: &v}
	}
	for _, e := range g.Edges() {
		v := ToAPIEdge(e)
		in <- api.RecordV1{Type: "edge", Edge: &v}
	}
	close(in)
	return <-done
}

// writeGFA emits GFA 1.0: one segment per node, one link per edge with an
// overlap of k-2 bases. Segment names are the node contents.
func writeGFA(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	overlap := max(g.K()-2, 0)
	fmt.Fprintln(bw, "H\tVN:Z:1.0")
	for _, n := range g.Nodes() {
		seq := n.Seq
		if seq == "" {
			seq = "*"
		}
		fmt.Fprintf(bw, "S\t%s\t%s\tRC:i:%d\n", segmentName(n.Seq), seq, n.Count)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "L\t%s\t+\t%s\t+\t%dM\tRC:i:%d\n",
			segmentName(e.From), segmentName(e.To), overlap, e.Multiplicity)
	}
	return bw.Flush()
}

func segmentName(seq string) string {
	if seq == "" {
		return "empty"
	}
	return seq
}

func writeMsgpack(w io.Writer, g *graph.Graph) error {
	return msgpack.NewEncoder(w).Encode(ToAPI(g))
}

func readMsgpack(r io.Reader) (*graph.Graph, error) {
	var v api.GraphV1
	if err := msgpack.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return FromAPI(v)
}
