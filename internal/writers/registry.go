// internal/writers/registry.go
package writers

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"kgraph/internal/graph"
)

// ErrUnknownFormat is returned for a format with no registered handler.
var ErrUnknownFormat = errors.New("unknown format")

// Writer and reader registries (format → handler). Register in init()
// blocks of the per-format files.
var (
	GraphWriters = map[string]func(w io.Writer, g *graph.Graph) error{}
	GraphReaders = map[string]func(r io.Reader) (*graph.Graph, error){}
)

// Register helpers (idempotent last-wins)
func RegisterWriter(format string, fn func(io.Writer, *graph.Graph) error) {
	GraphWriters[format] = fn
}
func RegisterReader(format string, fn func(io.Reader) (*graph.Graph, error)) {
	GraphReaders[format] = fn
}

// WriteGraph serializes g in format. A downstream consumer closing the
// pipe early is not an error.
func WriteGraph(format string, w io.Writer, g *graph.Graph) error {
	fn, ok := GraphWriters[format]
	if !ok {
		return errors.Wrapf(ErrUnknownFormat, "write %q (have %s)", format, strings.Join(WriterFormats(), ", "))
	}
	if err := fn(w, g); err != nil && !IsBrokenPipe(err) {
		return errors.Wrapf(err, "write %s", format)
	}
	return nil
}

// ReadGraph decodes a graph previously written in format.
func ReadGraph(format string, r io.Reader) (*graph.Graph, error) {
	fn, ok := GraphReaders[format]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFormat, "read %q (have %s)", format, strings.Join(ReaderFormats(), ", "))
	}
	g, err := fn(r)
	return g, errors.Wrapf(err, "read %s", format)
}

func WriterFormats() []string { return keys(GraphWriters) }
func ReaderFormats() []string { return keys(GraphReaders) }

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FormatFromPath guesses a format from a file name, ignoring a trailing
// .gz. It returns "" when the extension is not recognised.
func FormatFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
	switch ext {
	case ".json":
		return "json"
	case ".jsonl", ".ndjson":
		return "jsonl"
	case ".msgpack", ".mp":
		return "msgpack"
	case ".gfa":
		return "gfa"
	case ".tsv", ".txt":
		return "tsv"
	}
	return ""
}
