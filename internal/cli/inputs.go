// internal/cli/inputs.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var sequenceExts = []string{".fa", ".fasta", ".fna", ".fq", ".fastq"}

func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

// isSequenceFile matches the extensions picked up from directories,
// with or without a trailing .gz.
func isSequenceFile(name string) bool {
	name = strings.TrimSuffix(strings.ToLower(name), ".gz")
	for _, ext := range sequenceExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// ExpandInputs expands globs among positional inputs and replaces a
// directory with the sequence files directly inside it, sorted. "-" and
// plain paths pass through unchanged.
func ExpandInputs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if a == "-" {
			out = append(out, a)
			continue
		}
		if hasGlobMeta(a) {
			m, err := filepath.Glob(a)
			if err != nil {
				return nil, fmt.Errorf("bad glob %q: %v", a, err)
			}
			if len(m) == 0 {
				return nil, fmt.Errorf("no input matched %q", a)
			}
			out = append(out, m...)
			continue
		}
		if fi, err := os.Stat(a); err == nil && fi.IsDir() {
			entries, err := os.ReadDir(a)
			if err != nil {
				return nil, err
			}
			var files []string
			for _, e := range entries {
				if !e.IsDir() && isSequenceFile(e.Name()) {
					files = append(files, filepath.Join(a, e.Name()))
				}
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no sequence files in directory %q", a)
			}
			sort.Strings(files)
			out = append(out, files...)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
