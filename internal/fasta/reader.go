// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"kgraph/internal/sequence"
)

// ErrFormat is returned for input that is neither FASTA nor FASTQ.
var ErrFormat = errors.New("not FASTA or FASTQ")

// Label policies.
const (
	LabelRecord = "record" // provenance label is the record ID
	LabelFile   = "file"   // provenance label is the file's base name
)

// Options control how records become sequences.
type Options struct {
	Label string // LabelRecord or LabelFile; empty means LabelRecord. The CLI defaults to LabelFile.
	// Window > 0 splits records longer than Window into windows of Window
	// bases that overlap by Overlap. With Overlap = k-1 no k-mer is lost.
	Window  int
	Overlap int
}

// FileLabel is the label LabelFile assigns to path.
func FileLabel(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Stream reads FASTA or FASTQ from path and calls emit for every sequence
// (or window of one). Returning an error from emit stops the scan.
func Stream(ctx context.Context, path string, opts Options, emit func(sequence.Sequence) error) error {
	switch opts.Label {
	case "", LabelRecord, LabelFile:
	default:
		return fmt.Errorf("unknown label policy %q (want %s|%s)", opts.Label, LabelRecord, LabelFile)
	}
	rc, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	const maxLine = 64 * 1024 * 1024 // allow very long single-line sequences (64 MiB)
	buf := make([]byte, 64*1024)
	sc.Buffer(buf, maxLine)

	fileLabel := FileLabel(path)
	flush := func(id string, seq []byte) error {
		label := id
		if opts.Label == LabelFile {
			label = fileLabel
		}
		return splitWindows(seq, opts.Window, opts.Overlap, func(w []byte) error {
			return emit(sequence.Sequence{Label: label, Bases: append([]byte(nil), w...)})
		})
	}

	// Records with an empty header ID are labelled <file>:<n>, n counting
	// records from 1.
	records := 0
	headerID := func(hdr []byte) string {
		records++
		if id := parseHeaderID(hdr); id != "" {
			return id
		}
		return fmt.Sprintf("%s:%d", fileLabel, records)
	}

	var (
		id       string
		inRecord bool
		seq      = make([]byte, 0, 1<<20)
		format   byte // '>' or '@' once known
		lineNo   int
		fqStep   int // FASTQ: 0 header, 1 sequence, 2 plus, 3 quality
	)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if format == 0 {
			if line[0] != '>' && line[0] != '@' {
				return errors.Wrapf(ErrFormat, "%s: line %d", path, lineNo)
			}
			format = line[0]
		}

		if format == '>' {
			if line[0] == '>' {
				if inRecord {
					if err := flush(id, seq); err != nil {
						return err
					}
				}
				id = headerID(line[1:])
				inRecord = true
				seq = seq[:0]
				continue
			}
			seq = append(seq, line...)
			continue
		}

		switch fqStep {
		case 0:
			if line[0] != '@' {
				return errors.Wrapf(ErrFormat, "%s: line %d: expected '@' header", path, lineNo)
			}
			id = headerID(line[1:])
		case 1:
			seq = append(seq[:0], line...)
		case 2:
			if line[0] != '+' {
				return errors.Wrapf(ErrFormat, "%s: line %d: expected '+' separator", path, lineNo)
			}
		case 3:
			if len(line) != len(seq) {
				return errors.Wrapf(ErrFormat, "%s: line %d: quality length %d != sequence length %d",
					path, lineNo, len(line), len(seq))
			}
			if err := flush(id, seq); err != nil {
				return err
			}
		}
		fqStep = (fqStep + 1) % 4
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	if format == '@' && fqStep != 0 {
		return errors.Wrapf(ErrFormat, "%s: truncated FASTQ record %q", path, id)
	}
	if format == '>' && inRecord {
		return flush(id, seq)
	}
	return nil
}

// ReadAll materializes every sequence from paths, in order.
func ReadAll(ctx context.Context, paths []string, opts Options) ([]sequence.Sequence, error) {
	var out []sequence.Sequence
	for _, p := range paths {
		err := Stream(ctx, p, opts, func(s sequence.Sequence) error {
			out = append(out, s)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func splitWindows(seq []byte, window, overlap int, emit func([]byte) error) error {
	step := window - overlap
	if window <= 0 || len(seq) <= window || step <= 0 {
		return emit(seq)
	}
	for off := 0; ; off += step {
		end := min(off+window, len(seq))
		if err := emit(seq[off:end]); err != nil {
			return err
		}
		if end == len(seq) {
			return nil
		}
	}
}

func parseHeaderID(hdr []byte) string {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i])
	}
	return string(hdr)
}
