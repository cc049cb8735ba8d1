// internal/writers/jsonl.go
package writers

import (
	"io"

	"kgraph/internal/jsonlutil"
	"kgraph/pkg/api"
)

// StartRecordJSONLWriter streams each api.RecordV1 as one JSON line.
func StartRecordJSONLWriter(out io.Writer, bufSize int) (chan<- api.RecordV1, <-chan error) {
	return jsonlutil.Start[api.RecordV1, api.RecordV1](out, bufSize,
		func(r api.RecordV1) api.RecordV1 { return r },
		IsBrokenPipe,
	)
}
