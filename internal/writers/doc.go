// Package writers turns a final graph into serialized outputs and back.
//
// Design:
//   - Writers own all presentation knowledge (TSV, JSON, JSONL, GFA, msgpack).
//   - The graph stays domain-only; the pipeline stays orchestration-only.
//   - JSON, JSONL and msgpack go through pkg/api (v1) for a stable wire format.
//   - Every output is sorted, so equal graphs serialize to equal bytes.
package writers
