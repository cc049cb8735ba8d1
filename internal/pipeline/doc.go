// Package pipeline partitions sequences into chunks, builds one partial
// graph per chunk on a fixed worker pool, and reduces the partials into a
// frozen final graph.
//
// Each worker owns its chunk's filter and partial graph, so the parallel
// phase takes no locks. The only contract to implement is ChunkBuilder,
// which keeps the pipeline testable with fakes.
package pipeline
