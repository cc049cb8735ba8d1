// internal/pipeline/chunk_builder.go
package pipeline

import (
	"context"

	"kgraph/internal/builder"
	"kgraph/internal/schedule"
)

// ChunkBuilder is the minimal capability the pipeline needs per chunk.
// Any builder (including fakes in tests) can satisfy this.
type ChunkBuilder interface {
	Build(ctx context.Context, c schedule.Chunk, opts builder.Options) (builder.Result, error)
}

// BuildFunc adapts a function to ChunkBuilder.
type BuildFunc func(ctx context.Context, c schedule.Chunk, opts builder.Options) (builder.Result, error)

func (f BuildFunc) Build(ctx context.Context, c schedule.Chunk, opts builder.Options) (builder.Result, error) {
	return f(ctx, c, opts)
}
