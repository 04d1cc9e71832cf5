package stats

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkRows is the number of items folded by one task when Options.ChunkRows is unset.
const DefaultChunkRows = 4096

// Options controls how the calculators split their input into independently folded chunks.
type Options struct {
	// Workers bounds concurrent chunk folds; values <= 0 mean 1.
	Workers int
	// ChunkRows is the number of items per chunk; values <= 0 mean DefaultChunkRows.
	ChunkRows int
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

func (o Options) chunkRows() int {
	if o.ChunkRows <= 0 {
		return DefaultChunkRows
	}
	return o.ChunkRows
}

type span struct{ lo, hi int }

func chunkSpans(n, size int) []span {
	out := make([]span, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		out = append(out, span{lo, hi})
	}
	return out
}

// foldChunks reduces items with seq inside each chunk and combines the partial
// accumulators with comb in chunk order, so the result does not depend on
// scheduling. comb must be associative.
func foldChunks[T, A any](ctx context.Context, items []T, opt Options, zero func() A, seq func(A, T) A, comb func(A, A) A) (A, error) {
	spans := chunkSpans(len(items), opt.chunkRows())
	parts := make([]A, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.workers())
	for c, s := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			acc := zero()
			for _, it := range items[s.lo:s.hi] {
				acc = seq(acc, it)
			}
			parts[c] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var z A
		return z, err
	}
	out := zero()
	for _, p := range parts {
		out = comb(out, p)
	}
	return out, nil
}
