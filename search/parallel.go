package search

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// DefaultChunk is the chunk size ParEach uses when given a non-positive one.
const DefaultChunk = 1024

// ParEach splits it until every part covers at most chunk positions and consumes the parts
// concurrently, calling fn for every row. fn runs on several goroutines at once and must only
// write through the positions of its own row. The first error cancels the remaining parts
// and is returned. it is consumed.
func ParEach(ctx context.Context, it *Iter, chunk int, fn func(Row) error) error {
	if chunk <= 0 {
		chunk = DefaultChunk
	}

	var parts []*Iter
	var walk func(part *Iter)
	walk = func(part *Iter) {
		if part.Len() > chunk {
			if left, right, ok := part.Split(); ok {
				walk(left)
				walk(right)
				return
			}
		}
		parts = append(parts, part)
	}
	walk(it.Clone())
	it.front = it.back

	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, part := range parts {
		g.Go(func() error {
			for row := range part.All() {
				if err := ctx.Err(); err != nil {
					return eris.Wrap(err, "")
				}
				if err := fn(row); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
