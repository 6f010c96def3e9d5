package planner

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"mealprep/catalog"
)

// Seeds derives n consecutive seeds starting at base.
func Seeds(base uint64, n int) []uint64 {
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = base + uint64(i)
	}
	return seeds
}

// ComposeBatch composes one candidate plan per seed in parallel against the same
// catalog. The result is ordered like seeds. Any failure cancels the batch.
func ComposeBatch(ctx context.Context, c *catalog.Catalog, req Request, seeds []uint64) ([]*MealPlan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plans := make([]*MealPlan, len(seeds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := Compose(c, req, NewRand(seed))
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}
