package purchase

import (
	"context"
	"errors"
	"purchase-automation/internal/config"

	"golang.org/x/sync/errgroup"
)

// RunAll runs every request, one after the other or, in parallel mode,
// with at most MaxParallelRuns sessions at once. Every result is returned
// in the order of the requests, the errors of failed runs are joined.
// Requests left when ctx is cancelled still go through Run so they are
// recorded as failed.
func (r Runner) RunAll(ctx context.Context, requests []Request) ([]Result, error) {
	ctx, span := tracer.Start(ctx, "Runner:RunAll")
	defer span.End()

	results := make([]Result, len(requests))
	errs := make([]error, len(requests))

	if r.opts.RunMode != config.Parallel {
		for i, req := range requests {
			results[i], errs[i] = r.Run(ctx, req)
		}
		return results, errors.Join(errs...)
	}

	// runs must not cancel each other, so the group has no context
	group := errgroup.Group{}
	group.SetLimit(r.opts.MaxParallelRuns)
	for i, req := range requests {
		group.Go(func() error {
			results[i], errs[i] = r.Run(ctx, req)
			return nil
		})
	}
	group.Wait()

	return results, errors.Join(errs...)
}

// Requests turns products into purchase requests.
func Requests(products []Product, placeOrder bool) []Request {
	out := make([]Request, len(products))
	for i, p := range products {
		out[i] = Request{Product: p, PlaceOrder: placeOrder}
	}
	return out
}
