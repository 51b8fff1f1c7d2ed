package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"catalogetl/pkg/records"
)

// RunAll executes every spec over the same cleaned batch and returns the
// tables in spec order. Reports are mutually independent and the input is
// immutable, so they run concurrently; workers bounds the parallelism
// (<= 0 means one goroutine per report).
//
// Specs are all validated up front so a config error surfaces before any
// report is computed.
func RunAll(ctx context.Context, recs []records.Record, specs []Spec, workers int) ([]*ResultTable, error) {
	fields := fieldSet(recs)
	for _, s := range specs {
		if err := CheckSpec(s, fields); err != nil {
			return nil, err
		}
	}

	tables := make([]*ResultTable, len(specs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, s := range specs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := Run(recs, s)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
