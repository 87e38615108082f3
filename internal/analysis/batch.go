package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
)

// #region compute-one
// Compute analyzes s with its config looked up in table and the engine's gauge length.
func (e *Engine) Compute(s Specimen, table *specimen.Table) SpecimenResult {
	var cfg *specimen.Config
	if c, ok := table.Lookup(s.ID); ok {
		cfg = &c
	}
	return e.ComputeSpecimenResult(s.ID, s.Load, s.Displacement, cfg, 0)
}
// #endregion compute-one

// #region batch
// ProcessBatch analyzes specimens in order. A failing specimen only
// affects its own result.
func (e *Engine) ProcessBatch(specimens []Specimen, table *specimen.Table) []SpecimenResult {
	results := make([]SpecimenResult, len(specimens))
	for i, s := range specimens {
		results[i] = e.Compute(s, table)
	}
	return results
}

// ProcessBatchParallel is ProcessBatch spread across workers goroutines.
// Results keep input order. The only error is ctx cancellation, in which
// case specimens not yet started are left as zero values.
func (e *Engine) ProcessBatchParallel(ctx context.Context, specimens []Specimen, table *specimen.Table, workers int) ([]SpecimenResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]SpecimenResult, len(specimens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range specimens {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Compute(specimens[i], table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
// #endregion batch
