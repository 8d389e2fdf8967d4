package runner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/servinagrero/monaco/internal/ctxlog"
)

// runAllParallel runs every top-level job concurrently. Failures are
// collected rather than propagated, so every job still gets its chance to
// run, matching the sequential semantics. Shared dependencies serialize on
// the per-node body locks.
func (r *Runner) runAllParallel(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running jobs in parallel.", "jobs", r.graph.Len())

	var g errgroup.Group
	var mu sync.Mutex
	var failed int

	for i := 0; i < r.graph.Len(); i++ {
		i := i
		name := r.graph.Node(i).Job.Name
		g.Go(func() error {
			err := r.runNode(ctx, i, nil, nil)
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return err
			}
			logger.Error("Job failed.", "job", name, "error", err)
			mu.Lock()
			failed++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d job(s) failed", failed)
	}
	return nil
}
