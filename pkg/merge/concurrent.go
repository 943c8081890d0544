package merge

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
)

// ErrInvalidWorkers is returned when a negative worker count is requested.
var ErrInvalidWorkers = errors.New("invalid worker count")

// MergeProcessCovsConcurrent merges process coverages like
// MergeProcessCovs, merging script groups on up to workers goroutines.
// Zero workers means one per CPU. The result is identical to the
// sequential merge.
func MergeProcessCovsConcurrent(ctx context.Context, processes []coverage.ProcessCov, workers int) (coverage.ProcessCov, error) {
	if workers < 0 {
		return coverage.ProcessCov{}, fmt.Errorf("%w: %d", ErrInvalidWorkers, workers)
	}

	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	groups := groupScripts(processes)
	merged := make([]coverage.ScriptCov, len(groups))
	present := make([]bool, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for idx, group := range groups {
		g.Go(func() error {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}

			merged[idx], present[idx] = MergeScriptCovs(group)

			return nil
		})
	}

	waitErr := g.Wait()
	if waitErr != nil {
		return coverage.ProcessCov{}, fmt.Errorf("merge scripts: %w", waitErr)
	}

	result := make([]coverage.ScriptCov, 0, len(groups))

	for idx, script := range merged {
		if present[idx] {
			result = append(result, script)
		}
	}

	assignScriptIDs(result)

	return coverage.ProcessCov{Result: result}, nil
}
