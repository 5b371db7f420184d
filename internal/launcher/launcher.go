// Package launcher runs a stage over a range of run numbers on the local
// machine, standing in for a scheduler array job.
package launcher

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/powersweep/internal/stage"
	"github.com/san-kum/powersweep/internal/sweep"
)

// StageRunner is the per-run entry point; *stage.Runner implements it.
type StageRunner interface {
	Run(ctx context.Context, stageName string, runNr int) (*stage.Result, error)
}

// Outcome is the result of one run. Err is nil on success.
type Outcome struct {
	RunNr  int
	Result *stage.Result
	Err    error
}

type Launcher struct {
	runner   StageRunner
	parallel int
	logger   *zap.Logger
}

// New returns a launcher running at most parallel runs at once. A
// non-positive value uses GOMAXPROCS.
func New(runner StageRunner, parallel int, logger *zap.Logger) *Launcher {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{runner: runner, parallel: parallel, logger: logger}
}

// Run executes stageName for every run number. Runs are independent: a
// failure is recorded in its outcome and never stops the others. Outcomes
// are returned in the order of runs.
func (l *Launcher) Run(ctx context.Context, stageName string, runs []int) []Outcome {
	outcomes := make([]Outcome, len(runs))

	var g errgroup.Group
	g.SetLimit(l.parallel)
	for i, runNr := range runs {
		g.Go(func() error {
			res, err := l.runner.Run(ctx, stageName, runNr)
			outcomes[i] = Outcome{RunNr: runNr, Result: res, Err: err}
			if err != nil {
				l.logger.Warn("run failed", zap.String("stage", stageName), zap.Int("run_nr", runNr), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Failed filters the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Range lists from..to inclusive, checked against the sweep's total.
func Range(from, to, total int) ([]int, error) {
	if to == 0 {
		to = total
	}
	if from < 1 || to > total || from > to {
		return nil, sweep.Validationf("launcher", "run range %d..%d outside [1, %d]", from, to, total)
	}
	runs := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		runs = append(runs, n)
	}
	return runs, nil
}
