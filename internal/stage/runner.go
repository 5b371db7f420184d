package stage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/runconfig"
	"github.com/san-kum/powersweep/internal/sweep"
)

// Layout holds the per-version roots. Every field already includes the
// analysis version.
type Layout struct {
	VersionDir string
	DataDir    string
	ResultsDir string
}

// Paths are the absolute locations of one run.
type Paths struct {
	ParamFile  string
	DataDir    string
	ResultsDir string
}

func (p Paths) Get(kind PathKind) string {
	switch kind {
	case ParamFile:
		return p.ParamFile
	case DataDir:
		return p.DataDir
	case ResultsDir:
		return p.ResultsDir
	}
	return ""
}

// Result describes a finished stage invocation.
type Result struct {
	RunNr    int
	Stage    string
	Input    string
	Output   string
	Duration time.Duration
}

// Runner resolves a run number to paths and dispatches to a stage's
// collaborator. It carries no domain logic of its own.
type Runner struct {
	// Layout locates the version, data and results directories.
	Layout Layout

	// Configs reads run descriptors.
	Configs *runconfig.Manager

	// Stages maps stage names to collaborators.
	Stages *Registry

	// Clean empties the output directory before invoking, so reruns start
	// from nothing.
	Clean bool

	logger *zap.Logger
}

func NewRunner(layout Layout, configs *runconfig.Manager, stages *Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Layout: layout, Configs: configs, Stages: stages, logger: logger}
}

// Resolve reads the run's descriptor and computes its absolute paths.
func (r *Runner) Resolve(runNr int) (*runconfig.Descriptor, Paths, error) {
	d, err := r.Configs.Read(runNr)
	if err != nil {
		return nil, Paths{}, err
	}
	rel := filepath.FromSlash(d.RunOutputDir)
	paths := Paths{
		ParamFile:  filepath.Join(r.Layout.VersionDir, filepath.FromSlash(d.ParamFilePath)),
		DataDir:    filepath.Join(r.Layout.DataDir, rel),
		ResultsDir: filepath.Join(r.Layout.ResultsDir, rel),
	}
	for _, p := range []*string{&paths.ParamFile, &paths.DataDir, &paths.ResultsDir} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, Paths{}, err
		}
		*p = abs
	}
	return d, paths, nil
}

// Run executes one stage for one run number.
func (r *Runner) Run(ctx context.Context, stageName string, runNr int) (*Result, error) {
	st, err := r.Stages.Get(stageName)
	if err != nil {
		return nil, err
	}
	_, paths, err := r.Resolve(runNr)
	if err != nil {
		return nil, err
	}
	in, out := paths.Get(st.Input), paths.Get(st.Output)

	if _, err := os.Stat(in); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sweep.PathErr("run "+stageName, in, err)
		}
		return nil, err
	}
	// a stage that writes into its own input directory is never cleaned
	if r.Clean && st.Input != st.Output {
		if err := os.RemoveAll(out); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, err
	}

	log := r.logger.With(zap.String("stage", stageName), zap.Int("run_nr", runNr))
	log.Info("invoking collaborator", zap.String("input", in), zap.String("output", out))

	start := time.Now()
	if err := st.Collaborator.Invoke(ctx, in, out); err != nil {
		log.Error("collaborator failed", zap.Error(err))
		return nil, fmt.Errorf("run %d: %w", runNr, err)
	}
	elapsed := time.Since(start)

	if err := checkOutputs(out, st.ExpectedOutputs); err != nil {
		log.Error("expected output missing", zap.Error(err))
		return nil, err
	}

	log.Info("stage completed", zap.Duration("elapsed", elapsed))
	return &Result{RunNr: runNr, Stage: stageName, Input: in, Output: out, Duration: elapsed}, nil
}

func checkOutputs(dir string, patterns []string) error {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("expected output %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return sweep.PathErr("check outputs", filepath.Join(dir, pattern), nil)
		}
	}
	return nil
}

// Complete reports whether dir holds every expected output.
func Complete(dir string, patterns []string) bool {
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	return checkOutputs(dir, patterns) == nil
}
