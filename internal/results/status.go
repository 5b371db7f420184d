// Package results inspects run output trees: which runs finished and what
// their metrics were.
package results

import (
	"path/filepath"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/runconfig"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/stage"
)

type RunStatus struct {
	RunNr      int
	ParamSetID int
	Replicate  int
	Dir        string
	Done       bool
}

// SetStatus aggregates the replicates of one parameter set.
type SetStatus struct {
	ParamSetID int
	Label      string
	Done       int
	Total      int
}

type Report struct {
	Runs []RunStatus
	Sets []SetStatus
}

// Completed counts finished runs.
func (r *Report) Completed() int {
	n := 0
	for _, run := range r.Runs {
		if run.Done {
			n++
		}
	}
	return n
}

// Fractions returns the completed share of each parameter set, in id order.
func (r *Report) Fractions() []float64 {
	out := make([]float64, len(r.Sets))
	for i, s := range r.Sets {
		if s.Total > 0 {
			out[i] = float64(s.Done) / float64(s.Total)
		}
	}
	return out
}

// Status checks every run's directory under root for the expected outputs.
// root is a per-version data or results directory. With no patterns a run
// counts as done when its directory exists.
func Status(t *grid.Table, ix *runindex.Indexer, root string, patterns []string) *Report {
	rep := &Report{
		Runs: make([]RunStatus, 0, ix.Total()),
		Sets: make([]SetStatus, t.Len()),
	}
	for i, row := range t.Rows {
		rep.Sets[i] = SetStatus{ParamSetID: row.ID, Label: row.Label, Total: ix.Replicates()}
	}
	for _, rec := range ix.All() {
		dir := filepath.Join(root, filepath.FromSlash(runconfig.OutputDir(rec.ParamSetID, rec.Replicate)))
		done := stage.Complete(dir, patterns)
		rep.Runs = append(rep.Runs, RunStatus{
			RunNr:      rec.RunNr,
			ParamSetID: rec.ParamSetID,
			Replicate:  rec.Replicate,
			Dir:        dir,
			Done:       done,
		})
		if done && rec.ParamSetID <= len(rep.Sets) {
			rep.Sets[rec.ParamSetID-1].Done++
		}
	}
	return rep
}
