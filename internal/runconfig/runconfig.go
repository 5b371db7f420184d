// Package runconfig writes and reads the per-run descriptor files that
// execution-phase workers use to find their inputs and outputs.
package runconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/paramfile"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/storage"
	"github.com/san-kum/powersweep/internal/sweep"
)

// RequiredFields must be present in every descriptor file.
var RequiredFields = []string{"param_set_ID", "param_file_name", "param_file_path", "replicate_nr", "run_output_dir"}

var configNameRe = regexp.MustCompile(`^config([0-9]+)\.json$`)

// Descriptor binds a run number to the files and directories its stages use.
type Descriptor struct {
	RunNr         int    `json:"run_nr,omitempty"`
	ParamSetID    int    `json:"param_set_ID"`
	ParamFileName string `json:"param_file_name"`
	ParamFilePath string `json:"param_file_path"`
	ReplicateNr   int    `json:"replicate_nr"`
	RunOutputDir  string `json:"run_output_dir"`
}

// OutputDir is the run's directory below a data or results root. It
// depends only on the two ids.
func OutputDir(paramSetID, replicate int) string {
	return path.Join(fmt.Sprintf("Param_Set%d", paramSetID), fmt.Sprintf("Replicate%d", replicate))
}

// FileName is the descriptor file name for a run.
func FileName(runNr int) string {
	return fmt.Sprintf("config%d.json", runNr)
}

// NewDescriptor builds the descriptor for rec. paramDir is the parameter
// file directory relative to the analysis version directory.
func NewDescriptor(rec runindex.Record, paramDir string) Descriptor {
	name := paramfile.FileName(rec.ParamSetID)
	return Descriptor{
		RunNr:         rec.RunNr,
		ParamSetID:    rec.ParamSetID,
		ParamFileName: name,
		ParamFilePath: path.Join(filepath.ToSlash(paramDir), name),
		ReplicateNr:   rec.Replicate,
		RunOutputDir:  OutputDir(rec.ParamSetID, rec.Replicate),
	}
}

type Manager struct {
	dir    string
	ix     *runindex.Indexer
	logger *zap.Logger
}

func NewManager(dir string, ix *runindex.Indexer, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{dir: dir, ix: ix, logger: logger}
}

func (m *Manager) Dir() string { return m.dir }

func (m *Manager) Path(runNr int) string {
	return filepath.Join(m.dir, FileName(runNr))
}

// Write replaces the descriptor file for runNr.
func (m *Manager) Write(runNr int, d Descriptor) error {
	if d.RunNr == 0 {
		d.RunNr = runNr
	}
	if err := m.check(runNr, d); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return err
	}
	return storage.WriteFileAtomic(m.Path(runNr), buf.Bytes(), 0644)
}

// WriteAll writes every descriptor in run order and removes descriptors
// left over from a larger previous sweep. It stops at the first failure.
func (m *Manager) WriteAll(paramDir string) (int, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return 0, err
	}
	for _, rec := range m.ix.All() {
		if err := m.Write(rec.RunNr, NewDescriptor(rec, paramDir)); err != nil {
			return rec.RunNr - 1, fmt.Errorf("run %d: %w", rec.RunNr, err)
		}
	}

	stale, err := m.prune()
	if err != nil {
		return m.ix.Total(), err
	}
	m.logger.Info("config descriptors written",
		zap.String("dir", m.dir),
		zap.Int("runs", m.ix.Total()),
		zap.Int("stale_removed", stale))
	return m.ix.Total(), nil
}

func (m *Manager) prune() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		match := configNameRe.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= m.ix.Total() {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Read loads and validates the descriptor for runNr.
func (m *Manager) Read(runNr int) (*Descriptor, error) {
	p := m.Path(runNr)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sweep.SchemaErr("read config", err, "no descriptor for run %d", runNr)
		}
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, sweep.SchemaErr("read config", err, "%s", p)
	}
	for _, f := range RequiredFields {
		if _, ok := fields[f]; !ok {
			return nil, sweep.Schemaf("read config", "%s: missing field %q", p, f)
		}
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, sweep.SchemaErr("read config", err, "%s", p)
	}
	if d.RunNr == 0 {
		d.RunNr = runNr
	}
	if err := m.check(runNr, d); err != nil {
		return nil, err
	}
	return &d, nil
}

// check ties a descriptor to the indexer: its ids must be the inverse of
// runNr and its output dir the canonical one.
func (m *Manager) check(runNr int, d Descriptor) error {
	if d.RunNr != runNr {
		return sweep.Schemaf("config", "descriptor for run %d claims run_nr %d", runNr, d.RunNr)
	}
	if d.ParamFileName == "" || d.ParamFilePath == "" {
		return sweep.Schemaf("config", "run %d: empty parameter file reference", runNr)
	}
	if path.Base(filepath.ToSlash(d.ParamFilePath)) != d.ParamFileName {
		return sweep.Schemaf("config", "run %d: param_file_path %q does not name %q", runNr, d.ParamFilePath, d.ParamFileName)
	}
	id, rep, err := m.ix.Inverse(runNr)
	if err != nil {
		return err
	}
	if d.ParamSetID != id || d.ReplicateNr != rep {
		return sweep.Schemaf("config", "run %d maps to (%d, %d) but descriptor holds (%d, %d)", runNr, id, rep, d.ParamSetID, d.ReplicateNr)
	}
	if want := OutputDir(id, rep); d.RunOutputDir != want {
		return sweep.Schemaf("config", "run %d: run_output_dir %q, want %q", runNr, d.RunOutputDir, want)
	}
	return nil
}
