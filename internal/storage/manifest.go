package storage

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/san-kum/powersweep/internal/sweep"
	"gopkg.in/yaml.v3"
)

// fingerprintSpace namespaces sweep fingerprints.
var fingerprintSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/san-kum/powersweep/manifest"))

// Manifest records the shape of a generated sweep so execution-phase
// consumers can detect a mismatch with their own configuration.
type Manifest struct {
	AnalysisVersion string   `yaml:"analysis_version"`
	ParamSets       int      `yaml:"param_sets"`
	Replicates      int      `yaml:"replicates"`
	TotalRuns       int      `yaml:"total_runs"`
	Parameters      []string `yaml:"parameters"`
	Special         string   `yaml:"special"`
	LabelColumn     string   `yaml:"label_column,omitempty"`
	Fingerprint     string   `yaml:"fingerprint"`
}

// Fingerprint derives a stable identifier from the grid artifact and R.
// Identical sweeps always produce the same value.
func Fingerprint(gridCSV []byte, replicates int) string {
	data := append([]byte(strconv.Itoa(replicates)+"\n"), gridCSV...)
	return uuid.NewSHA1(fingerprintSpace, data).String()
}

// Schema rebuilds the grid schema. Parameter values are not
// stored; only names and order matter for reading the grid back.
func (m *Manifest) Schema() (sweep.Schema, error) {
	decl := sweep.Declaration{Special: m.Special, LabelColumn: m.LabelColumn}
	for _, name := range m.Parameters {
		decl.Parameters = append(decl.Parameters, sweep.Parameter{Name: name, Values: []string{""}})
	}
	return decl.Schema()
}

func (s *Store) WriteManifest(m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.ManifestPath(), data, 0644)
}

func (s *Store) LoadManifest() (*Manifest, error) {
	data, err := os.ReadFile(s.ManifestPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sweep.PathErr("load manifest", s.ManifestPath(), err)
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, sweep.SchemaErr("load manifest", err, "%s", s.ManifestPath())
	}
	if m.ParamSets < 1 || m.Replicates < 1 || m.TotalRuns != m.ParamSets*m.Replicates {
		return nil, sweep.Schemaf("load manifest", "inconsistent shape S=%d R=%d runs=%d", m.ParamSets, m.Replicates, m.TotalRuns)
	}
	return &m, nil
}
