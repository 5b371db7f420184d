package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/sweep"
)

const (
	GridFile      = "Parameter_Combinations.csv"
	ParamDirName  = "Parameter_Files"
	ConfigDirName = "Config_Files"
	ManifestFile  = "manifest.yaml"
	CatalogFile   = "catalog.db"
)

// Store owns the layout of one analysis version directory.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }
func (s *Store) GridPath() string { return filepath.Join(s.baseDir, GridFile) }
func (s *Store) ParamDir() string { return filepath.Join(s.baseDir, ParamDirName) }
func (s *Store) ConfigDir() string { return filepath.Join(s.baseDir, ConfigDirName) }
func (s *Store) ManifestPath() string { return filepath.Join(s.baseDir, ManifestFile) }
func (s *Store) CatalogPath() string { return filepath.Join(s.baseDir, CatalogFile) }

// EncodeGrid renders the grid artifact.
func EncodeGrid(t *grid.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.Records()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGrid replaces the grid artifact with t.
func (s *Store) WriteGrid(t *grid.Table) error {
	data, err := EncodeGrid(t)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.GridPath(), data, 0644)
}

// LoadGrid reads the grid artifact back and checks it against schema.
func (s *Store) LoadGrid(schema sweep.Schema) (*grid.Table, error) {
	file, err := os.Open(s.GridPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sweep.PathErr("load grid", s.GridPath(), err)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, sweep.SchemaErr("load grid", err, "%s", s.GridPath())
	}
	return grid.FromRecords(schema, records)
}

// WriteFileAtomic writes data to a temporary sibling and renames it over
// path, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
