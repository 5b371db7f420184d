// Package declfile loads sweep declarations from YAML or HCL files.
package declfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/powersweep/internal/sweep"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a sweep declaration.
type File struct {
	Special     string       `yaml:"special"`
	LabelColumn string       `yaml:"label_column,omitempty"`
	Parameters  ParameterMap `yaml:"parameters"`
}

// Declaration converts the file into a sweep declaration.
func (f File) Declaration() sweep.Declaration {
	return sweep.Declaration{
		Parameters:  []sweep.Parameter(f.Parameters),
		Special:     f.Special,
		LabelColumn: f.LabelColumn,
	}
}

// Load reads a declaration, choosing the format by extension.
func Load(path string) (sweep.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sweep.Declaration{}, sweep.PathErr("load sweep", path, err)
		}
		return sweep.Declaration{}, err
	}

	var decl sweep.Declaration
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		decl, err = ParseHCL(data, path)
	case ".yaml", ".yml":
		decl, err = ParseYAML(data)
	default:
		return sweep.Declaration{}, sweep.Validationf("load sweep", "unsupported declaration format %q", filepath.Ext(path))
	}
	if err != nil {
		return sweep.Declaration{}, err
	}
	if err := decl.Validate(); err != nil {
		return sweep.Declaration{}, err
	}
	return decl, nil
}

// ParseYAML decodes a YAML declaration.
func ParseYAML(data []byte) (sweep.Declaration, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return sweep.Declaration{}, &sweep.Error{Kind: sweep.ErrValidation, Op: "parse sweep", Err: err}
	}
	return f.Declaration(), nil
}

// Save writes decl as YAML.
func Save(path string, decl sweep.Declaration) error {
	f := File{
		Special:     decl.Special,
		LabelColumn: decl.LabelColumn,
		Parameters:  ParameterMap(decl.Parameters),
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
