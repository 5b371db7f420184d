package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/powersweep/internal/declfile"
	"github.com/san-kum/powersweep/internal/sweep"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile            = "powersweep.yaml"
	DefaultAnalysisVersion = "Version1"
	DefaultWorkDir         = "."
	DefaultDataRoot        = "../Data"
	DefaultResultsRoot     = "../Results"
	DefaultReplicates      = 2
	DefaultTemplate        = "Template_Parameters.txt"
	DefaultMetricsFile     = "test_metrics.csv"

	StageSimulate = "simulate"
	StageTrain    = "train"
)

// DefaultIndexEnv lists the array-index variables of common schedulers, in
// lookup order.
var DefaultIndexEnv = []string{"SLURM_ARRAY_TASK_ID", "PBS_ARRAY_INDEX", "SGE_TASK_ID", "LSB_JOBINDEX"}

type Config struct {
	AnalysisVersion string                 `yaml:"analysis_version"`
	WorkDir         string                 `yaml:"work_dir"`
	DataRoot        string                 `yaml:"data_root"`
	ResultsRoot     string                 `yaml:"results_root"`
	Replicates      int                    `yaml:"replicates"`
	Template        string                 `yaml:"template"`
	StrictTemplate  bool                   `yaml:"strict_template,omitempty"`
	SweepFile       string                 `yaml:"sweep_file,omitempty"`
	Special         string                 `yaml:"special,omitempty"`
	LabelColumn     string                 `yaml:"label_column,omitempty"`
	Parameters      declfile.ParameterMap  `yaml:"parameters,omitempty"`
	IndexEnv        []string               `yaml:"index_env,omitempty"`
	Clean           bool                   `yaml:"clean,omitempty"`
	MetricsFile     string                 `yaml:"metrics_file,omitempty"`
	Stages          map[string]StageConfig `yaml:"stages"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// StageConfig describes an external collaborator. Input and Output name the
// resolved paths handed to it: param_file, data_dir or results_dir. The
// simulate and train stages have built-in defaults.
type StageConfig struct {
	Command         []string `yaml:"command"`
	Input           string   `yaml:"input,omitempty"`
	Output          string   `yaml:"output,omitempty"`
	ExpectedOutputs []string `yaml:"expected_outputs,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		AnalysisVersion: DefaultAnalysisVersion,
		WorkDir:         DefaultWorkDir,
		DataRoot:        DefaultDataRoot,
		ResultsRoot:     DefaultResultsRoot,
		Replicates:      DefaultReplicates,
		Template:        DefaultTemplate,
		IndexEnv:        append([]string(nil), DefaultIndexEnv...),
		MetricsFile:     DefaultMetricsFile,
		Stages:          map[string]StageConfig{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sweep.PathErr("load config", path, err)
		}
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &sweep.Error{Kind: sweep.ErrValidation, Op: "load config", Msg: path, Err: err}
	}
	cfg.dir = filepath.Dir(path)
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets a job script retarget a shared config file.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("POWERSWEEP_ANALYSIS_VERSION"); v != "" {
		c.AnalysisVersion = v
	}
	if v := os.Getenv("POWERSWEEP_WORK_DIR"); v != "" {
		c.WorkDir = v
	}
	if v := os.Getenv("POWERSWEEP_DATA_ROOT"); v != "" {
		c.DataRoot = v
	}
	if v := os.Getenv("POWERSWEEP_RESULTS_ROOT"); v != "" {
		c.ResultsRoot = v
	}
	if v := os.Getenv("POWERSWEEP_REPLICATES"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return sweep.Validationf("config", "POWERSWEEP_REPLICATES=%q is not an integer", v)
		}
		c.Replicates = n
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AnalysisVersion) == "" {
		return sweep.Validationf("config", "analysis_version is required")
	}
	if strings.ContainsAny(c.AnalysisVersion, `/\`) {
		return sweep.Validationf("config", "analysis_version %q must be a single path element", c.AnalysisVersion)
	}
	if c.Replicates < 1 {
		return sweep.Validationf("config", "replicates must be >= 1, got %d", c.Replicates)
	}
	if c.SweepFile != "" && len(c.Parameters) > 0 {
		return sweep.Validationf("config", "declare parameters inline or in sweep_file, not both")
	}
	for name, st := range c.Stages {
		if len(st.Command) == 0 {
			return sweep.Validationf("config", "stage %q has no command", name)
		}
	}
	return nil
}

// Declaration returns the sweep declaration, reading sweep_file when set.
func (c *Config) Declaration() (sweep.Declaration, error) {
	if c.SweepFile != "" {
		decl, err := declfile.Load(c.Resolve(c.SweepFile))
		if err != nil {
			return sweep.Declaration{}, err
		}
		if c.Special != "" {
			decl.Special = c.Special
		}
		if c.LabelColumn != "" {
			decl.LabelColumn = c.LabelColumn
		}
		return decl, nil
	}
	decl := sweep.Declaration{
		Parameters:  []sweep.Parameter(c.Parameters),
		Special:     c.Special,
		LabelColumn: c.LabelColumn,
	}
	if err := decl.Validate(); err != nil {
		return sweep.Declaration{}, err
	}
	return decl, nil
}

// Dir is the directory relative paths resolve against.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// Resolve anchors a relative path at the config file's directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// VersionDir is <work_dir>/<analysis_version>.
func (c *Config) VersionDir() string {
	return filepath.Join(c.Resolve(c.WorkDir), c.AnalysisVersion)
}

// DataDir is <data_root>/<analysis_version>.
func (c *Config) DataDir() string {
	return filepath.Join(c.Resolve(c.DataRoot), c.AnalysisVersion)
}

// ResultsDir is <results_root>/<analysis_version>.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.Resolve(c.ResultsRoot), c.AnalysisVersion)
}
