package stage

import (
	"fmt"
	"sort"

	"github.com/san-kum/powersweep/internal/config"
)

// PathKind names one of the resolved paths of a run.
type PathKind string

const (
	ParamFile  PathKind = "param_file"
	DataDir    PathKind = "data_dir"
	ResultsDir PathKind = "results_dir"
)

func parsePathKind(s string) (PathKind, error) {
	switch k := PathKind(s); k {
	case ParamFile, DataDir, ResultsDir:
		return k, nil
	default:
		return "", fmt.Errorf("unknown path kind %q", s)
	}
}

// Stage is a registered collaborator with the paths it consumes and produces.
type Stage struct {
	Name            string
	Input           PathKind
	Output          PathKind
	ExpectedOutputs []string
	Collaborator    Collaborator
}

type Registry struct {
	stages map[string]*Stage
}

// defaultPaths are the path contracts of the built-in stages.
var defaultPaths = map[string][2]PathKind{
	config.StageSimulate: {ParamFile, DataDir},
	config.StageTrain:    {DataDir, ResultsDir},
}

func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]*Stage)}
}

// FromConfig registers every configured stage as an external command run in
// workDir.
func FromConfig(stages map[string]config.StageConfig, workDir string) (*Registry, error) {
	r := NewRegistry()
	for name, sc := range stages {
		in, out := defaultPaths[name][0], defaultPaths[name][1]
		var err error
		if sc.Input != "" {
			if in, err = parsePathKind(sc.Input); err != nil {
				return nil, fmt.Errorf("stage %s input: %w", name, err)
			}
		}
		if sc.Output != "" {
			if out, err = parsePathKind(sc.Output); err != nil {
				return nil, fmt.Errorf("stage %s output: %w", name, err)
			}
		}
		if in == "" || out == "" {
			return nil, fmt.Errorf("stage %s: input and output paths must be set", name)
		}
		if out == ParamFile {
			return nil, fmt.Errorf("stage %s: parameter files are read-only", name)
		}
		r.Register(&Stage{
			Name:            name,
			Input:           in,
			Output:          out,
			ExpectedOutputs: sc.ExpectedOutputs,
			Collaborator:    &Command{Stage: name, Argv: sc.Command, Dir: workDir},
		})
	}
	return r, nil
}

func (r *Registry) Register(s *Stage) {
	r.stages[s.Name] = s
}

func (r *Registry) Get(name string) (*Stage, error) {
	s, ok := r.stages[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s (available: %v)", name, r.List())
	}
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
