package config

import (
	"sort"

	"github.com/san-kum/powersweep/internal/declfile"
	"github.com/san-kum/powersweep/internal/sweep"
)

var Presets = map[string]*Config{
	"binary": {
		AnalysisVersion: "Version1",
		Replicates:      2,
		Template:        "Template_Parameters_Binary.txt",
		Special:         "SELRANGE",
		LabelColumn:     "Sel_Coeff_ID",
		Parameters: declfile.ParameterMap{
			{Name: "SELRANGE", Values: []string{"0 300 300", "0 20 20"}},
			{Name: "TIMERANGE", Values: []string{"800/40000", "2000/40000", "200/40000"}},
			{Name: "LEN", Values: []string{"80000"}},
		},
		Stages: map[string]StageConfig{
			StageSimulate: {
				Command:         []string{"bash", "generate_dataset.sh"},
				ExpectedOutputs: []string{"gene_sim_Batch*.binary"},
			},
			StageTrain: {
				Command:         []string{"python", "train_model.py"},
				ExpectedOutputs: []string{"test_metrics.csv", "model.binary.h5"},
			},
		},
	},
	"smoke": {
		AnalysisVersion: "Smoke",
		Replicates:      2,
		Template:        "Template_Parameters.txt",
		Special:         "SELRANGE",
		Parameters: declfile.ParameterMap{
			{Name: "SELRANGE", Values: []string{"0 300 300", "0 20 20"}},
			{Name: "LEN", Values: []string{"1000"}},
		},
		Stages: map[string]StageConfig{
			StageSimulate: {
				Command:         []string{"sh", "-c", `cp "$1" "$2/params.txt"`, "simulate"},
				ExpectedOutputs: []string{"params.txt"},
			},
			StageTrain: {
				Command:         []string{"sh", "-c", `printf 'Test_Loss,Test_Accuracy\n0.5,0.75\n' > "$2/test_metrics.csv"`, "train"},
				ExpectedOutputs: []string{"test_metrics.csv"},
			},
		},
	},
}

// GetPreset returns a copy of the named preset filled in with defaults, or
// nil if it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.AnalysisVersion = p.AnalysisVersion
	cfg.Replicates = p.Replicates
	cfg.Template = p.Template
	cfg.Special = p.Special
	cfg.LabelColumn = p.LabelColumn
	cfg.Parameters = make(declfile.ParameterMap, len(p.Parameters))
	for i, param := range p.Parameters {
		cfg.Parameters[i] = sweep.Parameter{Name: param.Name, Values: append([]string(nil), param.Values...)}
	}
	for name, st := range p.Stages {
		cfg.Stages[name] = StageConfig{
			Command:         append([]string(nil), st.Command...),
			Input:           st.Input,
			Output:          st.Output,
			ExpectedOutputs: append([]string(nil), st.ExpectedOutputs...),
		}
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
