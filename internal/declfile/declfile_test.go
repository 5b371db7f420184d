package declfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/powersweep/internal/sweep"
)

const yamlDecl = `special: SELRANGE
label_column: Sel_Coeff_ID
parameters:
  TIMERANGE: ["800/40000", "2000/40000", "200/40000"]
  SELRANGE: ["0 300 300", "0 20 20"]
  LEN: [80000]
`

const hclDecl = `
special      = "SELRANGE"
label_column = "Sel_Coeff_ID"

parameter "TIMERANGE" {
  values = ["800/40000", "2000/40000", "200/40000"]
}

parameter "SELRANGE" {
  values = ["0 300 300", "0 20 20"]
}

parameter "LEN" {
  values = [80000]
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func wantDecl() sweep.Declaration {
	return sweep.Declaration{
		Parameters: []sweep.Parameter{
			{Name: "TIMERANGE", Values: []string{"800/40000", "2000/40000", "200/40000"}},
			{Name: "SELRANGE", Values: []string{"0 300 300", "0 20 20"}},
			{Name: "LEN", Values: []string{"80000"}},
		},
		Special:     "SELRANGE",
		LabelColumn: "Sel_Coeff_ID",
	}
}

func TestLoad_YAMLKeepsDeclarationOrder(t *testing.T) {
	decl, err := Load(writeFile(t, "sweep.yaml", yamlDecl))
	require.NoError(t, err)
	assert.Equal(t, wantDecl(), decl)
}

func TestLoad_HCLKeepsBlockOrder(t *testing.T) {
	decl, err := Load(writeFile(t, "sweep.hcl", hclDecl))
	require.NoError(t, err)
	assert.Equal(t, wantDecl(), decl)
}

func TestLoad_HCLNumbers(t *testing.T) {
	decl, err := Load(writeFile(t, "sweep.hcl", `
special = "A"
parameter "A" {
  values = [0.5, 1e3, 7, true]
}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.5", "1000", "7", "true"}, decl.Parameters[0].Values)
}

func TestLoad_ScalarIsConstant(t *testing.T) {
	decl, err := Load(writeFile(t, "sweep.yml", "special: A\nparameters:\n  A: [x, y]\n  LEN: 80000\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"80000"}, decl.Parameters[1].Values)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, sweep.ErrPath)

	_, err = Load(writeFile(t, "sweep.toml", "x = 1"))
	assert.ErrorIs(t, err, sweep.ErrValidation)

	_, err = Load(writeFile(t, "sweep.yaml", "special: A\nparameters:\n  A: []\n"))
	assert.ErrorIs(t, err, sweep.ErrValidation)

	_, err = Load(writeFile(t, "sweep.yaml", "special: A\nparameters:\n  A: [[1, 2]]\n"))
	assert.ErrorIs(t, err, sweep.ErrValidation)

	_, err = Load(writeFile(t, "sweep.hcl", "parameter \"A\" {\n  values = [[1]]\n}\n"))
	assert.ErrorIs(t, err, sweep.ErrValidation)

	_, err = Load(writeFile(t, "sweep.hcl", "parameter \"A\" {\n"))
	assert.ErrorIs(t, err, sweep.ErrValidation)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	want := wantDecl()
	want.Parameters = append(want.Parameters, sweep.Parameter{Name: "FLAG", Values: []string{"yes", "", "0 1"}})

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
