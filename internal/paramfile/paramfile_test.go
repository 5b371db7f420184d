package paramfile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/sweep"
)

const template = `selRange={SELRANGE}
timeRange={TIMERANGE}
len={LEN}
sel={SELRANGE}
`

func binaryTable(t *testing.T) *grid.Table {
	t.Helper()
	tbl, err := grid.Build(sweep.Declaration{
		Parameters: []sweep.Parameter{
			{Name: "SELRANGE", Values: []string{"0 300 300", "0 20 20"}},
			{Name: "TIMERANGE", Values: []string{"800/40000", "2000/40000", "200/40000"}},
			{Name: "LEN", Values: []string{"80000"}},
		},
		Special: "SELRANGE",
	})
	require.NoError(t, err)
	return tbl
}

func TestRender(t *testing.T) {
	out := Render("selRange={SELRANGE}", []grid.Column{{Name: "SELRANGE", Value: "0 300 300"}})
	assert.Equal(t, "selRange=0 300 300", out)
}

func TestRender_NoRecursiveExpansion(t *testing.T) {
	out := Render("a={A} b={B}", []grid.Column{
		{Name: "A", Value: "{B}"},
		{Name: "B", Value: "2"},
	})
	assert.Equal(t, "a={B} b=2", out)
}

func TestRender_UnknownPlaceholderPassesThrough(t *testing.T) {
	out := Render("x={X} y={Y}", []grid.Column{{Name: "X", Value: "1"}})
	assert.Equal(t, "x=1 y={Y}", out)
}

func TestRenderAll_Idempotent(t *testing.T) {
	tbl := binaryTable(t)
	m := New(template, t.TempDir(), nil)

	first, err := m.RenderAll(tbl)
	require.NoError(t, err)
	second, err := m.RenderAll(tbl)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 6)
	assert.Equal(t, "Parameters1.txt", first[0].Name)
	assert.Equal(t, "selRange=0 300 300\ntimeRange=800/40000\nlen=80000\nsel=0 300 300\n", string(first[0].Content))
	assert.Equal(t, "selRange=0 20 20\ntimeRange=200/40000\nlen=80000\nsel=0 20 20\n", string(first[5].Content))
}

func TestRenderAll_LabelAndIDNeverSubstituted(t *testing.T) {
	tbl := binaryTable(t)
	m := New("{param_set_id} {derived_label} {LEN}", t.TempDir(), nil)

	docs, err := m.RenderAll(tbl)
	require.NoError(t, err)
	assert.Equal(t, "{param_set_id} {derived_label} 80000", string(docs[0].Content))
}

func TestRenderAll_Strict(t *testing.T) {
	tbl := binaryTable(t)
	m := New(template+"mu={MU}\n", t.TempDir(), nil)

	assert.Equal(t, []string{"MU"}, m.Unresolved(tbl.Schema))

	_, err := m.RenderAll(tbl)
	require.NoError(t, err)

	m.Strict = true
	_, err = m.RenderAll(tbl)
	assert.ErrorIs(t, err, sweep.ErrValidation)
}

func TestWrite_Immutable(t *testing.T) {
	tbl := binaryTable(t)
	dir := filepath.Join(t.TempDir(), "Parameter_Files")
	m := New(template, dir, nil)

	docs, err := m.RenderAll(tbl)
	require.NoError(t, err)
	require.NoError(t, m.Write(docs))

	data, err := os.ReadFile(filepath.Join(dir, "Parameters4.txt"))
	require.NoError(t, err)
	assert.Equal(t, docs[3].Content, data)

	// identical regeneration is a no-op
	require.NoError(t, m.Write(docs))

	changed := New("LEN={LEN}\n", dir, nil)
	changedDocs, err := changed.RenderAll(tbl)
	require.NoError(t, err)
	assert.ErrorIs(t, changed.Write(changedDocs), sweep.ErrValidation)

	changed.Force = true
	require.NoError(t, changed.Write(changedDocs))
	data, err = os.ReadFile(filepath.Join(dir, "Parameters4.txt"))
	require.NoError(t, err)
	assert.Equal(t, "LEN=80000\n", string(data))
}

func TestWrite_PrunesFilesOfRemovedSets(t *testing.T) {
	tbl := binaryTable(t)
	dir := filepath.Join(t.TempDir(), "Parameter_Files")
	m := New(template, dir, nil)

	docs, err := m.RenderAll(tbl)
	require.NoError(t, err)
	require.NoError(t, m.Write(docs))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	require.NoError(t, m.Write(docs[:2]))
	assert.FileExists(t, filepath.Join(dir, "Parameters2.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "Parameters3.txt"))
	assert.NoFileExists(t, filepath.Join(dir, fmt.Sprintf("Parameters%d.txt", len(docs))))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	// growing back with new content for the removed sets needs no force
	grown := make([]Document, len(docs))
	copy(grown, docs)
	for i := 2; i < len(grown); i++ {
		grown[i].Content = []byte("regrown\n")
	}
	require.NoError(t, m.Write(grown))
	data, err := os.ReadFile(filepath.Join(dir, "Parameters3.txt"))
	require.NoError(t, err)
	assert.Equal(t, "regrown\n", string(data))
}

func TestLoadTemplate_Missing(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "Template.txt"))
	assert.ErrorIs(t, err, sweep.ErrPath)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"A", "B_2"}, Placeholders("{A} {B_2} {A} {not a placeholder} {}"))
}
