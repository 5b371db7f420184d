package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/powersweep/internal/sweep"
)

func binaryDecl() sweep.Declaration {
	return sweep.Declaration{
		Parameters: []sweep.Parameter{
			{Name: "SELRANGE", Values: []string{"0 300 300", "0 20 20"}},
			{Name: "TIMERANGE", Values: []string{"800/40000", "2000/40000", "200/40000"}},
			{Name: "LEN", Values: []string{"80000"}},
		},
		Special: "SELRANGE",
	}
}

func TestBuild(t *testing.T) {
	tbl, err := Build(binaryDecl())
	require.NoError(t, err)
	require.Equal(t, 6, tbl.Len())

	first, err := tbl.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "0_300_300", first.Label)
	assert.Equal(t, []string{"0 300 300", "800/40000", "80000"}, first.Values)

	last, err := tbl.Row(6)
	require.NoError(t, err)
	assert.Equal(t, "0_20_20", last.Label)
	assert.Equal(t, []string{"0 20 20", "200/40000", "80000"}, last.Values)

	_, err = tbl.Row(7)
	assert.ErrorIs(t, err, sweep.ErrValidation)
}

func TestBuild_MissingSpecial(t *testing.T) {
	decl := binaryDecl()
	decl.Special = "SELCOEFF"

	_, err := Build(decl)
	assert.ErrorIs(t, err, sweep.ErrMissingKey)
}

func TestRecords(t *testing.T) {
	tbl, err := Build(binaryDecl())
	require.NoError(t, err)

	records := tbl.Records()
	require.Len(t, records, 7)
	assert.Equal(t, []string{"param_set_id", "derived_label", "SELRANGE", "TIMERANGE", "LEN"}, records[0])
	assert.Equal(t, []string{"2", "0_300_300", "0 300 300", "2000/40000", "80000"}, records[2])
}

func TestFromRecords_RoundTrip(t *testing.T) {
	tbl, err := Build(binaryDecl())
	require.NoError(t, err)

	back, err := FromRecords(tbl.Schema, tbl.Records())
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, back.Rows)
}

func TestFromRecords_Rejects(t *testing.T) {
	tbl, err := Build(binaryDecl())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([][]string)
	}{
		{"gap in ids", func(r [][]string) { r[3][0] = "9" }},
		{"tampered label", func(r [][]string) { r[1][1] = "0_20_20" }},
		{"short row", func(r [][]string) { r[2] = r[2][:3] }},
		{"bad id", func(r [][]string) { r[1][0] = "one" }},
		{"header", func(r [][]string) { r[0][1] = "Sel_Coeff_ID" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := tbl.Records()
			tt.mutate(records)
			_, err := FromRecords(tbl.Schema, records)
			assert.ErrorIs(t, err, sweep.ErrSchema)
		})
	}
}

func TestColumns_SkipsIdentifierAndLabel(t *testing.T) {
	tbl, err := Build(binaryDecl())
	require.NoError(t, err)

	row, err := tbl.Row(4)
	require.NoError(t, err)

	assert.Equal(t, []Column{
		{Name: "SELRANGE", Value: "0 20 20"},
		{Name: "TIMERANGE", Value: "800/40000"},
		{Name: "LEN", Value: "80000"},
	}, tbl.Columns(row))
}
