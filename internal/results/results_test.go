package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/sweep"
)

func fixture(t *testing.T) (*grid.Table, *runindex.Indexer) {
	t.Helper()
	tbl, err := grid.Build(sweep.Declaration{
		Parameters: []sweep.Parameter{
			{Name: "SELRANGE", Values: []string{"0 0 0", "0 300 300"}},
			{Name: "LEN", Values: []string{"50000", "100000"}},
		},
		Special: "SELRANGE",
	})
	require.NoError(t, err)
	ix, err := runindex.New(tbl.Len(), 2)
	require.NoError(t, err)
	return tbl, ix
}

func writeMetrics(t *testing.T, root string, id, rep int, header, row string) {
	t.Helper()
	dir := filepath.Join(root, "Param_Set"+strconv.Itoa(id), "Replicate"+strconv.Itoa(rep))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_metrics.csv"), []byte(header+"\n"+row+"\n"), 0644))
}

func TestStatus(t *testing.T) {
	tbl, ix := fixture(t)
	root := t.TempDir()
	writeMetrics(t, root, 1, 1, "Test_Loss,Test_Accuracy", "0.5,0.7")
	writeMetrics(t, root, 1, 2, "Test_Loss,Test_Accuracy", "0.4,0.8")
	writeMetrics(t, root, 3, 2, "Test_Loss,Test_Accuracy", "0.3,0.9")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Param_Set2", "Replicate1"), 0755))

	rep := Status(tbl, ix, root, []string{"test_metrics.csv"})

	assert.Equal(t, 3, rep.Completed())
	require.Len(t, rep.Sets, 4)
	assert.Equal(t, SetStatus{ParamSetID: 1, Label: "0_0_0", Done: 2, Total: 2}, rep.Sets[0])
	assert.Equal(t, 0, rep.Sets[1].Done)
	assert.Equal(t, []float64{1, 0, 0.5, 0}, rep.Fractions())

	loose := Status(tbl, ix, root, nil)
	assert.Equal(t, 4, loose.Completed())
}

func TestCollect(t *testing.T) {
	tbl, ix := fixture(t)
	root := t.TempDir()
	writeMetrics(t, root, 1, 1, "Test_Loss,Test_Accuracy", "0.5,0.7")
	writeMetrics(t, root, 4, 2, "Test_Loss,Test_Accuracy", "0.1,0.95")

	c := NewCollector(root, "test_metrics.csv", nil)
	sum, err := c.Collect(tbl, ix)
	require.NoError(t, err)

	assert.Equal(t, []string{"param_set_id", "derived_label", "SELRANGE", "LEN", "replicate_nr", "run_nr", "Test_Loss", "Test_Accuracy"}, sum.Header)
	assert.Equal(t, [][]string{
		{"1", "0_0_0", "0 0 0", "50000", "1", "1", "0.5", "0.7"},
		{"4", "0_300_300", "0 300 300", "100000", "2", "8", "0.1", "0.95"},
	}, sum.Records)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7}, sum.Missing)

	path, err := c.Write(sum)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, SummaryFile), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestCollect_HeaderMismatch(t *testing.T) {
	tbl, ix := fixture(t)
	root := t.TempDir()
	writeMetrics(t, root, 1, 1, "Test_Loss,Test_Accuracy", "0.5,0.7")
	writeMetrics(t, root, 2, 1, "Loss", "0.5")

	_, err := NewCollector(root, "test_metrics.csv", nil).Collect(tbl, ix)
	assert.ErrorIs(t, err, sweep.ErrSchema)
}

func TestCollect_MalformedMetrics(t *testing.T) {
	tbl, ix := fixture(t)
	root := t.TempDir()
	writeMetrics(t, root, 1, 1, "Test_Loss,Test_Accuracy", "0.5,0.7\n0.6,0.8")

	_, err := NewCollector(root, "test_metrics.csv", nil).Collect(tbl, ix)
	assert.ErrorIs(t, err, sweep.ErrSchema)
}
