package results

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/runconfig"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/storage"
	"github.com/san-kum/powersweep/internal/sweep"
)

const SummaryFile = "Results_Summary.csv"

// Summary is the grid joined with every run's metrics.
type Summary struct {
	Header  []string
	Records [][]string

	// Missing lists runs without a metrics file.
	Missing []int
}

type Collector struct {
	ResultsDir  string
	MetricsFile string

	logger *zap.Logger
}

func NewCollector(resultsDir, metricsFile string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{ResultsDir: resultsDir, MetricsFile: metricsFile, logger: logger}
}

// Collect reads the metrics file of every run. A metrics file has a header
// row followed by one row of values. All runs must agree on the header.
func (c *Collector) Collect(t *grid.Table, ix *runindex.Indexer) (*Summary, error) {
	sum := &Summary{}
	var metricHeader []string

	for _, rec := range ix.All() {
		rel := filepath.FromSlash(runconfig.OutputDir(rec.ParamSetID, rec.Replicate))
		path := filepath.Join(c.ResultsDir, rel, c.MetricsFile)

		header, values, err := readMetrics(path)
		if errors.Is(err, fs.ErrNotExist) {
			sum.Missing = append(sum.Missing, rec.RunNr)
			continue
		}
		if err != nil {
			return nil, err
		}
		if metricHeader == nil {
			metricHeader = header
		} else if !slices.Equal(metricHeader, header) {
			return nil, sweep.Schemaf("collect", "%s: header %v differs from %v", path, header, metricHeader)
		}

		row, err := t.Row(rec.ParamSetID)
		if err != nil {
			return nil, err
		}
		record := make([]string, 0, 4+len(row.Values)+len(values))
		record = append(record, strconv.Itoa(row.ID), row.Label)
		record = append(record, row.Values...)
		record = append(record, strconv.Itoa(rec.Replicate), strconv.Itoa(rec.RunNr))
		record = append(record, values...)
		sum.Records = append(sum.Records, record)
	}

	sum.Header = append(slices.Clone(t.Schema.Header()), "replicate_nr", "run_nr")
	sum.Header = append(sum.Header, metricHeader...)

	c.logger.Info("collected metrics",
		zap.Int("runs", len(sum.Records)),
		zap.Int("missing", len(sum.Missing)))
	return sum, nil
}

// Write stores the summary as CSV under the results directory.
func (c *Collector) Write(sum *Summary) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(sum.Header); err != nil {
		return "", err
	}
	if err := w.WriteAll(sum.Records); err != nil {
		return "", err
	}
	path := filepath.Join(c.ResultsDir, SummaryFile)
	if err := os.MkdirAll(c.ResultsDir, 0755); err != nil {
		return "", err
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func readMetrics(path string) (header, values []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, sweep.SchemaErr("collect", err, "%s", path)
	}
	if len(records) != 2 {
		return nil, nil, sweep.Schemaf("collect", "%s: want header and one row, got %d records", path, len(records))
	}
	return records[0], records[1], nil
}
