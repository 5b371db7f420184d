// Package catalog indexes a generated sweep in SQLite so runs can be found
// by parameter value.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/san-kum/powersweep/internal/grid"
	"github.com/san-kum/powersweep/internal/runconfig"
	"github.com/san-kum/powersweep/internal/runindex"
	"github.com/san-kum/powersweep/internal/sweep"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS param_sets (
	id INTEGER PRIMARY KEY,
	label TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS param_values (
	param_set_id INTEGER NOT NULL REFERENCES param_sets(id),
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (param_set_id, name)
);
CREATE INDEX IF NOT EXISTS idx_values_name_value ON param_values(name, value);
CREATE TABLE IF NOT EXISTS runs (
	run_nr INTEGER PRIMARY KEY,
	param_set_id INTEGER NOT NULL REFERENCES param_sets(id),
	replicate_nr INTEGER NOT NULL,
	run_output_dir TEXT NOT NULL
);
`

type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) Path() string { return c.path }

// Build replaces the catalog's contents with the table and its runs.
func (c *Catalog) Build(ctx context.Context, t *grid.Table, ix *runindex.Indexer) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", "param_values", "param_sets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	names := t.Schema.ValueNames()
	for _, row := range t.Rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO param_sets (id, label) VALUES (?, ?)`, row.ID, row.Label); err != nil {
			return fmt.Errorf("failed to insert set %d: %w", row.ID, err)
		}
		for i, name := range names {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO param_values (param_set_id, position, name, value) VALUES (?, ?, ?, ?)`,
				row.ID, i, name, row.Values[i]); err != nil {
				return fmt.Errorf("failed to insert value %s of set %d: %w", name, row.ID, err)
			}
		}
	}
	for _, rec := range ix.All() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (run_nr, param_set_id, replicate_nr, run_output_dir) VALUES (?, ?, ?, ?)`,
			rec.RunNr, rec.ParamSetID, rec.Replicate, runconfig.OutputDir(rec.ParamSetID, rec.Replicate)); err != nil {
			return fmt.Errorf("failed to insert run %d: %w", rec.RunNr, err)
		}
	}
	return tx.Commit()
}

// Filter matches parameter sets whose Name column equals Value.
type Filter struct {
	Name  string
	Value string
}

// ParseFilter parses NAME=VALUE. The value may contain '=' and spaces.
func ParseFilter(s string) (Filter, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Filter{}, sweep.Validationf("query", "filter %q is not NAME=VALUE", s)
	}
	return Filter{Name: name, Value: value}, nil
}

// Entry is one matching run.
type Entry struct {
	RunNr        int
	ParamSetID   int
	Replicate    int
	Label        string
	RunOutputDir string
}

// Runs returns the runs whose parameter set satisfies every filter, in run
// order. No filters selects every run.
func (c *Catalog) Runs(ctx context.Context, filters ...Filter) ([]Entry, error) {
	var q strings.Builder
	q.WriteString(`SELECT r.run_nr, r.param_set_id, r.replicate_nr, s.label, r.run_output_dir
FROM runs r JOIN param_sets s ON s.id = r.param_set_id`)
	args := make([]any, 0, 2*len(filters))
	for i, f := range filters {
		fmt.Fprintf(&q, "\nJOIN param_values v%d ON v%d.param_set_id = r.param_set_id AND v%d.name = ? AND v%d.value = ?", i, i, i, i)
		args = append(args, f.Name, f.Value)
	}
	q.WriteString("\nORDER BY r.run_nr")

	rows, err := c.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunNr, &e.ParamSetID, &e.Replicate, &e.Label, &e.RunOutputDir); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Names lists the cataloged parameter names in declaration order.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM param_values WHERE param_set_id = (SELECT MIN(id) FROM param_sets) ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
