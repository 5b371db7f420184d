package grid

import (
	"strconv"

	"github.com/san-kum/powersweep/internal/sweep"
)

// Row is one line of the grid artifact.
type Row struct {
	ID     int
	Label  string
	Values []string
}

// Set returns the parameter set the row was built from.
func (r Row) Set() sweep.ParameterSet {
	return sweep.ParameterSet{ID: r.ID, Values: r.Values}
}

// Table is the in-memory grid artifact: a schema plus one row per set in
// generation order.
type Table struct {
	Schema sweep.Schema
	Rows   []Row
}

// Build generates the full factorial of decl and labels every set.
func Build(decl sweep.Declaration) (*Table, error) {
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	sets, err := Generate(decl.Parameters)
	if err != nil {
		return nil, err
	}
	return NewTable(decl, sets)
}

// NewTable attaches identifiers and derived labels to sets.
func NewTable(decl sweep.Declaration, sets []sweep.ParameterSet) (*Table, error) {
	schema, err := decl.Schema()
	if err != nil {
		return nil, err
	}
	derived, _ := schema.Derived()
	names := schema.ValueNames()

	rows := make([]Row, 0, len(sets))
	for i, set := range sets {
		if set.ID != i+1 {
			return nil, sweep.Validationf("grid", "set at position %d has id %d", i+1, set.ID)
		}
		special, ok := set.Value(names, derived.Source)
		if !ok {
			return nil, sweep.MissingKeyf("grid", "set %d has no value for %q", set.ID, derived.Source)
		}
		rows = append(rows, Row{ID: set.ID, Label: sweep.Label(special), Values: set.Values})
	}
	return &Table{Schema: schema, Rows: rows}, nil
}

// Len returns the number of parameter sets, S.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Row returns the row with the given param_set_id.
func (t *Table) Row(id int) (Row, error) {
	if id < 1 || id > len(t.Rows) {
		return Row{}, sweep.Validationf("grid", "param_set_id %d outside [1, %d]", id, len(t.Rows))
	}
	return t.Rows[id-1], nil
}

// Columns returns the value-kind column names with the row's values, in
// declaration order. Identifier and derived columns are excluded.
func (t *Table) Columns(r Row) []Column {
	names := t.Schema.ValueNames()
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Value: r.Values[i]}
	}
	return cols
}

// Column is one substitutable name/value pair.
type Column struct {
	Name  string
	Value string
}

// Records renders the table as CSV records, header first.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Schema.Header())
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Values)+2)
		rec = append(rec, strconv.Itoa(r.ID), r.Label)
		rec = append(rec, r.Values...)
		records = append(records, rec)
	}
	return records
}

// FromRecords parses records produced by Records. The header must match
// schema, ids must be contiguous from 1, and every stored label must equal
// the label derived from its row.
func FromRecords(schema sweep.Schema, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, sweep.Schemaf("grid", "artifact has no header")
	}
	if err := schema.Match(records[0]); err != nil {
		return nil, err
	}
	derived, _ := schema.Derived()
	names := schema.ValueNames()
	width := len(schema.Fields)

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != width {
			return nil, sweep.Schemaf("grid", "line %d has %d fields, want %d", line, len(rec), width)
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, sweep.SchemaErr("grid", err, "line %d: bad %s", line, sweep.IDColumn)
		}
		if id != i+1 {
			return nil, sweep.Schemaf("grid", "line %d: %s %d breaks contiguity", line, sweep.IDColumn, id)
		}
		values := append([]string(nil), rec[2:]...)
		set := sweep.ParameterSet{ID: id, Values: values}
		special, ok := set.Value(names, derived.Source)
		if !ok {
			return nil, sweep.MissingKeyf("grid", "line %d has no value for %q", line, derived.Source)
		}
		if label := sweep.Label(special); label != rec[1] {
			return nil, sweep.Schemaf("grid", "line %d: label %q does not match %q", line, rec[1], label)
		}
		rows = append(rows, Row{ID: id, Label: rec[1], Values: values})
	}
	return &Table{Schema: schema, Rows: rows}, nil
}
