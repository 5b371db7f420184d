package sweep

import (
	"fmt"
	"strings"
)

const (
	// IDColumn is the identifier column of the grid artifact.
	IDColumn = "param_set_id"
	// DefaultLabelColumn is the derived label column used when none is declared.
	DefaultLabelColumn = "derived_label"
)

// Parameter is a declared sweep dimension. Values are kept as written.
type Parameter struct {
	Name   string
	Values []string
}

// Declaration is the ordered parameter map of one analysis.
type Declaration struct {
	Parameters  []Parameter
	Special     string
	LabelColumn string
}

// Names returns the parameter names in declaration order.
func (d Declaration) Names() []string {
	names := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i] = p.Name
	}
	return names
}

// Validate checks that every parameter is named, unique and non-empty.
func (d Declaration) Validate() error {
	if len(d.Parameters) == 0 {
		return Validationf("declaration", "no parameters declared")
	}
	seen := make(map[string]bool, len(d.Parameters))
	for i, p := range d.Parameters {
		if strings.TrimSpace(p.Name) == "" {
			return Validationf("declaration", "parameter %d has no name", i+1)
		}
		if p.Name == IDColumn || p.Name == d.labelColumn() {
			return Validationf("declaration", "parameter %q collides with a reserved column", p.Name)
		}
		if seen[p.Name] {
			return Validationf("declaration", "duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if len(p.Values) == 0 {
			return Validationf("declaration", "parameter %q has an empty value list", p.Name)
		}
	}
	return nil
}

func (d Declaration) labelColumn() string {
	if d.LabelColumn == "" {
		return DefaultLabelColumn
	}
	return d.LabelColumn
}

// Schema builds the grid schema for the declaration. The special parameter
// must be one of the declared parameters.
func (d Declaration) Schema() (Schema, error) {
	if err := d.Validate(); err != nil {
		return Schema{}, err
	}
	names := d.Names()
	special := -1
	for i, n := range names {
		if n == d.Special {
			special = i
			break
		}
	}
	if special < 0 {
		return Schema{}, MissingKeyf("schema", "special parameter %q is not declared", d.Special)
	}

	fields := make([]Field, 0, len(names)+2)
	fields = append(fields,
		Field{Name: IDColumn, Kind: KindIdentifier},
		Field{Name: d.labelColumn(), Kind: KindDerived, Source: d.Special},
	)
	for _, n := range names {
		fields = append(fields, Field{Name: n, Kind: KindValue})
	}
	return Schema{Fields: fields}, nil
}

// FieldKind tags a grid column.
type FieldKind int

const (
	KindValue FieldKind = iota
	KindIdentifier
	KindDerived
)

func (k FieldKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindDerived:
		return "derived"
	default:
		return "value"
	}
}

// Field is one grid column. Source names the value column a derived field reads.
type Field struct {
	Name   string
	Kind   FieldKind
	Source string
}

// Schema is the ordered column list of the grid artifact.
type Schema struct {
	Fields []Field
}

// Header returns the column names in order.
func (s Schema) Header() []string {
	h := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		h[i] = f.Name
	}
	return h
}

// ValueNames returns the value-kind column names in order.
func (s Schema) ValueNames() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Kind == KindValue {
			names = append(names, f.Name)
		}
	}
	return names
}

// Derived returns the derived field, if any.
func (s Schema) Derived() (Field, bool) {
	for _, f := range s.Fields {
		if f.Kind == KindDerived {
			return f, true
		}
	}
	return Field{}, false
}

// Match checks a header read from disk against the schema.
func (s Schema) Match(header []string) error {
	want := s.Header()
	if len(header) != len(want) {
		return Schemaf("grid header", "got %d columns, want %d (%s)", len(header), len(want), strings.Join(want, ","))
	}
	for i := range want {
		if header[i] != want[i] {
			return Schemaf("grid header", "column %d is %q, want %q", i+1, header[i], want[i])
		}
	}
	return nil
}

// ParameterSet is one combination. Values follow declaration order.
type ParameterSet struct {
	ID     int
	Values []string
}

// Value returns the value of the named parameter given the declaration order.
func (p ParameterSet) Value(names []string, name string) (string, bool) {
	for i, n := range names {
		if n == name && i < len(p.Values) {
			return p.Values[i], true
		}
	}
	return "", false
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("#%d%v", p.ID, p.Values)
}

// Label renders a multi-token value as a single categorical token.
func Label(value string) string {
	return strings.Join(strings.Fields(value), "_")
}
