package declfile

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/san-kum/powersweep/internal/sweep"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// hclSweepFile is the top-level structure of an HCL declaration:
//
//	special      = "SELRANGE"
//	label_column = "Sel_Coeff_ID"
//
//	parameter "SELRANGE" {
//	  values = ["0 300 300", "0 20 20"]
//	}
type hclSweepFile struct {
	Special     string          `hcl:"special,optional"`
	LabelColumn string          `hcl:"label_column,optional"`
	Parameters  []*hclParameter `hcl:"parameter,block"`
}

type hclParameter struct {
	Name   string    `hcl:"name,label"`
	Values cty.Value `hcl:"values"`
}

// ParseHCL decodes an HCL declaration. Block order is declaration order.
func ParseHCL(data []byte, filename string) (sweep.Declaration, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return sweep.Declaration{}, &sweep.Error{Kind: sweep.ErrValidation, Op: "parse sweep", Err: diags}
	}

	var parsed hclSweepFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return sweep.Declaration{}, &sweep.Error{Kind: sweep.ErrValidation, Op: "decode sweep", Err: diags}
	}

	decl := sweep.Declaration{
		Special:     parsed.Special,
		LabelColumn: parsed.LabelColumn,
		Parameters:  make([]sweep.Parameter, 0, len(parsed.Parameters)),
	}
	for _, p := range parsed.Parameters {
		values, err := ctyTokens(p.Name, p.Values)
		if err != nil {
			return sweep.Declaration{}, err
		}
		decl.Parameters = append(decl.Parameters, sweep.Parameter{Name: p.Name, Values: values})
	}
	return decl, nil
}

// ctyTokens flattens a list or tuple of primitives into string tokens.
// Numbers use their shortest decimal form.
func ctyTokens(name string, v cty.Value) ([]string, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, sweep.Validationf("parse sweep", "parameter %q: values must be known", name)
	}
	ty := v.Type()
	if ty.IsPrimitiveType() {
		tok, err := ctyToken(name, v)
		if err != nil {
			return nil, err
		}
		return []string{tok}, nil
	}
	if !ty.IsListType() && !ty.IsTupleType() {
		return nil, sweep.Validationf("parse sweep", "parameter %q: values must be a list", name)
	}

	var tokens []string
	it := v.ElementIterator()
	for it.Next() {
		_, el := it.Element()
		tok, err := ctyToken(name, el)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func ctyToken(name string, el cty.Value) (string, error) {
	if el.IsNull() || !el.IsKnown() || !el.Type().IsPrimitiveType() {
		return "", sweep.Validationf("parse sweep", "parameter %q: values must be strings, numbers or bools", name)
	}
	s, err := convert.Convert(el, cty.String)
	if err != nil {
		return "", &sweep.Error{Kind: sweep.ErrValidation, Op: "parse sweep", Msg: "parameter " + name, Err: err}
	}
	return s.AsString(), nil
}
