package grid

import (
	"math"

	"github.com/san-kum/powersweep/internal/sweep"
)

// Generate enumerates the full factorial of params. The last parameter cycles
// fastest and the first slowest; a set's ID is its 1-based position.
func Generate(params []sweep.Parameter) ([]sweep.ParameterSet, error) {
	total, err := Count(params)
	if err != nil {
		return nil, err
	}

	sets := make([]sweep.ParameterSet, 0, total)
	current := make([]string, len(params))
	generateRecursive(params, 0, current, &sets)
	return sets, nil
}

func generateRecursive(params []sweep.Parameter, depth int, current []string, sets *[]sweep.ParameterSet) {
	if depth == len(params) {
		values := make([]string, len(current))
		copy(values, current)
		*sets = append(*sets, sweep.ParameterSet{ID: len(*sets) + 1, Values: values})
		return
	}

	for _, val := range params[depth].Values {
		current[depth] = val
		generateRecursive(params, depth+1, current, sets)
	}
}

// Count returns the number of parameter sets without enumerating them.
func Count(params []sweep.Parameter) (int, error) {
	if len(params) == 0 {
		return 0, sweep.Validationf("grid", "no parameters declared")
	}
	total := 1
	for _, p := range params {
		n := len(p.Values)
		if n == 0 {
			return 0, sweep.Validationf("grid", "parameter %q has an empty value list", p.Name)
		}
		if total > math.MaxInt32/n {
			return 0, sweep.Validationf("grid", "sweep too large at parameter %q", p.Name)
		}
		total *= n
	}
	return total, nil
}

// At decodes a single set by position, matching the ordering of Generate.
func At(params []sweep.Parameter, id int) (sweep.ParameterSet, error) {
	total, err := Count(params)
	if err != nil {
		return sweep.ParameterSet{}, err
	}
	if id < 1 || id > total {
		return sweep.ParameterSet{}, sweep.Validationf("grid", "param_set_id %d outside [1, %d]", id, total)
	}

	values := make([]string, len(params))
	rem := id - 1
	for i := len(params) - 1; i >= 0; i-- {
		n := len(params[i].Values)
		values[i] = params[i].Values[rem%n]
		rem /= n
	}
	return sweep.ParameterSet{ID: id, Values: values}, nil
}
