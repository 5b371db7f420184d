// Package sweep provides the core types shared by every stage of a
// full-factorial parameter sweep.
//
// The package defines the vocabulary used by generation and execution:
//
//   - [Parameter]: a declared name with its ordered value tokens
//   - [Declaration]: the ordered parameter list plus the special parameter
//   - [Schema]: the ordered, kind-tagged columns of the grid artifact
//   - [ParameterSet]: one combination with its 1-based position id
//   - [Error]: the error taxonomy (validation, missing key, schema, path, mismatch)
//
// # Example
//
//	decl := sweep.Declaration{
//		Parameters: []sweep.Parameter{
//			{Name: "SELRANGE", Values: []string{"0 300 300", "0 20 20"}},
//			{Name: "LEN", Values: []string{"80000"}},
//		},
//		Special: "SELRANGE",
//	}
//	schema, err := decl.Schema()
//
// # Thread Safety
//
// All types are plain values. Nothing in this package holds shared state.
package sweep
