package declfile

import (
	"fmt"

	"github.com/san-kum/powersweep/internal/sweep"
	"gopkg.in/yaml.v3"
)

// ParameterMap is an ordered name -> values mapping. YAML mapping order is
// declaration order, which fixes param_set_id assignment.
type ParameterMap []sweep.Parameter

func (m *ParameterMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping of name to values", node.Line)
	}

	params := make(ParameterMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var values []string
		switch val.Kind {
		case yaml.ScalarNode:
			// a bare scalar declares a constant
			values = []string{val.Value}
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: parameter %q: values must be scalars", item.Line, key.Value)
				}
				values = append(values, item.Value)
			}
		default:
			return fmt.Errorf("line %d: parameter %q: expected a list of values", val.Line, key.Value)
		}
		params = append(params, sweep.Parameter{Name: key.Value, Values: values})
	}
	*m = params
	return nil
}

func (m ParameterMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range m {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, v := range p.Values {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
			seq,
		)
	}
	return node, nil
}
