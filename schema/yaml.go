package schema

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// rawNode is the on-disk form of a Node. Properties, members, literal and
// default stay as YAML nodes so key order and presence survive decoding.
type rawNode struct {
	Kind        Kind        `yaml:"kind"`
	Description string      `yaml:"description"`
	Checks      []Check     `yaml:"checks"`
	Values      []string    `yaml:"values"`
	Members     yaml.Node   `yaml:"members"`
	Literal     *yaml.Node  `yaml:"literal"`
	Properties  yaml.Node   `yaml:"properties"`
	UnknownKeys UnknownKeys `yaml:"unknownKeys"`
	Items       *Node       `yaml:"items"`
	MinItems    *int        `yaml:"minItems"`
	MaxItems    *int        `yaml:"maxItems"`
	ValueType   *Node       `yaml:"valueType"`
	Options     []*Node     `yaml:"options"`
	Left        *Node       `yaml:"left"`
	Right       *Node       `yaml:"right"`
	Inner       *Node       `yaml:"inner"`
	Default     *yaml.Node  `yaml:"default"`
}

// UnmarshalYAML decodes a node from either a bare kind name ("string") or a
// mapping with a "kind" discriminant. A mapping without "kind" decodes to a
// node with an empty Kind, which converts to an unconstrained object.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*n = Node{Kind: Kind(value.Value)}
		if n.Kind == KindObject {
			n.UnknownKeys = UnknownKeysStrip
		}
		return nil
	}

	var raw rawNode
	if err := value.Decode(&raw); err != nil {
		return err
	}

	out := Node{
		Kind:        raw.Kind,
		Description: raw.Description,
		Checks:      raw.Checks,
		Values:      raw.Values,
		UnknownKeys: raw.UnknownKeys,
		Element:     raw.Items,
		MinItems:    raw.MinItems,
		MaxItems:    raw.MaxItems,
		ValueType:   raw.ValueType,
		Options:     raw.Options,
		Left:        raw.Left,
		Right:       raw.Right,
		Inner:       raw.Inner,
	}
	if out.Kind == KindObject && out.UnknownKeys == "" {
		out.UnknownKeys = UnknownKeysStrip
	}

	props, err := decodeProperties(&raw.Properties)
	if err != nil {
		return err
	}
	out.Properties = props

	members, err := decodeMembers(&raw.Members)
	if err != nil {
		return err
	}
	out.Members = members

	if raw.Literal != nil {
		if err := raw.Literal.Decode(&out.Literal); err != nil {
			return errors.Wrapf(err, "line %d: literal", raw.Literal.Line)
		}
	}

	if raw.Default != nil {
		var v any
		if err := raw.Default.Decode(&v); err != nil {
			return errors.Wrapf(err, "line %d: default", raw.Default.Line)
		}
		out.DefaultValue = func() (any, error) { return v, nil }
	}

	*n = out
	return nil
}

func decodeProperties(m *yaml.Node) ([]Property, error) {
	if m.Kind == 0 {
		return nil, nil
	}
	if m.Kind != yaml.MappingNode {
		return nil, errors.WithHint(
			errors.Newf("line %d: properties must be a mapping", m.Line),
			"write properties as name: node pairs",
		)
	}
	props := make([]Property, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		var node Node
		if err := m.Content[i+1].Decode(&node); err != nil {
			return nil, errors.Wrapf(err, "property %q", m.Content[i].Value)
		}
		props = append(props, Property{Name: m.Content[i].Value, Node: &node})
	}
	return props, nil
}

func decodeMembers(m *yaml.Node) ([]EnumMember, error) {
	if m.Kind == 0 {
		return nil, nil
	}
	if m.Kind != yaml.MappingNode {
		return nil, errors.WithHint(
			errors.Newf("line %d: members must be a mapping", m.Line),
			"write members as key: value pairs",
		)
	}
	members := make([]EnumMember, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		var v any
		if err := m.Content[i+1].Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "member %q", m.Content[i].Value)
		}
		members = append(members, EnumMember{Key: m.Content[i].Value, Value: v})
	}
	return members, nil
}
