package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Scalar is a scalar kept as written because decoding it would change its
// text on the way out: 0123, 0x1F, 1e10, 1_000, True, ~ and similar.
type Scalar struct {
	node yaml.Node
}

func newScalar(n *yaml.Node) *Scalar {
	return &Scalar{node: yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   n.ShortTag(),
		Value: n.Value,
		Style: n.Style,
	}}
}

// Text is the scalar exactly as it appeared in the input.
func (s *Scalar) Text() string { return s.node.Value }

// Tag is the resolved YAML tag, e.g. "!!int".
func (s *Scalar) Tag() string { return s.node.Tag }

func (s *Scalar) MarshalYAML() (any, error) {
	n := s.node
	return &n, nil
}

// MarshalJSON writes numbers that are valid JSON literals as is and every
// other non-bool, non-null scalar as its original text.
func (s *Scalar) MarshalJSON() ([]byte, error) {
	switch s.node.Tag {
	case "!!int", "!!float":
		if isJSONNumber(s.node.Value) {
			return []byte(s.node.Value), nil
		}
	case "!!bool", "!!null":
		var v any
		if err := s.node.Decode(&v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	return json.Marshal(s.node.Value)
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// scalarFromNode decodes n, falling back to a verbatim Scalar when the
// decoded value would not re-encode to the same text.
func scalarFromNode(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	if _, ok := v.(string); ok {
		return v, nil
	}
	var c yaml.Node
	if err := c.Encode(v); err != nil || c.Kind != yaml.ScalarNode || c.Value != n.Value {
		return newScalar(n), nil
	}
	return v, nil
}
