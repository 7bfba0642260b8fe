package model

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is the ordered mapping used for every mapping in a document.
type Map = orderedmap.OrderedMap[string, any]

func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// CopyMap returns a shallow copy of m that keeps the key order.
func CopyMap(m *Map) *Map {
	out := NewMap()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// Keys returns the keys of m in insertion order.
func Keys(m *Map) []string {
	out := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// fromNode converts a yaml.v3 node tree into plain values, turning every
// mapping into a *Map so key order survives re-encoding. Scalars whose text
// would not survive decoding are kept as *Scalar.
func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unresolved alias %q", n.Line, n.Value)
		}
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return mappingFromNode(n)
	case yaml.ScalarNode:
		v, err := scalarFromNode(n)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
	}
}

func mappingFromNode(n *yaml.Node) (*Map, error) {
	m := NewMap()
	var merged []*Map
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]

		// "<<: *anchor" or "<<: [*a, *b]"
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			srcs := []*yaml.Node{v}
			if v.Kind == yaml.SequenceNode {
				srcs = v.Content
			}
			for _, src := range srcs {
				mv, err := fromNode(src)
				if err != nil {
					return nil, err
				}
				mm, ok := mv.(*Map)
				if !ok {
					return nil, fmt.Errorf("line %d: merge value is not a mapping", src.Line)
				}
				merged = append(merged, mm)
			}
			continue
		}

		var key string
		if err := k.Decode(&key); err != nil {
			return nil, fmt.Errorf("line %d: mapping key: %w", k.Line, err)
		}
		val, err := fromNode(v)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}

	// Explicit keys win over merged ones; earlier merge sources win over later.
	for _, mm := range merged {
		for pair := mm.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := m.Get(pair.Key); !ok {
				m.Set(pair.Key, pair.Value)
			}
		}
	}
	return m, nil
}
