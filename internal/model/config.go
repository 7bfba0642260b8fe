package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	KeyProxies       = "proxies"
	KeyProxyGroups   = "proxy-groups"
	KeyRules         = "rules"
	KeyRuleProviders = "rule-providers"
	KeyDNS           = "dns"
	KeyUnifiedDelay  = "unified-delay"
	KeyTCPConcurrent = "tcp-concurrent"
	KeyProfile       = "profile"
	KeySniffer       = "sniffer"
	KeyGeodataMode   = "geodata-mode"
	KeyGeoXURL       = "geox-url"
)

// Config is a whole Clash document. Only a handful of keys are interpreted;
// everything else is carried through in its original order.
type Config struct {
	root *Map
}

func NewConfig() *Config {
	return &Config{root: NewMap()}
}

// ConfigFromMap wraps m without copying it.
func ConfigFromMap(m *Map) *Config {
	if m == nil {
		m = NewMap()
	}
	return &Config{root: m}
}

// ParseConfig decodes a single YAML (or JSON) document whose root is a mapping.
func ParseConfig(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("document is empty")
		}
		return nil, err
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		if err == nil {
			return nil, errors.New("multiple yaml documents are not allowed")
		}
		return nil, err
	}

	v, err := fromNode(&doc)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("document root must be a mapping, got %s", kindOf(v))
	}
	return &Config{root: m}, nil
}

func (c *Config) Get(key string) (any, bool) {
	return c.root.Get(key)
}

// Set adds key at the end, or replaces its value in place if it exists.
func (c *Config) Set(key string, v any) {
	c.root.Set(key, v)
}

func (c *Config) Keys() []string {
	return Keys(c.root)
}

func (c *Config) Len() int {
	return c.root.Len()
}

// Clone copies the top level. Nested values are shared, so callers must
// replace rather than mutate them.
func (c *Config) Clone() *Config {
	return &Config{root: CopyMap(c.root)}
}

// Proxies returns the entries of the proxies sequence. A missing key or a
// non-sequence value is an error; individual entries are validated later by
// Proxy.Name.
func (c *Config) Proxies() ([]*Proxy, error) {
	v, ok := c.root.Get(KeyProxies)
	if !ok || v == nil {
		return nil, errors.New("proxies is missing")
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("proxies must be a sequence, got %s", kindOf(v))
	}
	out := make([]*Proxy, 0, len(list))
	for _, item := range list {
		out = append(out, proxyFromValue(item))
	}
	return out, nil
}

func (c *Config) SetProxies(ps []*Proxy) {
	list := make([]any, 0, len(ps))
	for _, p := range ps {
		list = append(list, p.Value())
	}
	c.root.Set(KeyProxies, list)
}

func (c *Config) MarshalYAML() (any, error) {
	return c.root.MarshalYAML()
}

func (c *Config) MarshalJSON() ([]byte, error) {
	return c.root.MarshalJSON()
}

func kindOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *Map:
		return "mapping"
	case []any:
		return "sequence"
	case string:
		return "string"
	case *Scalar:
		return x.Tag()
	default:
		return fmt.Sprintf("%T", v)
	}
}
