package model

import (
	"errors"
	"fmt"
)

var (
	ErrProxyNotMapping  = errors.New("proxy entry is not a mapping")
	ErrProxyNameMissing = errors.New("proxy name is missing")
)

// Proxy is one entry of the proxies sequence. Only name is interpreted.
type Proxy struct {
	fields *Map
	raw    any // set when the entry is not a mapping
}

func NewProxy(fields *Map) *Proxy {
	return &Proxy{fields: fields}
}

func proxyFromValue(v any) *Proxy {
	if m, ok := v.(*Map); ok {
		return &Proxy{fields: m}
	}
	return &Proxy{raw: v}
}

func (p *Proxy) Name() (string, error) {
	if p.fields == nil {
		return "", fmt.Errorf("%w (got %s)", ErrProxyNotMapping, kindOf(p.raw))
	}
	v, ok := p.fields.Get("name")
	if !ok || v == nil {
		return "", ErrProxyNameMissing
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("proxy name must be a string, got %s", kindOf(v))
	}
	return s, nil
}

// WithName returns a copy of p whose name is replaced in place; p is untouched.
func (p *Proxy) WithName(name string) *Proxy {
	if p.fields == nil {
		return p
	}
	m := CopyMap(p.fields)
	m.Set("name", name)
	return &Proxy{fields: m}
}

// Field returns an opaque transport field.
func (p *Proxy) Field(key string) (any, bool) {
	if p.fields == nil {
		return nil, false
	}
	return p.fields.Get(key)
}

// Value is what gets written back into the proxies sequence.
func (p *Proxy) Value() any {
	if p.fields == nil {
		return p.raw
	}
	return p.fields
}
