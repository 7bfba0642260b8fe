package model

import "strings"

const (
	// Built-in policies every Clash client knows without a group definition.
	PolicyDirect = "DIRECT"
	PolicyReject = "REJECT"
)

type Rule struct {
	Type      string // e.g. "RULE-SET", "GEOIP", "DOMAIN-SUFFIX", "MATCH"
	Value     string // provider name / cc / domain / cidr
	Action    string // DIRECT/REJECT/group name
	NoResolve bool
}

// String encodes the rule the way Clash expects it in the rules list.
func (r Rule) String() string {
	if r.Type == "MATCH" {
		return "MATCH," + r.Action
	}
	var b strings.Builder
	b.WriteString(r.Type)
	b.WriteByte(',')
	b.WriteString(r.Value)
	b.WriteByte(',')
	b.WriteString(r.Action)
	if r.NoResolve {
		b.WriteString(",no-resolve")
	}
	return b.String()
}

// RuleProvider is a remote rule-set definition referenced by RULE-SET rules.
type RuleProvider struct {
	Name     string `yaml:"-" json:"-"`
	Type     string `yaml:"type" json:"type"`
	Behavior string `yaml:"behavior" json:"behavior"`
	URL      string `yaml:"url" json:"url"`
	Path     string `yaml:"path" json:"path"`
	Interval int    `yaml:"interval" json:"interval"`
}

// IsBuiltinPolicy reports whether name needs no group definition.
func IsBuiltinPolicy(name string) bool {
	return name == PolicyDirect || name == PolicyReject
}
