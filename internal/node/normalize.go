package node

import (
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/subrules/internal/model"
)

type Outcome string

const (
	OutcomeKept  Outcome = "kept"
	OutcomeJunk  Outcome = "junk"
	OutcomeError Outcome = "error"
)

var ErrEmptyName = errors.New("节点名称规范化后为空")

// Normalized is a normalized node name together with the parts it was built from.
type Normalized struct {
	Name       string
	Region     Region
	Tag        SpecialTag
	Multiplier string // verbatim, e.g. "x2", "1.5×"
}

// Result records what happened to one input node.
type Result struct {
	Index    int
	Original string
	Outcome  Outcome
	Normalized
	Err error
}

type Options struct {
	// UniqueNames renames duplicate normalized names to base-2, base-3, ...
	// in input order.
	UniqueNames bool
}

// IsJunk reports whether name is an informational entry (traffic, expiry,
// website...) rather than a usable node.
func IsJunk(name string) (bool, error) {
	return junkPattern.MatchString(name)
}

// NormalizeName rewrites a raw node name: ordered substitutions, trailing
// ordinal removal, then recomposition from region, tag and multiplier.
func NormalizeName(raw string) (Normalized, error) {
	s := raw
	for _, sub := range substitutions {
		out, err := sub.re.Replace(s, sub.label, -1, -1)
		if err != nil {
			return Normalized{}, fmt.Errorf("substitute %q: %w", sub.label, err)
		}
		s = out
	}

	s, err := stripOrdinal(s)
	if err != nil {
		return Normalized{}, fmt.Errorf("strip ordinal: %w", err)
	}

	var n Normalized
	if n.Region, err = DetectRegion(s); err != nil {
		return Normalized{}, fmt.Errorf("detect region: %w", err)
	}
	m, err := multiplierPattern.FindStringMatch(s)
	if err != nil {
		return Normalized{}, fmt.Errorf("find multiplier: %w", err)
	}
	if m != nil {
		n.Multiplier = m.String()
	}
	m, err = tagPattern.FindStringMatch(s)
	if err != nil {
		return Normalized{}, fmt.Errorf("find tag: %w", err)
	}
	if m != nil {
		n.Tag = parseTag(m.String())
	}

	parts := make([]string, 0, 3)
	if n.Region != RegionNone {
		parts = append(parts, n.Region.String())
	}
	if n.Tag != TagNone {
		parts = append(parts, n.Tag.String())
	}
	if n.Multiplier != "" {
		parts = append(parts, n.Multiplier)
	}
	if len(parts) > 0 {
		n.Name = strings.Join(parts, " ")
	} else {
		n.Name = s
	}
	if strings.TrimSpace(n.Name) == "" {
		return Normalized{}, ErrEmptyName
	}
	return n, nil
}

// stripOrdinal removes trailing indexes until none is left ("a 1 2" -> "a").
func stripOrdinal(s string) (string, error) {
	for {
		out, err := ordinalPattern.Replace(s, "", -1, 1)
		if err != nil {
			return "", err
		}
		if out == s {
			return s, nil
		}
		s = out
	}
}

// Normalize filters and renames proxies. The returned proxies are copies in
// input order; the input is never modified. Every input node gets exactly one
// Result.
func Normalize(in []*model.Proxy, opt Options) ([]*model.Proxy, []Result) {
	out := make([]*model.Proxy, 0, len(in))
	results := make([]Result, 0, len(in))
	kept := make([]int, 0, len(in)) // index into results, parallel to out

	for i, p := range in {
		res := Result{Index: i}

		raw, err := p.Name()
		if err != nil {
			res.Outcome, res.Err = OutcomeError, err
			results = append(results, res)
			continue
		}
		res.Original = raw

		junk, err := IsJunk(raw)
		if err != nil {
			res.Outcome, res.Err = OutcomeError, fmt.Errorf("junk test: %w", err)
			results = append(results, res)
			continue
		}
		if junk {
			res.Outcome = OutcomeJunk
			results = append(results, res)
			continue
		}

		n, err := NormalizeName(raw)
		if err != nil {
			res.Outcome, res.Err = OutcomeError, err
			results = append(results, res)
			continue
		}
		res.Outcome = OutcomeKept
		res.Normalized = n
		kept = append(kept, len(results))
		results = append(results, res)
		out = append(out, p.WithName(n.Name))
	}

	if opt.UniqueNames {
		used := make(map[string]struct{}, len(out))
		for i, ri := range kept {
			name := uniqueName(results[ri].Name, used)
			used[name] = struct{}{}
			if name != results[ri].Name {
				results[ri].Name = name
				out[i] = out[i].WithName(name)
			}
		}
	}
	return out, results
}

// uniqueName picks base, or base-N starting from 2 when base is taken or is a
// built-in policy name.
func uniqueName(base string, used map[string]struct{}) string {
	if !model.IsBuiltinPolicy(base) {
		if _, ok := used[base]; !ok {
			return base
		}
	}
	for n := 2; ; n++ {
		try := fmt.Sprintf("%s-%d", base, n)
		if _, ok := used[try]; !ok {
			return try
		}
	}
}
