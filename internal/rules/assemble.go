package rules

import (
	"fmt"

	"github.com/John-Robertt/subrules/internal/model"
)

type AssembleError struct {
	AppError model.AppError
	Cause    error
}

func (e *AssembleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *AssembleError) Unwrap() error { return e.Cause }

const stageAssemble = "assemble_rules"

type Options struct {
	// DefaultGroup receives proxied traffic; empty means model.DefaultGroupName.
	DefaultGroup string
	// Custom rules are placed before everything else.
	Custom []model.Rule
}

// Ruleset is the rule list together with the providers it references.
type Ruleset struct {
	Rules     []model.Rule
	Providers []model.RuleProvider
}

// Assemble builds the ordered rule list and validates it.
func Assemble(opt Options) (*Ruleset, error) {
	def := opt.DefaultGroup
	if def == "" {
		def = model.DefaultGroupName
	}

	out := make([]model.Rule, 0, len(opt.Custom)+20)
	out = append(out, opt.Custom...)
	out = append(out,
		ruleSet("reject", model.GroupNameAdBlock),

		ruleSet("direct", model.PolicyDirect),
		ruleSet("cncidr", model.PolicyDirect),
		ruleSet("private", model.PolicyDirect),
		ruleSet("lancidr", model.PolicyDirect),
		model.Rule{Type: "GEOIP", Value: "LAN", Action: model.PolicyDirect, NoResolve: true},
		model.Rule{Type: "GEOIP", Value: "CN", Action: model.PolicyDirect, NoResolve: true},
		ruleSet("applications", model.PolicyDirect),

		ruleSet("openai", model.GroupNameChatGPT),
		ruleSet("claude", model.GroupNameClaude),
		ruleSet("spotify", model.GroupNameSpotify),
		model.Rule{Type: "RULE-SET", Value: "telegramcidr", Action: model.GroupNameTelegram, NoResolve: true},
	)
	for _, name := range []string{"tld-not-cn", "google", "icloud", "apple", "gfw", "greatfire", "proxy"} {
		out = append(out, ruleSet(name, def))
	}
	out = append(out, model.Rule{Type: "MATCH", Action: model.GroupNameFinal})

	rs := &Ruleset{Rules: out, Providers: Providers()}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func ruleSet(provider, action string) model.Rule {
	return model.Rule{Type: "RULE-SET", Value: provider, Action: action}
}

// Validate checks provider names are unique, every RULE-SET names a declared
// provider, and MATCH appears exactly once as the last rule.
func (rs *Ruleset) Validate() error {
	declared := make(map[string]struct{}, len(rs.Providers))
	for _, p := range rs.Providers {
		if _, ok := declared[p.Name]; ok {
			return &AssembleError{
				AppError: model.AppError{
					Code:    "RULE_VALIDATE_ERROR",
					Message: fmt.Sprintf("rule-provider 名称重复：%s", p.Name),
					Stage:   stageAssemble,
				},
			}
		}
		declared[p.Name] = struct{}{}
	}

	matches := 0
	for i, r := range rs.Rules {
		switch r.Type {
		case "RULE-SET":
			if _, ok := declared[r.Value]; !ok {
				return &AssembleError{
					AppError: model.AppError{
						Code:    "REFERENCE_NOT_FOUND",
						Message: fmt.Sprintf("规则引用了不存在的 rule-provider：%s", r.Value),
						Stage:   stageAssemble,
						Snippet: r.String(),
					},
				}
			}
		case "MATCH":
			matches++
			if i != len(rs.Rules)-1 {
				return &AssembleError{
					AppError: model.AppError{
						Code:    "RULE_VALIDATE_ERROR",
						Message: "MATCH 规则必须位于最后",
						Stage:   stageAssemble,
						Snippet: r.String(),
					},
				}
			}
		}
	}
	if matches != 1 {
		return &AssembleError{
			AppError: model.AppError{
				Code:    "RULE_VALIDATE_ERROR",
				Message: fmt.Sprintf("MATCH 规则必须且只能出现一次（实际 %d 次）", matches),
				Stage:   stageAssemble,
			},
		}
	}
	return nil
}

// CheckTargets ensures every rule action is DIRECT, REJECT, or a name for
// which exists reports true.
func CheckTargets(rs []model.Rule, exists func(name string) bool) error {
	for _, r := range rs {
		if model.IsBuiltinPolicy(r.Action) || exists(r.Action) {
			continue
		}
		return &AssembleError{
			AppError: model.AppError{
				Code:    "REFERENCE_NOT_FOUND",
				Message: fmt.Sprintf("规则引用了不存在的策略组：%s", r.Action),
				Stage:   stageAssemble,
				Snippet: r.String(),
				Hint:    "rule action must be DIRECT, REJECT, a proxy group or a node",
			},
		}
	}
	return nil
}

// Lines encodes the rules for the rules key.
func (rs *Ruleset) Lines() []string {
	out := make([]string, 0, len(rs.Rules))
	for _, r := range rs.Rules {
		out = append(out, r.String())
	}
	return out
}

// ProviderMap returns the providers keyed by name in declaration order.
func (rs *Ruleset) ProviderMap() *model.Map {
	m := model.NewMap()
	for _, p := range rs.Providers {
		m.Set(p.Name, p)
	}
	return m
}
