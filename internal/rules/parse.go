package rules

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/John-Robertt/subrules/internal/model"
)

type RuleError struct {
	Code    string
	Message string
	Hint    string
	Cause   error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *RuleError) Unwrap() error { return e.Cause }

type ParseError struct {
	AppError model.AppError
	Cause    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ParseCustomRules parses user supplied rule lines in order. Empty lines and
// comments are skipped. Targets are not checked here; see CheckTargets.
//
// stage is always "parse_custom_rule".
func ParseCustomRules(lines []string) ([]model.Rule, error) {
	out := make([]model.Rule, 0, len(lines))
	for i, raw := range lines {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := ParseInlineRule(line)
		if err != nil {
			var rerr *RuleError
			if errors.As(err, &rerr) {
				return nil, &ParseError{
					AppError: model.AppError{
						Code:    rerr.Code,
						Message: fmt.Sprintf("第 %d 条自定义规则不合法：%s", i+1, rerr.Message),
						Stage:   "parse_custom_rule",
						Snippet: truncateSnippet(raw, 200),
						Hint:    rerr.Hint,
					},
					Cause: rerr.Cause,
				}
			}
			return nil, &ParseError{
				AppError: model.AppError{
					Code:    "RULE_PARSE_ERROR",
					Message: "invalid rule line",
					Stage:   "parse_custom_rule",
					Snippet: truncateSnippet(raw, 200),
				},
				Cause: err,
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseInlineRule parses a single rule line. ACTION is required and MATCH is
// not accepted: the catch-all is always appended by the assembler.
func ParseInlineRule(line string) (model.Rule, error) {
	line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if line == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is empty"}
	}
	if strings.HasPrefix(line, "#") {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "rule line is comment"}
	}

	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则类型不能为空"}
	}

	typ := strings.ToUpper(parts[0])
	switch typ {
	case "DOMAIN", "DOMAIN-SUFFIX", "DOMAIN-KEYWORD", "GEOSITE", "PROCESS-NAME":
		return parseSimple3(typ, parts, nil)
	case "DOMAIN-REGEX":
		return parseSimple3(typ, parts, validateRegex)
	case "DST-PORT":
		return parseSimple3(typ, parts, validatePort)
	case "GEOIP", "RULE-SET":
		return parseResolvable(typ, parts, nil)
	case "IP-CIDR":
		return parseResolvable(typ, parts, validateIPv4CIDR)
	case "IP-CIDR6":
		return parseResolvable(typ, parts, validateIPv6CIDR)
	case "MATCH":
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "自定义规则不允许包含 MATCH 规则",
			Hint:    "MATCH is always the last generated rule",
		}
	default:
		return model.Rule{}, &RuleError{
			Code:    "UNSUPPORTED_RULE_TYPE",
			Message: fmt.Sprintf("不支持的规则类型：%s", typ),
		}
	}
}

func parseSimple3(typ string, parts []string, validate func(string) error) (model.Rule, error) {
	if len(parts) != 3 {
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: "规则字段数量不合法",
			Hint:    "expected: TYPE,VALUE,ACTION",
		}
	}
	if parts[1] == "" || parts[2] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: "规则 VALUE/ACTION 不能为空"}
	}
	if validate != nil {
		if err := validate(parts[1]); err != nil {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 的 VALUE 不合法", typ),
				Cause:   err,
			}
		}
	}
	return model.Rule{Type: typ, Value: parts[1], Action: parts[2]}, nil
}

// parseResolvable handles rule types that accept the trailing no-resolve option.
func parseResolvable(typ string, parts []string, validate func(string) error) (model.Rule, error) {
	hint := fmt.Sprintf("expected: %s,VALUE,ACTION[,no-resolve]", typ)

	switch len(parts) {
	case 3, 4:
	default:
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: fmt.Sprintf("%s 规则字段数量不合法", typ),
			Hint:    hint,
		}
	}
	if parts[1] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: fmt.Sprintf("%s 的 VALUE 不能为空", typ)}
	}
	if parts[2] == "" {
		return model.Rule{}, &RuleError{Code: "RULE_PARSE_ERROR", Message: fmt.Sprintf("%s 的 ACTION 不能为空", typ)}
	}
	if strings.EqualFold(parts[2], "no-resolve") {
		// Ambiguous: missing action but has option.
		return model.Rule{}, &RuleError{
			Code:    "RULE_PARSE_ERROR",
			Message: fmt.Sprintf("%s 缺少 ACTION（不允许仅写 no-resolve）", typ),
			Hint:    hint,
		}
	}
	noResolve := false
	if len(parts) == 4 {
		if !strings.EqualFold(parts[3], "no-resolve") {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 的可选项仅支持 no-resolve", typ),
				Hint:    hint,
			}
		}
		noResolve = true
	}
	if validate != nil {
		if err := validate(parts[1]); err != nil {
			return model.Rule{}, &RuleError{
				Code:    "RULE_PARSE_ERROR",
				Message: fmt.Sprintf("%s 的 VALUE 不合法", typ),
				Hint:    hint,
				Cause:   err,
			}
		}
	}
	return model.Rule{Type: typ, Value: parts[1], Action: parts[2], NoResolve: noResolve}, nil
}

func validateIPv4CIDR(s string) error {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return err
	}
	if !p.Addr().Is4() {
		return errors.New("not an ipv4 cidr")
	}
	return nil
}

func validateIPv6CIDR(s string) error {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return err
	}
	if p.Addr().Is4() {
		return errors.New("not an ipv6 cidr")
	}
	return nil
}

// validatePort accepts "443" or "1000-2000".
func validatePort(s string) error {
	first, last, isRange := strings.Cut(s, "-")
	from, err := parsePort(first)
	if err != nil {
		return err
	}
	if !isRange {
		return nil
	}
	to, err := parsePort(last)
	if err != nil {
		return err
	}
	if from > to {
		return fmt.Errorf("port range %d-%d is reversed", from, to)
	}
	return nil
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("port %d out of range", n)
	}
	return n, nil
}

// DOMAIN-REGEX is evaluated by the client with the same .NET-style engine.
func validateRegex(s string) error {
	_, err := regexp2.Compile(s, regexp2.None)
	return err
}

func truncateSnippet(s string, max int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	i := max
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}
