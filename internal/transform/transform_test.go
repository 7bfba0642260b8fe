package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/subrules/internal/groups"
	"github.com/John-Robertt/subrules/internal/model"
	"github.com/John-Robertt/subrules/internal/node"
)

const sampleDoc = `port: 7890
mode: rule
proxies:
  - {name: "狮城01-IEPL-x2套餐到期", type: ss, server: a.example, port: 1}
  - {name: "HKT-02 IPLC x2", type: ss, server: b.example, port: 2}
  - {name: "🇯🇵 东京 03", type: vmess, server: c.example, port: 3}
  - {name: "USA Los Angeles 01", type: trojan, server: d.example, port: 4}
  - {type: ss, server: e.example, port: 5}
dns:
  listen: 0.0.0.0:1053
custom-key: keep-me
`

type recorder struct {
	calls [][3]string
}

func (r *recorder) Notify(title, subtitle, message string) {
	r.calls = append(r.calls, [3]string{title, subtitle, message})
}

func newTestTransformer(t *testing.T, opt Options) (*Transformer, *logtest.Hook, *recorder) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	rec := &recorder{}
	opt.Logger = logger
	opt.Notifier = rec
	tr, err := New(opt)
	require.NoError(t, err)
	return tr, hook, rec
}

func mustParse(t *testing.T, s string) *model.Config {
	t.Helper()
	cfg, err := model.ParseConfig([]byte(s))
	require.NoError(t, err)
	return cfg
}

func proxyNames(t *testing.T, cfg *model.Config) []string {
	t.Helper()
	ps, err := cfg.Proxies()
	require.NoError(t, err)
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		n, err := p.Name()
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func TestRun_FullDocument(t *testing.T) {
	tr, hook, rec := newTestTransformer(t, Options{})
	cfg := mustParse(t, sampleDoc)
	before, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	out, rep, err := tr.Run(cfg)
	require.NoError(t, err)
	assert.Empty(t, rec.calls)

	assert.Equal(t, []string{"HK IPLC x2", "JP", "US"}, proxyNames(t, out))
	assert.Equal(t, []string{
		"port", "mode", "proxies", "dns", "custom-key",
		"rule-providers", "rules", "proxy-groups",
		"unified-delay", "tcp-concurrent", "profile", "sniffer", "geodata-mode", "geox-url",
	}, out.Keys())

	assert.Equal(t, 5, rep.Input)
	assert.Equal(t, 3, rep.Kept)
	assert.Equal(t, 1, rep.Junk)
	assert.Equal(t, 1, rep.Errors)
	assert.Len(t, rep.Nodes, 5)
	assert.Equal(t, 20, rep.Rules)
	assert.Equal(t, 17, rep.Providers)

	rv, _ := out.Get(model.KeyRules)
	lines := rv.([]string)
	assert.Equal(t, "MATCH,漏网之鱼", lines[len(lines)-1])

	gv, _ := out.Get(model.KeyProxyGroups)
	gs := gv.([]model.Group)
	assert.Equal(t, rep.Groups, len(gs))
	assert.NoError(t, groups.Validate(gs, proxyNames(t, out)))
	assert.Contains(t, groups.Names(gs), "US-自动选择")
	assert.Contains(t, groups.Names(gs), "JP-自动选择")

	// input document untouched
	after, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "dropped node" {
			warned = true
			assert.Equal(t, 4, e.Data["index"])
			assert.NotNil(t, e.Data["reason"])
		}
	}
	assert.True(t, warned, "expected a warning for the nameless node")
}

func TestRun_OutputIsValidYAML(t *testing.T) {
	tr, _, _ := newTestTransformer(t, Options{})
	out, _, err := tr.Run(mustParse(t, sampleDoc))
	require.NoError(t, err)

	b, err := yaml.Marshal(out)
	require.NoError(t, err)

	again, err := model.ParseConfig(b)
	require.NoError(t, err)
	assert.Equal(t, out.Keys(), again.Keys())

	var plain struct {
		Groups []model.Group `yaml:"proxy-groups"`
		Rules  []string      `yaml:"rules"`
	}
	require.NoError(t, yaml.Unmarshal(b, &plain))
	assert.Equal(t, "代理模式", plain.Groups[0].Name)
	assert.Equal(t, "RULE-SET,reject,广告拦截", plain.Rules[0])
}

func TestRun_EmptyProxies(t *testing.T) {
	tr, _, rec := newTestTransformer(t, Options{})
	before := testutil.ToFloat64(runsTotal.WithLabelValues("error"))

	for _, doc := range []string{"proxies: []\n", "port: 1\n", "proxies: nope\n"} {
		cfg := mustParse(t, doc)
		out, _, err := tr.Run(cfg)
		require.Error(t, err, doc)
		assert.Same(t, cfg, out)

		var te *Error
		require.True(t, errors.As(err, &te))
		assert.Equal(t, StageValidateInput, te.AppError.Stage)
		assert.Equal(t, "INPUT_INVALID", te.AppError.Code)
	}

	require.Len(t, rec.calls, 3)
	assert.Equal(t, "subrules", rec.calls[0][0])
	assert.Equal(t, "处理失败", rec.calls[0][1])
	assert.Contains(t, rec.calls[0][2], "节点列表为空")
	assert.Equal(t, before+3, testutil.ToFloat64(runsTotal.WithLabelValues("error")))
}

func TestRun_NilConfig(t *testing.T) {
	tr, _, rec := newTestTransformer(t, Options{})
	out, _, err := tr.Run(nil)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Len(t, rec.calls, 1)
}

func TestRun_AllJunk(t *testing.T) {
	tr, _, _ := newTestTransformer(t, Options{})
	cfg := mustParse(t, "proxies:\n  - {name: 剩余流量 10G}\n  - {name: 套餐到期 2025-01-01}\n")

	before := testutil.ToFloat64(appErrorsTotal.WithLabelValues(StageNormalize, "NO_NODES"))
	out, rep, err := tr.Run(cfg)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StageNormalize, te.AppError.Stage)
	assert.Equal(t, "NO_NODES", te.AppError.Code)
	assert.Same(t, cfg, out)
	assert.Equal(t, 2, rep.Junk)
	assert.Equal(t, before+1, testutil.ToFloat64(appErrorsTotal.WithLabelValues(StageNormalize, "NO_NODES")))
}

func TestRun_NonMappingDNS(t *testing.T) {
	tr, _, rec := newTestTransformer(t, Options{})
	cfg := mustParse(t, "proxies:\n  - {name: HK 01}\ndns: off\n")

	out, _, err := tr.Run(cfg)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StageAssembleDNS, te.AppError.Stage)
	assert.Equal(t, "DNS_ASSEMBLE_ERROR", te.AppError.Code)
	assert.Same(t, cfg, out)
	assert.Equal(t, []string{"proxies", "dns"}, cfg.Keys())
	assert.Len(t, rec.calls, 1)
}

func TestRun_GroupNameCollision(t *testing.T) {
	tr, _, _ := newTestTransformer(t, Options{})
	_, _, err := tr.Run(mustParse(t, "proxies:\n  - {name: 自动选择}\n"))
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StageAssembleGroups, te.AppError.Stage)
	assert.Equal(t, "GROUP_VALIDATE_ERROR", te.AppError.Code)
}

func TestRun_CustomRules(t *testing.T) {
	tr, _, _ := newTestTransformer(t, Options{
		DefaultGroup: "Proxy",
		CustomRules:  []string{"DOMAIN-SUFFIX,example.com,Proxy", "DOMAIN,node.example,HK"},
	})
	out, _, err := tr.Run(mustParse(t, "proxies:\n  - {name: 香港 01}\n"))
	require.NoError(t, err)

	rv, _ := out.Get(model.KeyRules)
	lines := rv.([]string)
	assert.Equal(t, "DOMAIN-SUFFIX,example.com,Proxy", lines[0])
	assert.Equal(t, "DOMAIN,node.example,HK", lines[1])
	assert.Contains(t, lines, "RULE-SET,proxy,Proxy")

	tr, _, _ = newTestTransformer(t, Options{CustomRules: []string{"DOMAIN,a.com,Nowhere"}})
	_, _, err = tr.Run(mustParse(t, "proxies:\n  - {name: 香港 01}\n"))
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StageValidateOutput, te.AppError.Stage)
	assert.Equal(t, "REFERENCE_NOT_FOUND", te.AppError.Code)
}

func TestNew_InvalidOptions(t *testing.T) {
	cases := map[string]Options{
		"match rule":       {CustomRules: []string{"MATCH,DIRECT"}},
		"unsupported rule": {CustomRules: []string{"URL-REGEX,x,DIRECT"}},
		"builtin default":  {DefaultGroup: "DIRECT"},
		"bad resolver":     {DNS: dnsOptions("ftp://1.1.1.1")},
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(opt)
			var te *Error
			require.True(t, errors.As(err, &te), "got %T: %v", err, err)
			assert.Equal(t, StageValidateInput, te.AppError.Stage)
		})
	}
}

func TestRun_UniqueNames(t *testing.T) {
	doc := "proxies:\n  - {name: 香港 01}\n  - {name: 香港 02}\n"

	tr, hook, _ := newTestTransformer(t, Options{})
	out, _, err := tr.Run(mustParse(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"HK", "HK"}, proxyNames(t, out))
	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Level == logrus.WarnLevel
	}
	assert.True(t, warned)

	tr, _, _ = newTestTransformer(t, Options{UniqueNames: true})
	out, rep, err := tr.Run(mustParse(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"HK", "HK-2"}, proxyNames(t, out))
	assert.Equal(t, node.OutcomeKept, rep.Nodes[1].Outcome)
	assert.Equal(t, "HK-2", rep.Nodes[1].Name)
}

func TestRun_BuiltinNodeName(t *testing.T) {
	doc := "proxies:\n  - {name: DIRECT}\n  - {name: 香港 01}\n"

	tr, hook, _ := newTestTransformer(t, Options{})
	out, _, err := tr.Run(mustParse(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"DIRECT", "HK"}, proxyNames(t, out))
	var shadowed []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "built-in") {
			shadowed = e.Data["names"].([]string)
		}
	}
	assert.Equal(t, []string{"DIRECT"}, shadowed)

	tr, hook, _ = newTestTransformer(t, Options{UniqueNames: true})
	out, _, err = tr.Run(mustParse(t, doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"DIRECT-2", "HK"}, proxyNames(t, out))
	for _, e := range hook.AllEntries() {
		assert.NotContains(t, e.Message, "built-in")
	}
}

func TestLogNotifier(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	LogNotifier{Logger: logger}.Notify("subrules", "处理失败", "boom")

	e := hook.LastEntry()
	require.NotNil(t, e)
	assert.Equal(t, logrus.ErrorLevel, e.Level)
	assert.Equal(t, "boom", e.Message)
	assert.Equal(t, "处理失败", e.Data["subtitle"])
}
