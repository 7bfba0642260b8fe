package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseConfig_KeepsKeyOrder(t *testing.T) {
	in := "port: 7890\nmode: rule\nproxies:\n  - name: a\n    type: ss\n    server: 1.1.1.1\nextra:\n  z: 1\n  a: 2\n"
	cfg, err := ParseConfig([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"port", "mode", "proxies", "extra"}, cfg.Keys())

	assert.Equal(t, in, encodeYAML(t, cfg))
}

func encodeYAML(t *testing.T, v any) string {
	t.Helper()
	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	require.NoError(t, enc.Encode(v))
	require.NoError(t, enc.Close())
	return buf.String()
}

func TestParseConfig_KeepsScalarText(t *testing.T) {
	in := `proxies:
  - name: a
    password: 0123
    short-id: 01234567
    psk: 0x1F
    uuid: 1e10
    v: 1_000
    flag: True
    empty: ~
    port: 443
    ratio: 1.5
    udp: true
    quoted: "0123"
`
	cfg, err := ParseConfig([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, encodeYAML(t, cfg))

	ps, err := cfg.Proxies()
	require.NoError(t, err)
	port, _ := ps[0].Field("port")
	assert.Equal(t, 443, port)
	pw, _ := ps[0].Field("password")
	require.IsType(t, &Scalar{}, pw)
	assert.Equal(t, "0123", pw.(*Scalar).Text())
	assert.Equal(t, "!!int", pw.(*Scalar).Tag())
	quoted, _ := ps[0].Field("quoted")
	assert.Equal(t, "0123", quoted)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"proxies":[{"name":"a","password":"0123","short-id":"01234567","psk":"0x1F",
		"uuid":1e10,"v":"1_000","flag":true,"empty":null,"port":443,"ratio":1.5,"udp":true,"quoted":"0123"}]}`, string(out))
	assert.Contains(t, string(out), `"uuid":1e10`)

	// Decoding the JSON rendition keeps the text of every opaque field.
	again, err := ParseConfig(out)
	require.NoError(t, err)
	ps, err = again.Proxies()
	require.NoError(t, err)
	for key, want := range map[string]string{"password": "0123", "short-id": "01234567", "psk": "0x1F", "v": "1_000"} {
		got, _ := ps[0].Field(key)
		assert.Equal(t, want, got, key)
	}
}

func TestParseConfig_JSONInput(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"b": 1, "a": {"y": true, "x": "s"}}`))
	require.NoError(t, err)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":{"y":true,"x":"s"}}`, string(out))
	assert.Less(t, strings.Index(string(out), `"b"`), strings.Index(string(out), `"a"`))
	assert.Less(t, strings.Index(string(out), `"y"`), strings.Index(string(out), `"x"`))
}

func TestParseConfig_MergeKeys(t *testing.T) {
	in := "base: &b\n  type: ss\n  port: 1\nproxies:\n  - <<: *b\n    name: n1\n    port: 2\n"
	cfg, err := ParseConfig([]byte(in))
	require.NoError(t, err)

	ps, err := cfg.Proxies()
	require.NoError(t, err)
	require.Len(t, ps, 1)

	name, err := ps[0].Name()
	require.NoError(t, err)
	assert.Equal(t, "n1", name)

	port, ok := ps[0].Field("port")
	require.True(t, ok)
	assert.Equal(t, 2, port)
	typ, ok := ps[0].Field("type")
	require.True(t, ok)
	assert.Equal(t, "ss", typ)
}

func TestParseConfig_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"multi doc": "a: 1\n---\nb: 2\n",
		"list root": "- a\n- b\n",
		"scalar":    "hello\n",
		"bad yaml":  "a: [1, 2\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(in))
			require.Error(t, err)
		})
	}
}

func TestConfig_Proxies(t *testing.T) {
	cfg, err := ParseConfig([]byte("a: 1\n"))
	require.NoError(t, err)
	_, err = cfg.Proxies()
	require.Error(t, err)

	cfg, err = ParseConfig([]byte("proxies: nope\n"))
	require.NoError(t, err)
	_, err = cfg.Proxies()
	require.Error(t, err)

	cfg, err = ParseConfig([]byte("proxies:\n  - name: ok\n  - just-a-string\n  - type: ss\n  - name: 42\n"))
	require.NoError(t, err)
	ps, err := cfg.Proxies()
	require.NoError(t, err)
	require.Len(t, ps, 4)

	_, err = ps[0].Name()
	assert.NoError(t, err)
	_, err = ps[1].Name()
	assert.ErrorIs(t, err, ErrProxyNotMapping)
	_, err = ps[2].Name()
	assert.ErrorIs(t, err, ErrProxyNameMissing)
	_, err = ps[3].Name()
	assert.Error(t, err)
}

func TestProxy_WithNameDoesNotMutate(t *testing.T) {
	cfg, err := ParseConfig([]byte("proxies:\n  - type: ss\n    name: old\n    port: 1\n"))
	require.NoError(t, err)
	ps, err := cfg.Proxies()
	require.NoError(t, err)

	renamed := ps[0].WithName("new")

	oldName, _ := ps[0].Name()
	newName, _ := renamed.Name()
	assert.Equal(t, "old", oldName)
	assert.Equal(t, "new", newName)
	assert.Equal(t, []string{"type", "name", "port"}, Keys(renamed.Value().(*Map)))
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg, err := ParseConfig([]byte("a: 1\nproxies:\n  - name: x\n"))
	require.NoError(t, err)

	c2 := cfg.Clone()
	c2.Set("a", 2)
	c2.SetProxies(nil)
	c2.Set("new", true)

	a, _ := cfg.Get("a")
	assert.Equal(t, 1, a)
	assert.Equal(t, []string{"a", "proxies"}, cfg.Keys())
	ps, err := cfg.Proxies()
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "MATCH,漏网之鱼", Rule{Type: "MATCH", Action: "漏网之鱼"}.String())
	assert.Equal(t, "GEOIP,CN,DIRECT,no-resolve", Rule{Type: "GEOIP", Value: "CN", Action: "DIRECT", NoResolve: true}.String())
	assert.Equal(t, "RULE-SET,reject,广告拦截", Rule{Type: "RULE-SET", Value: "reject", Action: "广告拦截"}.String())
}
