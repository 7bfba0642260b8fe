package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/subrules/internal/model"
)

func TestIsJunk(t *testing.T) {
	for _, name := range []string{
		"狮城01-IEPL-x2套餐到期",
		"剩余流量：100GB",
		"官网 example.com 订阅",
		"Expire: 2025-01-01",
		"used 10GB",
		"Total 200G",
		"email: a@b.c",
	} {
		junk, err := IsJunk(name)
		require.NoError(t, err)
		assert.True(t, junk, name)
	}

	for _, name := range []string{"HKT-02 IPLC x2", "香港 01", "日本 东京 x1.5"} {
		junk, err := IsJunk(name)
		require.NoError(t, err)
		assert.False(t, junk, name)
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		region Region
		tag    SpecialTag
		mult   string
	}{
		{in: "HKT-02 IPLC x2", want: "HK IPLC x2", region: RegionHK, tag: TagIPLC, mult: "x2"},
		{in: "香港 01", want: "HK", region: RegionHK},
		{in: "深港 02", want: "HK", region: RegionHK},
		{in: "深港IPLC 02", want: "IPLC", tag: TagIPLC},
		{in: "🇨🇳 台湾 01", want: "TW", region: RegionTW},
		{in: "USA Los Angeles 01", want: "US", region: RegionUS},
		{in: "🇯🇵 东京 03 x1.5", want: "JP x1.5", region: RegionJP, mult: "x1.5"},
		{in: "Premium 美国 01", want: "PREMIUM", tag: TagPremium},
		{in: "sg relay 2×", want: "SG RELAY 2×", region: RegionSG, tag: TagRelay, mult: "2×"},
		{in: "Some Node 7", want: "Some Node"},
		{in: "a 1 2", want: "a"},
		{in: "London 01", want: "United Kingdom London"},
		{in: "Korea 3.1", want: "KR", region: RegionKR},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeName(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Name)
			assert.Equal(t, tc.region, got.Region)
			assert.Equal(t, tc.tag, got.Tag)
			assert.Equal(t, tc.mult, got.Multiplier)
		})
	}
}

func TestNormalizeName_EmptyAfterStrip(t *testing.T) {
	_, err := NormalizeName("01")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestNormalizeName_RegionIdempotent(t *testing.T) {
	for _, in := range []string{"HKT-02 IPLC x2", "🇨🇳 台湾 01", "🇯🇵 东京 03 x1.5", "Some Node 7", "新加坡 BGP"} {
		first, err := NormalizeName(in)
		require.NoError(t, err)

		region, err := DetectRegion(first.Name)
		require.NoError(t, err)
		assert.Equal(t, first.Region, region, in)

		second, err := NormalizeName(first.Name)
		require.NoError(t, err)
		assert.Equal(t, first.Region, second.Region, in)
	}
}

func TestNormalize(t *testing.T) {
	cfg, err := model.ParseConfig([]byte(`proxies:
  - {name: "狮城01-IEPL-x2套餐到期", type: ss}
  - {name: "HKT-02 IPLC x2", type: ss, server: a.example}
  - plain-string
  - {type: ss}
  - {name: 7, type: ss}
  - {name: "🇯🇵 东京 03", type: vmess}
`))
	require.NoError(t, err)
	in, err := cfg.Proxies()
	require.NoError(t, err)

	out, results := Normalize(in, Options{})
	require.Len(t, results, 6)
	require.Len(t, out, 2)

	assert.Equal(t, OutcomeJunk, results[0].Outcome)
	assert.Equal(t, OutcomeKept, results[1].Outcome)
	assert.Equal(t, "HK IPLC x2", results[1].Name)
	assert.Equal(t, OutcomeError, results[2].Outcome)
	assert.ErrorIs(t, results[2].Err, model.ErrProxyNotMapping)
	assert.Equal(t, OutcomeError, results[3].Outcome)
	assert.ErrorIs(t, results[3].Err, model.ErrProxyNameMissing)
	assert.Equal(t, OutcomeError, results[4].Outcome)
	assert.Equal(t, OutcomeKept, results[5].Outcome)

	n0, _ := out[0].Name()
	n1, _ := out[1].Name()
	assert.Equal(t, "HK IPLC x2", n0)
	assert.Equal(t, "JP", n1)

	server, ok := out[0].Field("server")
	require.True(t, ok)
	assert.Equal(t, "a.example", server)

	// input untouched
	orig, _ := in[1].Name()
	assert.Equal(t, "HKT-02 IPLC x2", orig)
}

func TestNormalize_UniqueNames(t *testing.T) {
	cfg, err := model.ParseConfig([]byte(`proxies:
  - {name: "香港 01"}
  - {name: "香港 02"}
  - {name: "HK 03"}
  - {name: "DIRECT"}
`))
	require.NoError(t, err)
	in, err := cfg.Proxies()
	require.NoError(t, err)

	out, _ := Normalize(in, Options{})
	names := make([]string, 0, len(out))
	for _, p := range out {
		n, _ := p.Name()
		names = append(names, n)
	}
	assert.Equal(t, []string{"HK", "HK", "HK", "DIRECT"}, names)

	out, results := Normalize(in, Options{UniqueNames: true})
	names = names[:0]
	for _, p := range out {
		n, _ := p.Name()
		names = append(names, n)
	}
	assert.Equal(t, []string{"HK", "HK-2", "HK-3", "DIRECT-2"}, names)
	assert.Equal(t, "HK-3", results[2].Name)
}
