package model

// FallbackFilter decides when a fallback resolver answer wins over the
// nameserver answer.
type FallbackFilter struct {
	GeoIP     bool     `yaml:"geoip" json:"geoip"`
	GeoIPCode string   `yaml:"geoip-code" json:"geoip-code"`
	GeoSite   []string `yaml:"geosite" json:"geosite"`
	IPCIDR    []string `yaml:"ipcidr" json:"ipcidr"`
	Domain    []string `yaml:"domain" json:"domain"`
}

type StoreProfile struct {
	StoreSelected bool `yaml:"store-selected" json:"store-selected"`
	StoreFakeIP   bool `yaml:"store-fake-ip" json:"store-fake-ip"`
}

type Sniffer struct {
	Enable bool           `yaml:"enable" json:"enable"`
	Sniff  SniffProtocols `yaml:"sniff" json:"sniff"`
}

type SniffProtocols struct {
	TLS  SniffRule `yaml:"TLS" json:"TLS"`
	HTTP SniffRule `yaml:"HTTP" json:"HTTP"`
}

// SniffRule ports are either single ports (int) or "from-to" ranges (string).
type SniffRule struct {
	Ports               []any `yaml:"ports" json:"ports"`
	OverrideDestination bool  `yaml:"override-destination,omitempty" json:"override-destination,omitempty"`
}

type GeoXURL struct {
	GeoIP   string `yaml:"geoip" json:"geoip"`
	GeoSite string `yaml:"geosite" json:"geosite"`
	MMDB    string `yaml:"mmdb" json:"mmdb"`
}
