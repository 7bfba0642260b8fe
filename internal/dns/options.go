package dns

import "github.com/John-Robertt/subrules/internal/model"

// NoMirror disables the geo-data download mirror prefix.
const NoMirror = "none"

const DefaultGeoXMirror = "https://fastgh.lainbo.com/"

func DomesticResolvers() []string {
	return []string{
		"https://223.5.5.5/dns-query",
		"https://1.12.12.12/dns-query",
	}
}

func TrustedResolvers() []string {
	return []string{
		"quic://dns.cooluc.com",
		"https://1.0.0.1/dns-query",
		"https://1.1.1.1/dns-query",
	}
}

const geoXRelease = "https://github.com/MetaCubeX/meta-rules-dat/releases/download/latest/"

// Options selects the resolvers and geo-data mirror. Zero fields fall back
// to the defaults above.
type Options struct {
	// Domestic resolvers answer for the default-nameserver role and
	// geosite:cn. They must use IP hosts.
	Domestic []string
	// Trusted resolvers answer everything else and act as fallback.
	Trusted []string
	// GeoXMirror is prefixed to every geo-data URL; NoMirror disables it.
	GeoXMirror string
}

// WithDefaults fills empty fields with the built-in resolvers and mirror.
func (o Options) WithDefaults() Options {
	if len(o.Domestic) == 0 {
		o.Domestic = DomesticResolvers()
	}
	if len(o.Trusted) == 0 {
		o.Trusted = TrustedResolvers()
	}
	switch o.GeoXMirror {
	case "":
		o.GeoXMirror = DefaultGeoXMirror
	case NoMirror:
		o.GeoXMirror = ""
	}
	return o
}

func fallbackFilter() model.FallbackFilter {
	return model.FallbackFilter{
		GeoIP:     true,
		GeoIPCode: "CN",
		GeoSite:   []string{"gfw"},
		IPCIDR:    []string{"240.0.0.0/4"},
		Domain:    []string{"+.google.com", "+.facebook.com", "+.youtube.com"},
	}
}

func sniffer() model.Sniffer {
	return model.Sniffer{
		Enable: true,
		Sniff: model.SniffProtocols{
			TLS:  model.SniffRule{Ports: []any{443, 8443}},
			HTTP: model.SniffRule{Ports: []any{80, "8080-8880"}, OverrideDestination: true},
		},
	}
}

func geoXURL(mirror string) model.GeoXURL {
	return model.GeoXURL{
		GeoIP:   mirror + geoXRelease + "geoip-lite.dat",
		GeoSite: mirror + geoXRelease + "geosite.dat",
		MMDB:    mirror + geoXRelease + "country-lite.mmdb",
	}
}
