package dns

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	mdns "github.com/miekg/dns"

	"github.com/John-Robertt/subrules/internal/model"
)

// Resolver is a parsed nameserver entry.
type Resolver struct {
	Scheme string // udp, tcp, tls, https, quic, dhcp
	Host   string
	IsIP   bool
}

// ParseResolver accepts the nameserver forms Clash.Meta understands.
// Entries without a scheme are plain UDP, e.g. "223.5.5.5:53".
func ParseResolver(s string) (Resolver, error) {
	server := strings.TrimSpace(s)
	if server == "" {
		return Resolver{}, errors.New("empty nameserver")
	}
	if !strings.Contains(server, "://") {
		server = "udp://" + server
	}

	u, err := url.Parse(server)
	if err != nil {
		return Resolver{}, fmt.Errorf("format error: %w", err)
	}
	switch u.Scheme {
	case "udp", "tcp", "tls", "https", "quic", "dhcp":
	default:
		return Resolver{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	r := Resolver{Scheme: u.Scheme, Host: u.Hostname()}
	if r.Host == "" {
		return Resolver{}, errors.New("missing host")
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return Resolver{}, fmt.Errorf("invalid port: %s", p)
		}
	}
	if r.Scheme == "dhcp" {
		// host is an interface name
		return r, nil
	}
	if _, err := netip.ParseAddr(r.Host); err == nil {
		r.IsIP = true
		return r, nil
	}
	if err := validateDomain(r.Host); err != nil {
		return Resolver{}, err
	}
	return r, nil
}

func validateDomain(d string) error {
	if !strings.Contains(d, ".") {
		return fmt.Errorf("invalid domain name: %s", d)
	}
	if _, ok := mdns.IsDomainName(d); !ok {
		return fmt.Errorf("invalid domain name: %s", d)
	}
	return nil
}

// Validate checks resolver lists, the mirror prefix and the fallback filter.
// Options are expected to have defaults applied.
func Validate(opt Options) error {
	if len(opt.Domestic) == 0 || len(opt.Trusted) == 0 {
		return validateErr("DNS 解析服务器列表不能为空", "", nil)
	}
	for _, s := range opt.Domestic {
		r, err := ParseResolver(s)
		if err != nil {
			return validateErr("国内 DNS 解析服务器不合法", s, err)
		}
		// Used as default-nameserver, which must not need resolving itself.
		if !r.IsIP {
			return validateErr("国内 DNS 解析服务器必须使用 IP 地址", s, nil)
		}
	}
	for _, s := range opt.Trusted {
		if _, err := ParseResolver(s); err != nil {
			return validateErr("可信 DNS 解析服务器不合法", s, err)
		}
	}

	if opt.GeoXMirror != "" {
		u, err := url.Parse(opt.GeoXMirror)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return validateErr("geox 镜像地址不合法", opt.GeoXMirror, err)
		}
		if !strings.HasSuffix(opt.GeoXMirror, "/") {
			return validateErr("geox 镜像地址必须以 / 结尾", opt.GeoXMirror, nil)
		}
	}

	ff := fallbackFilter()
	for _, c := range ff.IPCIDR {
		if _, err := netip.ParsePrefix(c); err != nil {
			return validateErr("fallback-filter ipcidr 不合法", c, err)
		}
	}
	for _, d := range ff.Domain {
		if err := validateDomain(strings.TrimPrefix(d, "+.")); err != nil {
			return validateErr("fallback-filter domain 不合法", d, err)
		}
	}
	return nil
}

func validateErr(msg, snippet string, cause error) error {
	return &AssembleError{
		AppError: model.AppError{
			Code:    "DNS_VALIDATE_ERROR",
			Message: msg,
			Stage:   stageAssemble,
			Snippet: snippet,
		},
		Cause: cause,
	}
}
