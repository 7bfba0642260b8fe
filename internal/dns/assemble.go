package dns

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

const stageAssemble = "assemble_dns"

// Apply merges the DNS policy into cfg.dns, keeping unrelated dns keys in
// place, and overwrites the client-wide options at the top level. cfg.dns is
// replaced with a new mapping, never modified.
func Apply(cfg *model.Config, opt Options) error {
	opt = opt.WithDefaults()
	if err := Validate(opt); err != nil {
		return err
	}

	var m *model.Map
	switch v, _ := cfg.Get(model.KeyDNS); existing := v.(type) {
	case nil:
		m = model.NewMap()
	case *model.Map:
		m = model.CopyMap(existing)
	default:
		return &AssembleError{
			AppError: model.AppError{
				Code:    "DNS_ASSEMBLE_ERROR",
				Message: fmt.Sprintf("dns 字段必须是映射（实际为 %T）", v),
				Stage:   stageAssemble,
				Hint:    "remove the dns key or make it a mapping",
			},
		}
	}

	policy := model.NewMap()
	policy.Set("geosite:cn", clone(opt.Domestic))
	policy.Set("geosite:geolocation-!cn", clone(opt.Trusted))

	m.Set("enable", true)
	m.Set("prefer-h3", true)
	m.Set("default-nameserver", clone(opt.Domestic))
	m.Set("nameserver", clone(opt.Trusted))
	m.Set("nameserver-policy", policy)
	m.Set("fallback", clone(opt.Trusted))
	m.Set("fallback-filter", fallbackFilter())
	cfg.Set(model.KeyDNS, m)

	cfg.Set(model.KeyUnifiedDelay, true)
	cfg.Set(model.KeyTCPConcurrent, true)
	cfg.Set(model.KeyProfile, model.StoreProfile{StoreSelected: true, StoreFakeIP: true})
	cfg.Set(model.KeySniffer, sniffer())
	cfg.Set(model.KeyGeodataMode, true)
	cfg.Set(model.KeyGeoXURL, geoXURL(opt.GeoXMirror))
	return nil
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
