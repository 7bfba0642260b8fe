package httpapi

import (
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/subrules/internal/transform"
)

const defaultMaxBodyBytes int64 = 8 << 20

// Options controls HTTP API runtime behavior.
type Options struct {
	// Transform holds the base transform options. Query parameters of a
	// request override DefaultGroup, CustomRules and UniqueNames.
	Transform transform.Options

	Logger logrus.FieldLogger

	// RateLimit is requests per second per client address; 0 disables it.
	RateLimit float64
	Burst     int

	// CORSOrigins lists allowed origins; empty disables CORS headers.
	CORSOrigins []string

	MaxBodyBytes int64
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Transform.Logger == nil {
		o.Transform.Logger = o.Logger
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = defaultMaxBodyBytes
	}
	if o.RateLimit > 0 && o.Burst <= 0 {
		o.Burst = 1
	}
	return o
}
