package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewHandler returns the production handler with default options.
func NewHandler() http.Handler {
	return NewHandlerWithOptions(Options{})
}

func NewHandlerWithOptions(opt Options) http.Handler {
	opt = opt.withDefaults()
	h := transformHandler{opt: opt}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withRequestID)
	r.Use(withObservability(opt.Logger))
	if len(opt.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opt.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{errorHeader, requestIDHeader, "Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", metricsHandler())
	r.Group(func(r chi.Router) {
		if opt.RateLimit > 0 {
			r.Use(withRateLimit(newClientLimiter(opt.RateLimit, opt.Burst)))
		}
		r.Post("/api/transform", h.handleTransform)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorFromErr(w, r, apiError(http.StatusNotFound, notFound, nil))
	})
	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusOK, "ok\n")
}
