// SPDX-License-Identifier: MIT

package middleware

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	svlog "github.com/scale-vision/runtime/internal/log"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
// It is used by the HTTP API server (internal/httpapi) so cross-cutting concerns are applied in one place.
type StackConfig struct {
	// CORS
	EnableCORS     bool
	AllowedOrigins []string

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// CSRF (state-changing requests only; shares AllowedOrigins with CORS)
	EnableCSRF bool

	// Observability
	EnableMetrics bool
	EnableLogging bool

	// Rate limiting (API)
	EnableRateLimit    bool
	RateLimitEnabled   bool
	RateLimitGlobalRPS int
	RateLimitBurst     int
	RateLimitWhitelist []string
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. Recoverer (outermost safety net)
	r.Use(chimw.Recoverer)
	// 2. RequestID (correlation early)
	r.Use(chimw.RequestID)
	// 3. CORS (so OPTIONS and browser clients behave)
	if cfg.EnableCORS {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	// 4. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	// 4b. CSRF (Origin/Referer check on state-changing requests)
	if cfg.EnableCSRF {
		r.Use(CSRFProtection(cfg.AllowedOrigins))
	}
	// 5. Metrics (track all requests)
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 6. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(svlog.Middleware())
	}
	// 7. Rate limit (global protection)
	if cfg.EnableRateLimit {
		r.Use(APIRateLimit(cfg.RateLimitEnabled, cfg.RateLimitGlobalRPS, cfg.RateLimitBurst, cfg.RateLimitWhitelist))
	}
}
