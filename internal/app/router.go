package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/meridian-erp/authz/internal/authz/assignment"
	"github.com/meridian-erp/authz/internal/authz/catalog"
	"github.com/meridian-erp/authz/internal/authz/guard"
	"github.com/meridian-erp/authz/internal/authz/role"
	"github.com/meridian-erp/authz/internal/observability"
)

// RouterConfig collects everything the HTTP surface mounts.
type RouterConfig struct {
	Logger      *slog.Logger
	Config      *Config
	Metrics     *observability.Metrics
	Catalog     *catalog.Handler
	Roles       *role.Handler
	Assignments *assignment.Handler
	Guard       *guard.Handler
}

// NewRouter assembles the service router. Administrative routes sit
// behind the bearer-token gate; the decision endpoint is open to
// in-cluster callers but rate limited.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: cfg.Logger, Config: cfg.Config, Metrics: cfg.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Config != nil && cfg.Config.CheckRateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.Config.CheckRateLimit, time.Minute))
		}
		r.Route("/check", cfg.Guard.MountRoutes)
	})

	r.Group(func(r chi.Router) {
		if cfg.Config != nil {
			r.Use(AdminAuth(cfg.Config.AdminTokenHash, cfg.Logger))
		}
		r.Route("/permissions", cfg.Catalog.MountRoutes)
		r.Route("/roles", cfg.Roles.MountRoutes)
		r.Route("/actors", cfg.Assignments.MountRoutes)
	})

	return r
}
