package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridianbank/core/internal/observability"
)

// NewRouter assembles the full HTTP surface. The operational endpoints stay
// outside the authenticated tree so probes and scrapers need no token.
func NewRouter(
	jwtSecret string,
	transfers *TransferHandler,
	accounts *AccountHandler,
	authH *AuthHandler,
	health *HealthHandler,
	metrics *observability.Metrics,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(Logging)
	r.Use(Recovery)

	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(Auth(jwtSecret))

			r.Get("/accounts", accounts.List)

			r.Post("/transfers", transfers.Initiate)
			r.Get("/transfers", transfers.List)
			r.Get("/transfers/{id}", transfers.Get)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/admin/transfers", transfers.ListPending)
				r.Get("/admin/transfers/{id}", transfers.GetAny)
				r.Post("/admin/transfers/{id}/settle", transfers.Settle)
			})
		})
	})

	return r
}
