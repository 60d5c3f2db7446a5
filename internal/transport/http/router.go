package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certledger/internal/jwtident"
)

// NewRouter wires all public endpoints. Reads are open; every mutation goes
// through identity authentication, with role enforcement in the service.
func NewRouter(h *Handler, tokens *jwtident.Service, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/certificates", func(r chi.Router) {
		r.Get("/", h.handleListCertificates)
		r.Get("/{id}", h.handleGetCertificate)
		r.Post("/{id}/verify", h.handleVerifyContent)

		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity(tokens, logger))
			r.Post("/", h.handleIssue)
			r.Post("/{id}/content", h.handleUpdateContent)
			r.Post("/{id}/revoke", h.handleRevoke)
		})
	})

	r.Route("/issuers", func(r chi.Router) {
		r.Use(RequireIdentity(tokens, logger))
		r.Post("/", h.handleAddIssuer)
		r.Delete("/{identity}", h.handleRemoveIssuer)
	})

	r.Get("/roles/{identity}", h.handleRoles)
	r.Get("/registry/stats", h.handleStats)
	r.Get("/audit/entries", h.handleAuditEntries)

	return r
}
