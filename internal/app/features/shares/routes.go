package shares

import (
	"net/http"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /api subrouter. requireAuth must reject requests
// without a bearer identity.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Route("/notes", scopeRoutes(h, models.ScopeNote))
	r.Route("/tasks", scopeRoutes(h, models.ScopeTask))
	return r
}

func scopeRoutes(h *Handler, scope models.ScopeType) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/shares/revoke-bulk", h.RevokeBulk(scope))
		r.Get("/{id}/shares", h.List(scope))
		r.Post("/{id}/shares", h.Grant(scope))
		r.Delete("/{id}/shares/{userId}", h.Revoke(scope))
	}
}
