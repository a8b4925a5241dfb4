// internal/app/features/auditlog/routes.go
package auditlog

import (
	"net/http"

	"github.com/dalemusser/collabhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the history routes under the path where this router is
// mounted (typically "/api/audit" from bootstrap).
//
// Only users who can edit an item may read its history.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Get("/notes/{id}", h.ServeHistory(models.ScopeNote))
	r.Get("/tasks/{id}", h.ServeHistory(models.ScopeTask))
	return r
}
