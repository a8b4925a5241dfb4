package realtime

import (
	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the socket endpoint. Handshakes are rate limited per
// client IP before the upgrade.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(ratelimit.PerIP(h.Limiter, h.Log))
	r.Get("/", h.ServeWS)
	return r
}
