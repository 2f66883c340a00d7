// internal/app/features/pickups/routes.go
package pickups

import (
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes wires the pickup actions under /pickups. Role checks here mirror
// the backend's so a forbidden action never reaches it.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeIndex)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleCollector, models.RoleAdmin))
		pr.Post("/{id}/assign", h.HandleAssign)
		pr.Post("/{id}/status", h.HandleStatus)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleHousehold))
		pr.Post("/{id}/rate", h.HandleRate)
	})

	return r
}
