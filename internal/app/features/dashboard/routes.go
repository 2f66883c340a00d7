// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes wires the view router at the site root:
//
//	GET  /           → current view
//	GET  /dashboard  → role dashboard
//	GET  /schedule   → schedule form (households)
//	POST /schedule   → create pickup (households)
//	GET  /{view}     → any other view
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeHome)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/dashboard", h.ServeDashboard)
		pr.Get("/{view}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleHousehold))
		pr.Get("/schedule", h.ServeSchedule)
		pr.Post("/schedule", h.HandleSchedule)
	})

	return r
}
