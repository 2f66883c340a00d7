// internal/app/features/systemusers/routes.go
package systemusers

import (
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account-management routes under the path where this
// router is mounted (typically "/admin/users" from bootstrap).
//
// Example mount from bootstrap:
//
//	h := systemusers.NewHandler(errLog, logger)
//	r.Mount("/admin/users", systemusers.Routes(h, sessionMgr))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only signed-in admins can manage accounts.
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Post("/{id}/toggle", h.HandleToggle)
	})

	return r
}
