// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"
)

// Routes serves POST /logout. It is open to signed-out browsers so a stale
// tab can always clear its cookie. GET is not accepted: a cross-site link
// must not be able to sign the user out, and only posts carry a CSRF token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogout)
	return r
}
