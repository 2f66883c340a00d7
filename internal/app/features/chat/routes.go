// internal/app/features/chat/routes.go
package chat

import (
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the chat feature under /chat. The backend decides who is
// involved in a pickup; here a session is all that is required.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeCurrent)
		pr.Get("/{id}", h.ServeThread)
		pr.Post("/{id}", h.HandleSend)
	})
	return r
}
