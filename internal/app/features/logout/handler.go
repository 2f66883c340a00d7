// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout handles POST /logout. It always succeeds: the
// controller drops its session, the cookie is deleted and the browser's
// state leaves the registry.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if ctrl, ok := auth.Controller(r); ok {
		ctrl.EndSession(auth.Storage(r))
	}

	if err := h.SessionMgr.ExpireSession(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	if sid := auth.SessionID(r); sid != "" {
		if reg := h.SessionMgr.Registry(); reg != nil {
			reg.Remove(sid)
		}
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation.
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
