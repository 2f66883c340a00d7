// internal/app/features/chat/handler.go
package chat

import (
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/features/shared"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the per-pickup message thread between a household and
// its collector.
type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, ErrLog: errLog}
}

type pageData struct {
	viewdata.BaseVM
}

// ServeCurrent handles GET /chat: the open thread, or the dashboard when
// none is open.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	if ctrl.Navigate(appstate.ViewChat) != appstate.ViewChat {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r)
}

// ServeThread handles GET /chat/{id}.
func (h *Handler) ServeThread(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := shared.ActionContext(r, h.Log, "open chat")
	defer cancel()
	if err := ctrl.OpenChat(ctx, id); err != nil {
		if errors.Is(err, appstate.ErrNoSession) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.Log.Info("open chat failed", zap.String("pickup_id", id), zap.Error(err))
		ctrl.Navigate(appstate.ViewDashboard)
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r)
}

// HandleSend handles POST /chat/{id} with form field message.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/chat")
		return
	}
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := shared.ActionContext(r, h.Log, "send chat message")
	defer cancel()
	err := ctrl.SendMessage(ctx, id, r.PostFormValue("message"))
	if errors.Is(err, appstate.ErrNoSession) {
		shared.Redirect(w, r, "/login")
		return
	}
	if err != nil {
		h.Log.Info("send chat message failed", zap.String("pickup_id", id), zap.Error(err))
	}
	shared.Redirect(w, r, "/chat/"+url.PathEscape(id))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "chat", pageData{
		BaseVM: viewdata.NewBaseVM(r, "Chat", "/dashboard"),
	})
}
