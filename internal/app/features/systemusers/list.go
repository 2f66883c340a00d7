// internal/app/features/systemusers/list.go
package systemusers

import (
	"errors"
	"net/http"

	"github.com/dalemusser/bhangaar/internal/app/features/shared"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type listData struct {
	viewdata.BaseVM
}

// ServeList loads every account from the backend and renders the table.
// A failed load leaves the previous listing and shows the error.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	ctx, cancel := shared.ActionContext(r, h.Log, "load users")
	defer cancel()
	if err := ctrl.LoadUsers(ctx); err != nil {
		if errors.Is(err, appstate.ErrNoSession) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.Log.Warn("load users failed", zap.Error(err))
		ctrl.Navigate(appstate.ViewManageUsers)
	}
	templates.Render(w, r, "users", listData{
		BaseVM: viewdata.NewBaseVM(r, "Manage Users", "/dashboard"),
	})
}

// HandleToggle flips an account between active and inactive.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	ctx, cancel := shared.ActionContext(r, h.Log, "toggle user")
	defer cancel()
	err := ctrl.ToggleUser(ctx, id)
	if errors.Is(err, appstate.ErrNoSession) {
		shared.Redirect(w, r, "/login")
		return
	}
	if err != nil {
		h.Log.Info("toggle user failed", zap.String("user_id", id), zap.Error(err))
	}
	shared.Redirect(w, r, "/admin/users")
}
