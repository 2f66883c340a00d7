// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/features/shared"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/presenter"
	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler renders the signed-in views: the role dashboard, the schedule
// form and the placeholder pages.
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

// cardVM carries the CSRF token into each card's action forms.
type cardVM struct {
	presenter.Card
	CSRFToken string
}

type dashboardData struct {
	viewdata.BaseVM
	Recent    []cardVM
	Available []cardVM
	Mine      []cardVM
}

func withToken(cards []presenter.Card, token string) []cardVM {
	out := make([]cardVM, len(cards))
	for i, c := range cards {
		out[i] = cardVM{Card: c, CSRFToken: token}
	}
	return out
}

// ServeHome handles GET / by sending the browser to its current view.
func (h *Handler) ServeHome(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	v := ctrl.Navigate(ctrl.View())
	http.Redirect(w, r, presenter.ViewHref(v), http.StatusSeeOther)
}

// ServeView handles GET /{view}. Unknown views are 404. Views that have a
// dedicated route are redirected there.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	v, err := appstate.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}

	switch v {
	case appstate.ViewManageUsers, appstate.ViewLogin, appstate.ViewSchedule, appstate.ViewChat:
		http.Redirect(w, r, presenter.ViewHref(v), http.StatusSeeOther)
		return
	}

	got := ctrl.Navigate(v)
	switch {
	case got == appstate.ViewDashboard:
		h.renderDashboard(w, r, ctrl)
	case got.Placeholder():
		templates.Render(w, r, "placeholder", pageData{
			BaseVM: viewdata.NewBaseVM(r, presenter.ViewLabel(got), "/dashboard"),
		})
	default:
		http.Redirect(w, r, presenter.ViewHref(got), http.StatusSeeOther)
	}
}

// ServeDashboard handles GET /dashboard. The cached collections are
// refreshed first since a restored session starts with none.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	if ctrl.Navigate(appstate.ViewDashboard) != appstate.ViewDashboard {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.renderDashboard(w, r, ctrl)
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, ctrl *appstate.Controller) {
	ctx, cancel := shared.ActionContext(r, h.Log, "dashboard refresh")
	defer cancel()
	ctrl.Refresh(ctx)

	data := dashboardData{BaseVM: viewdata.NewBaseVM(r, "Dashboard", "/dashboard")}
	if d := data.Screen.Dashboard; d != nil {
		data.Title = d.Title
		data.Recent = withToken(d.Recent, data.CSRFToken)
		data.Available = withToken(d.Available, data.CSRFToken)
		data.Mine = withToken(d.Mine, data.CSRFToken)
	}
	templates.Render(w, r, "dashboard", data)
}
