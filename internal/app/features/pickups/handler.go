// internal/app/features/pickups/handler.go
package pickups

import (
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/features/shared"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/lifecycle"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler runs the pickup actions posted from dashboard cards. Every action
// ends on the dashboard, where the outcome shows as a transient message.
type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, ErrLog: errLog}
}

// ServeIndex handles GET /pickups, an alias of the dashboard.
func (h *Handler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleStatus handles POST /pickups/{id}/status with form field action.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/dashboard")
		return
	}
	action, err := lifecycle.ParseAction(r.PostFormValue("action"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "unknown pickup action", err, "Unknown pickup action.", "/dashboard")
		return
	}
	h.run(w, r, "update pickup status", func(c *appstate.Controller, id string) error {
		ctx, cancel := shared.ActionContext(r, h.Log, "update pickup status")
		defer cancel()
		return c.UpdatePickupStatus(ctx, id, action)
	})
}

// HandleAssign handles POST /pickups/{id}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "assign pickup", func(c *appstate.Controller, id string) error {
		ctx, cancel := shared.ActionContext(r, h.Log, "assign pickup")
		defer cancel()
		return c.AssignPickup(ctx, id)
	})
}

// HandleRate handles POST /pickups/{id}/rate with rating and feedback.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/dashboard")
		return
	}
	// A non-number is passed on as 0 so the controller reports the range.
	rating, _ := strconv.Atoi(r.PostFormValue("rating"))
	feedback := r.PostFormValue("feedback")
	h.run(w, r, "rate pickup", func(c *appstate.Controller, id string) error {
		ctx, cancel := shared.ActionContext(r, h.Log, "rate pickup")
		defer cancel()
		return c.RatePickup(ctx, id, rating, feedback)
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, op string, act func(*appstate.Controller, string) error) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := act(ctrl, id); err != nil {
		if errors.Is(err, appstate.ErrNoSession) {
			shared.Redirect(w, r, "/login")
			return
		}
		// The controller already set the user-visible message.
		h.Log.Info(op+" failed", zap.String("pickup_id", id), zap.Error(err))
	}
	ctrl.Navigate(appstate.ViewDashboard)
	shared.Redirect(w, r, "/dashboard")
}
