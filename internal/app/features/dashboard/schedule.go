// internal/app/features/dashboard/schedule.go
package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/features/shared"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type wasteOption struct {
	Value    string
	Label    string
	Selected bool
}

type scheduleData struct {
	viewdata.BaseVM
	WasteTypes []wasteOption
	Form       appstate.PickupForm
	FieldError string // form field the error belongs to
	MinDate    string
}

func (h *Handler) scheduleData(r *http.Request, ctrl *appstate.Controller, f appstate.PickupForm, field string) scheduleData {
	if f.WasteType == "" {
		f.WasteType = string(models.WasteDry)
	}
	opts := make([]wasteOption, 0, len(models.WasteTypes))
	for _, wt := range models.WasteTypes {
		opts = append(opts, wasteOption{Value: string(wt), Label: wt.Label(), Selected: string(wt) == f.WasteType})
	}
	return scheduleData{
		BaseVM:     viewdata.NewBaseVM(r, "Schedule Pickup", "/dashboard"),
		WasteTypes: opts,
		Form:       f,
		FieldError: field,
		MinDate:    ctrl.Now().In(viewdata.Location()).Format(time.DateOnly),
	}
}

// ServeSchedule handles GET /schedule.
func (h *Handler) ServeSchedule(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}
	ctrl.Navigate(appstate.ViewSchedule)
	templates.Render(w, r, "schedule", h.scheduleData(r, ctrl, appstate.PickupForm{}, ""))
}

// HandleSchedule handles POST /schedule. On success the dashboard shows the
// confirmation; otherwise the form is shown again with what was typed.
func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/schedule")
		return
	}
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}

	f := appstate.PickupForm{
		WasteType: r.PostFormValue("waste_type"),
		Date:      r.PostFormValue("pickup_date"),
		Time:      r.PostFormValue("pickup_time"),
		Location:  r.PostFormValue("location"),
		Address:   r.PostFormValue("address"),
		Notes:     r.PostFormValue("notes"),
		PhotoURL:  r.PostFormValue("photo_url"),
	}

	ctx, cancel := shared.ActionContext(r, h.Log, "create pickup")
	defer cancel()
	err := ctrl.CreatePickup(ctx, f)
	if err == nil {
		shared.Redirect(w, r, "/dashboard")
		return
	}
	if errors.Is(err, appstate.ErrNoSession) {
		shared.Redirect(w, r, "/login")
		return
	}

	field := ""
	var fe *appstate.FormError
	if errors.As(err, &fe) {
		field = fe.Field
	} else {
		h.Log.Info("create pickup rejected", zap.Error(err))
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "schedule", h.scheduleData(r, ctrl, f, field))
}
