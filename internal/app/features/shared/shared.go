// Package shared holds helpers every app feature handler uses: resolving
// the browser's controller, bounding a user action and redirecting after a
// form post.
package shared

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Controller returns the request's controller. When none is bound it renders
// a 500 page and returns false.
func Controller(w http.ResponseWriter, r *http.Request, errLog *uierrors.ErrorLogger) (*appstate.Controller, bool) {
	c, ok := auth.Controller(r)
	if !ok {
		errLog.LogServerError(w, r, "no state controller bound to request", nil, "Your session could not be loaded. Please try again.", "/")
		return nil, false
	}
	return c, true
}

// ActionContext bounds one user action. The action is detached from the
// request's cancellation so a closed tab does not abort a half-applied
// mutation and its follow-up refresh.
func ActionContext(r *http.Request, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	return timeouts.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Backend(), log, op)
}

// Redirect sends the browser to dest after a form post.
// HTMX requests get an HX-Redirect header instead of a 303.
func Redirect(w http.ResponseWriter, r *http.Request, dest string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
