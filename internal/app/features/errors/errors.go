// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// Handler is the errors feature handler.
// No backend needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "You don't have permission to view this page.", "/dashboard")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	RenderUnauthorized(w, r, "")
}

// CSRFFailure is the page shown when a form post fails the CSRF check,
// usually because the form was loaded before the session rotated.
func (h *Handler) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	RenderForbidden(w, r, "This form has expired. Reload the page and try again.", "/dashboard")
}
