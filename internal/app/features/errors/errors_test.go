package errors_test

import (
	"errors"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/testutil"
	"go.uber.org/zap"
)

func TestForbidden(t *testing.T) {
	testutil.BootTemplates(t)
	h := uierrors.NewHandler()

	rec := testutil.NewRecorder()
	h.Forbidden(rec, testutil.NewRequest(http.MethodGet, "/forbidden"))

	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "permission")
}

func TestUnauthorized(t *testing.T) {
	testutil.BootTemplates(t)
	h := uierrors.NewHandler()

	rec := testutil.NewRecorder()
	h.Unauthorized(rec, testutil.NewRequest(http.MethodGet, "/unauthorized"))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "Please sign in to continue.")
	rec.AssertContains(t, `href="/login"`)
}

func TestErrorLogger(t *testing.T) {
	testutil.BootTemplates(t)
	el := uierrors.NewErrorLogger(zap.NewNop())

	rec := testutil.NewRecorder()
	el.LogBadRequest(rec, testutil.NewRequest(http.MethodPost, "/x"), "bad", errors.New("boom"), "Invalid form data.", "/dashboard")
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Invalid form data.")
	rec.AssertNotContains(t, "boom")

	rec = testutil.NewRecorder()
	el.LogServerError(rec, testutil.NewRequest(http.MethodGet, "/x"), "db", errors.New("secret detail"), "Something went wrong.", "/")
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertNotContains(t, "secret detail")
}

func TestCSRFFailure(t *testing.T) {
	testutil.BootTemplates(t)
	h := uierrors.NewHandler()

	rec := testutil.NewRecorder()
	h.CSRFFailure(rec, testutil.NewRequest(http.MethodPost, "/login"))

	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "This form has expired.")
}
