package systemusers_test

import (
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/features/systemusers"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/dalemusser/bhangaar/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *systemusers.Handler {
	t.Helper()
	testutil.BootTemplates(t)
	logger := zap.NewNop()
	return systemusers.NewHandler(uierrors.NewErrorLogger(logger), logger)
}

func TestServeList_Admin(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleAdmin)
	s.Backend.SeedUser(models.RoleHousehold, "Meera Household", "meera@test.com", "pw")

	rec := testutil.NewRecorder()
	h.ServeList(rec, s.Bind(testutil.NewRequest(http.MethodGet, "/admin/users")))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Meera Household")
	rec.AssertContains(t, "meera@test.com")
	if s.Ctrl.View() != appstate.ViewManageUsers {
		t.Errorf("view = %q, want manage_users", s.Ctrl.View())
	}
}

func TestServeList_BackendFailureStillRenders(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleAdmin)
	s.Backend.Fail(http.MethodGet, "/api/admin/users", http.StatusInternalServerError, "Database offline")

	rec := testutil.NewRecorder()
	h.ServeList(rec, s.Bind(testutil.NewRequest(http.MethodGet, "/admin/users")))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Database offline")
	rec.AssertContains(t, "No users found.")
}

func TestHandleToggle_DeactivatesAccount(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleAdmin)
	target, _ := s.Backend.SeedUser(models.RoleCollector, "Ravi Collector", "ravi@test.com", "pw")

	req := testutil.NewFormRequest("/admin/users/"+target.ID+"/toggle", nil)
	req = s.Bind(testutil.WithChiURLParam(req, "id", target.ID))
	rec := testutil.NewRecorder()
	h.HandleToggle(rec, req)

	rec.AssertRedirect(t, "/admin/users")
	u, ok := s.Backend.User(target.ID)
	if !ok || u.Active() {
		t.Errorf("expected %s to be inactive", target.ID)
	}
	if got := s.Ctrl.Snapshot().Messages.Success(s.Ctrl.Now()); got == "" {
		t.Error("expected a success message")
	}
}

func TestHandleToggle_UnknownUserShowsError(t *testing.T) {
	h := newTestHandler(t)
	s := testutil.NewSignedInSession(t, models.RoleAdmin)

	req := testutil.NewFormRequest("/admin/users/nope/toggle", nil)
	req = s.Bind(testutil.WithChiURLParam(req, "id", "nope"))
	rec := testutil.NewRecorder()
	h.HandleToggle(rec, req)

	rec.AssertRedirect(t, "/admin/users")
	if got := s.Ctrl.Snapshot().Messages.Error(s.Ctrl.Now()); got != "User not found" {
		t.Errorf("error = %q, want %q", got, "User not found")
	}
}

func TestRoutes_NonAdminForbidden(t *testing.T) {
	h := newTestHandler(t)
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-32b", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	s := testutil.NewSignedInSession(t, models.RoleHousehold)

	req := s.Bind(testutil.NewRequest(http.MethodGet, "/"))
	req.Header.Set("Accept", "text/html")
	rec := testutil.NewRecorder()
	systemusers.Routes(h, sm).ServeHTTP(rec, req)

	rec.AssertRedirect(t, "/forbidden")
	if n := s.Backend.Count(http.MethodGet, "/api/admin/users"); n != 0 {
		t.Errorf("backend listing calls = %d, want 0", n)
	}
}
