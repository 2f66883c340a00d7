package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/bhangaar/internal/app/backend"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// UserWithRole returns a TestUser with a fresh id and the given role.
func UserWithRole(role string) TestUser {
	return TestUser{ID: uuid.NewString(), Name: "Test " + models.RoleLabel(role), Email: role + "@test.com", Role: role}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewFormRequest creates a URL-encoded form POST.
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

/*─────────────────────────────────────────────────────────────────────────────*
| Controller harness                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// Session is a controller wired to a fake backend, with its storage.
type Session struct {
	Backend *Backend
	Ctrl    *appstate.Controller
	Store   *appstate.MemoryStorage
	User    models.User
}

// NewSession returns a signed-out controller talking to a fresh fake backend.
func NewSession(t testing.TB) *Session {
	t.Helper()
	be := NewBackend(t)
	api, err := backend.New(be.URL(), nil, zap.NewNop())
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return &Session{
		Backend: be,
		Ctrl:    appstate.NewController(api, appstate.Config{}, zap.NewNop()),
		Store:   appstate.NewMemoryStorage(),
	}
}

// NewSignedInSession is NewSession plus a sign-in as a fresh account of role.
func NewSignedInSession(t testing.TB, role string) *Session {
	t.Helper()
	s := NewSession(t)
	email := role + "@test.com"
	s.User, _ = s.Backend.SeedUser(role, "Test "+models.RoleLabel(role), email, "secret")
	if _, err := s.Ctrl.Authenticate(context.Background(), s.Store, appstate.Credentials{
		Mode:     appstate.ModeLogin,
		Email:    email,
		Password: "secret",
	}); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return s
}

// Bind injects the controller and storage the way the session middleware does.
func (s *Session) Bind(r *http.Request) *http.Request {
	return auth.WithTestController(r, s.Ctrl, s.Store)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Response assertions                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t interface{ Errorf(string, ...any) }, expectedLocation string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	location := r.Header().Get("Location")
	if location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertNotContains checks the response body does not contain s.
func (r *ResponseRecorder) AssertNotContains(t interface{ Errorf(string, ...any) }, s string) {
	if strings.Contains(r.Body.String(), s) {
		t.Errorf("response body unexpectedly contains %q", s)
	}
}
