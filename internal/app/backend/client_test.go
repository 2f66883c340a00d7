package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/bhangaar/internal/app/backend"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/dalemusser/bhangaar/internal/testutil"
	"go.uber.org/zap"
)

func newClient(t *testing.T, base string) *backend.Client {
	t.Helper()
	c, err := backend.New(base, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return c
}

func TestNew_RejectsBadURLs(t *testing.T) {
	for _, raw := range []string{"", "localhost:8001", "ftp://host", "http://"} {
		if _, err := backend.New(raw, nil, nil); err == nil {
			t.Errorf("New(%q): expected error", raw)
		}
	}
	c, err := backend.New("  http://localhost:8001/ ", nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BaseURL() != "http://localhost:8001" {
		t.Errorf("BaseURL: got %q", c.BaseURL())
	}
}

func TestLogin_ReturnsTokenAndUser(t *testing.T) {
	be := testutil.NewBackend(t)
	u, _ := be.SeedUser(models.RoleCollector, "Ravi", "ravi@example.com", "pw")
	c := newClient(t, be.URL())

	resp, err := c.Login(context.Background(), backend.LoginRequest{Email: "ravi@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.User.ID != u.ID || resp.User.RoleName != models.RoleCollector {
		t.Errorf("response: got %+v", resp)
	}
	req, _ := be.LastRequest(http.MethodPost, "/api/login")
	if req.Auth != "" {
		t.Errorf("login must be unauthenticated, got Authorization %q", req.Auth)
	}
}

func TestAuthedCallsCarryBearerToken(t *testing.T) {
	be := testutil.NewBackend(t)
	_, tok := be.SeedUser(models.RoleHousehold, "Asha", "asha@example.com", "pw")
	c := newClient(t, be.URL())

	if _, err := c.Pickups(context.Background(), tok); err != nil {
		t.Fatalf("Pickups: %v", err)
	}
	req, _ := be.LastRequest(http.MethodGet, "/api/pickups")
	if req.Auth != "Bearer "+tok {
		t.Errorf("Authorization: got %q", req.Auth)
	}
}

func TestPickups_EmptyListIsNonNil(t *testing.T) {
	be := testutil.NewBackend(t)
	_, tok := be.SeedUser(models.RoleHousehold, "Asha", "asha@example.com", "pw")
	c := newClient(t, be.URL())

	got, err := c.Pickups(context.Background(), tok)
	if err != nil {
		t.Fatalf("Pickups: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestAPIError_CarriesDetail(t *testing.T) {
	be := testutil.NewBackend(t)
	c := newClient(t, be.URL())

	_, err := c.Login(context.Background(), backend.LoginRequest{Email: "nobody@example.com", Password: "x"})
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Detail != "Invalid credentials" {
		t.Errorf("got %+v", apiErr)
	}
	if backend.Message(err) != "Invalid credentials" {
		t.Errorf("Message: got %q", backend.Message(err))
	}
}

func TestUnauthorizedToken(t *testing.T) {
	be := testutil.NewBackend(t)
	c := newClient(t, be.URL())

	_, err := c.UserStats(context.Background(), "bogus")
	if !backend.IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestTransportError(t *testing.T) {
	be := testutil.NewBackend(t)
	c := newClient(t, be.URL())
	be.Close()

	_, err := c.Pickups(context.Background(), "tok")
	var te *backend.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T %v", err, err)
	}
	if backend.Message(err) != backend.GenericNetworkMessage {
		t.Errorf("Message: got %q", backend.Message(err))
	}
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	_, err := c.Pickups(context.Background(), "tok")
	var te *backend.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T %v", err, err)
	}
}

func TestMessage_ValidationDetailList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","pickup_date"],"msg":"field required"},{"loc":["query","status"],"msg":"value is not a valid enumeration member"}]}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	err := c.UpdatePickupStatus(context.Background(), "tok", "p1", "nope")
	got := backend.Message(err)
	want := "pickup_date: field required; status: value is not a valid enumeration member"
	if got != want {
		t.Errorf("Message: got %q, want %q", got, want)
	}
}

func TestMessage_NoDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	err := c.AssignPickup(context.Background(), "tok", "p1")
	if got := backend.Message(err); got != "Request failed (status 502)." {
		t.Errorf("Message: got %q", got)
	}
}

func TestCreatePickup_AcceptsBothResponseShapes(t *testing.T) {
	be := testutil.NewBackend(t)
	_, tok := be.SeedUser(models.RoleHousehold, "Asha", "asha@example.com", "pw")
	c := newClient(t, be.URL())

	resp, err := c.CreatePickup(context.Background(), tok, backend.CreatePickupRequest{
		WasteType:  models.WasteRecyclable,
		PickupDate: "2025-01-01T09:00:00.000Z",
		PickupTime: "09:00",
		Location:   "Gate",
		Address:    "12 Park Road",
	})
	if err != nil {
		t.Fatalf("CreatePickup: %v", err)
	}
	if resp.CreatedID() == "" {
		t.Fatal("expected a created id")
	}
	p, ok := be.Pickup(resp.CreatedID())
	if !ok || p.Status != models.StatusPending || p.PickupTime != "09:00" {
		t.Errorf("stored pickup: got %+v", p)
	}

	if got := (backend.CreatePickupResponse{ID: "abc"}).CreatedID(); got != "abc" {
		t.Errorf("CreatedID fallback: got %q", got)
	}
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	be := testutil.NewBackend(t)
	_, tok := be.SeedUser(models.RoleAdmin, "Root", "root@example.com", "pw")
	c := newClient(t, be.URL())

	_ = c.AssignPickup(context.Background(), tok, "a/b")
	for _, r := range be.Requests() {
		if r.Method == http.MethodPut && strings.Contains(r.Path, "/assign") {
			if r.Path != "/api/pickups/a/b/assign" && !strings.Contains(r.Path, "a%2Fb") {
				t.Errorf("unexpected path %q", r.Path)
			}
			return
		}
	}
	t.Error("assign request not recorded")
}

func TestRatePickup_SendsQuery(t *testing.T) {
	be := testutil.NewBackend(t)
	_, tok := be.SeedUser(models.RoleHousehold, "Asha", "asha@example.com", "pw")
	c := newClient(t, be.URL())

	_ = c.RatePickup(context.Background(), tok, "p9", 4, "on time")
	req, ok := be.LastRequest(http.MethodPost, "/api/pickups/p9/rate")
	if !ok {
		t.Fatal("rate request not recorded")
	}
	if req.Query != "feedback=on+time&rating=4" {
		t.Errorf("query: got %q", req.Query)
	}
}

func TestHealth(t *testing.T) {
	be := testutil.NewBackend(t)
	c := newClient(t, be.URL())

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
	be.Close()
	if err := c.Health(context.Background()); err == nil {
		t.Error("expected Health to fail once the backend is down")
	}
}
