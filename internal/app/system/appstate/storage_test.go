package appstate_test

import (
	"testing"

	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/domain/models"
)

func TestSessionEntriesRoundTrip(t *testing.T) {
	in := models.Session{
		Token: "tok-123",
		User:  models.User{ID: "u1", Name: "Asha", Email: "asha@example.com", RoleName: models.RoleHousehold, EcoPoints: 40},
	}
	entries, err := appstate.EncodeSession(in)
	if err != nil {
		t.Fatalf("EncodeSession: %v", err)
	}
	if entries.AccessToken != "tok-123" || entries.User == "" {
		t.Fatalf("entries: got %+v", entries)
	}

	out, ok := appstate.DecodeSession(entries)
	if !ok {
		t.Fatal("DecodeSession refused a valid record")
	}
	if out.Token != in.Token || out.User.ID != "u1" || out.User.EcoPoints != 40 {
		t.Errorf("decoded: got %+v", out)
	}
}

func TestMemoryStorage(t *testing.T) {
	s := appstate.NewMemoryStorage()
	if _, ok := s.Load(); ok {
		t.Fatal("empty storage should not load")
	}
	if err := s.Save(appstate.Entries{AccessToken: "t", User: "{}"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e, ok := s.Load(); !ok || e.AccessToken != "t" {
		t.Errorf("Load: got %+v ok=%v", e, ok)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Get(appstate.KeyAccessToken); ok {
		t.Error("expected token cleared")
	}
}

func TestResolve(t *testing.T) {
	if got := appstate.Resolve(appstate.ViewSchedule, false); got != appstate.ViewLogin {
		t.Errorf("signed out: got %q", got)
	}
	if got := appstate.Resolve(appstate.ViewLogin, true); got != appstate.ViewDashboard {
		t.Errorf("login with session: got %q", got)
	}
	if got := appstate.Resolve(appstate.ViewPickups, true); got != appstate.ViewDashboard {
		t.Errorf("pickups alias: got %q", got)
	}
	if !appstate.ViewAnalytics.Placeholder() || appstate.ViewSchedule.Placeholder() {
		t.Error("placeholder classification wrong")
	}
	if _, err := appstate.ParseView("nope"); err == nil {
		t.Error("expected unknown view rejected")
	}
}
