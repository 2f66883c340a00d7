package appstate_test

import (
	"testing"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"go.uber.org/zap"
)

func TestRegistry_GetCreatesOnce(t *testing.T) {
	built := 0
	reg := appstate.NewRegistry(func() *appstate.Controller {
		built++
		return appstate.NewController(nil, appstate.Config{}, zap.NewNop())
	})

	a, created := reg.Get("sid-1")
	if !created {
		t.Error("expected first Get to create")
	}
	b, created := reg.Get("sid-1")
	if created || a != b {
		t.Error("expected second Get to return the same controller")
	}
	if built != 1 || reg.Len() != 1 {
		t.Errorf("built=%d len=%d, want 1/1", built, reg.Len())
	}

	reg.Remove("sid-1")
	if reg.Len() != 0 {
		t.Errorf("len=%d after Remove, want 0", reg.Len())
	}
	if c, created := reg.Get("sid-1"); !created || c == a {
		t.Error("expected a fresh controller after Remove")
	}
}

func TestRegistry_EvictIdle(t *testing.T) {
	clock := newClock()
	reg := appstate.NewRegistry(func() *appstate.Controller {
		return appstate.NewController(nil, appstate.Config{Now: clock.Now}, zap.NewNop())
	})

	idle, _ := reg.Get("idle")
	busy, _ := reg.Get("busy")

	clock.Advance(20 * time.Minute)
	busy.Touch()
	clock.Advance(15 * time.Minute)

	if n := reg.EvictIdle(clock.Now(), 30*time.Minute); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if reg.Len() != 1 {
		t.Fatalf("len=%d after eviction, want 1", reg.Len())
	}
	if c, created := reg.Get("busy"); created || c != busy {
		t.Error("busy controller should remain")
	}
	if c, created := reg.Get("idle"); !created || c == idle {
		t.Error("idle controller should be gone")
	}
}
