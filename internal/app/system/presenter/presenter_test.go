package presenter_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/lifecycle"
	"github.com/dalemusser/bhangaar/internal/app/system/presenter"
	"github.com/dalemusser/bhangaar/internal/domain/models"
)

var now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func ts(day, hour int) models.Timestamp {
	return models.Timestamp{Time: time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC)}
}

func strp(s string) *string { return &s }

func stateFor(role, uid string, pickups ...models.Pickup) appstate.State {
	return appstate.State{
		Session: &models.Session{Token: "tok", User: models.User{ID: uid, Name: "Test", RoleName: role}},
		View:    appstate.ViewDashboard,
		Pickups: pickups,
		Stats:   models.Stats{},
	}
}

func TestPresent_SignedOutIsLogin(t *testing.T) {
	sc := presenter.Present(appstate.State{View: appstate.ViewDashboard}, now, nil)
	if sc.View != appstate.ViewLogin || sc.SignedIn || sc.Dashboard != nil {
		t.Errorf("got %+v", sc)
	}
}

func TestPresent_RecentOrdersByCreatedAt(t *testing.T) {
	// The pickup booked last is scheduled earliest.
	pickups := []models.Pickup{
		{ID: "old", WasteType: models.WasteDry, PickupDate: ts(20, 9), PickupTime: "09:00", Status: models.StatusPending, UserID: "h1", CreatedAt: ts(1, 8)},
		{ID: "new", WasteType: models.WasteWet, PickupDate: ts(5, 9), PickupTime: "09:00", Status: models.StatusPending, UserID: "h1", CreatedAt: ts(2, 8)},
	}
	for _, role := range []string{models.RoleHousehold, models.RoleAdmin} {
		sc := presenter.Present(stateFor(role, "h1", pickups...), now, nil)
		if sc.Dashboard == nil || len(sc.Dashboard.Recent) != 2 {
			t.Fatalf("%s: expected two recent cards, got %+v", role, sc.Dashboard)
		}
		if got := sc.Dashboard.Recent[0].ID; got != "new" {
			t.Errorf("%s: first recent = %s, want the latest created", role, got)
		}
	}
}

func TestPresent_HouseholdRecentFive(t *testing.T) {
	var pickups []models.Pickup
	for i := 1; i <= 7; i++ {
		pickups = append(pickups, models.Pickup{
			ID:         fmt.Sprintf("p%d", i),
			WasteType:  models.WasteDry,
			PickupDate: ts(i, 9),
			PickupTime: "09:00",
			Status:     models.StatusPending,
			UserID:     "h1",
			CreatedAt:  ts(1, i),
		})
	}
	pickups[0].Status = models.StatusCollected
	st := stateFor(models.RoleHousehold, "h1", pickups...)
	st.Stats = models.Stats{models.StatEcoPoints: 35, models.StatTotalPickups: 7, models.StatCompletedPickups: 1, models.StatPendingPickups: 6}

	sc := presenter.Present(st, now, nil)
	d := sc.Dashboard
	if d == nil || d.Kind != models.RoleHousehold {
		t.Fatalf("expected household dashboard, got %+v", d)
	}
	if len(d.Recent) != presenter.HouseholdRecent {
		t.Fatalf("recent: got %d cards", len(d.Recent))
	}
	if d.Recent[0].ID != "p7" || d.Recent[4].ID != "p3" {
		t.Errorf("order: first=%s last=%s", d.Recent[0].ID, d.Recent[4].ID)
	}
	if d.Tiles[0].Value != "35" || d.Tiles[3].Value != "6" {
		t.Errorf("tiles: got %+v", d.Tiles)
	}
	if len(d.QuickActions) != 2 || d.QuickActions[0].Href != "/schedule" {
		t.Errorf("quick actions: got %+v", d.QuickActions)
	}
	for _, c := range d.Recent {
		if len(c.Actions) != 0 {
			t.Errorf("household cards must not carry lifecycle controls, got %+v", c.Actions)
		}
	}
	if d.Recent[0].When != "Jan 7, 2025 at 09:00" {
		t.Errorf("when: got %q", d.Recent[0].When)
	}
}

func TestPresent_HouseholdRateControl(t *testing.T) {
	rated := 4
	st := stateFor(models.RoleHousehold, "h1",
		models.Pickup{ID: "a", Status: models.StatusCollected, PickupDate: ts(3, 9)},
		models.Pickup{ID: "b", Status: models.StatusCollected, Rating: &rated, PickupDate: ts(2, 9)},
		models.Pickup{ID: "c", Status: models.StatusOnTheWay, PickupDate: ts(1, 9)},
	)
	d := presenter.Present(st, now, nil).Dashboard
	got := map[string]bool{}
	for _, c := range d.Recent {
		got[c.ID] = c.CanRate
	}
	if !got["a"] || got["b"] || got["c"] {
		t.Errorf("CanRate: got %v", got)
	}
}

func TestPresent_CollectorPartitions(t *testing.T) {
	me, other := "c1", "c2"
	st := stateFor(models.RoleCollector, me,
		models.Pickup{ID: "open", Status: models.StatusPending},
		models.Pickup{ID: "mine-assigned", Status: models.StatusAssigned, CollectorID: &me, Collector: &models.User{ID: me, Name: "Me"}},
		models.Pickup{ID: "mine-moving", Status: models.StatusOnTheWay, CollectorID: &me},
		models.Pickup{ID: "mine-done", Status: models.StatusCollected, CollectorID: &me},
		models.Pickup{ID: "theirs", Status: models.StatusAssigned, CollectorID: &other},
	)
	st.Stats = models.Stats{models.StatAverageRating: 4.25}

	d := presenter.Present(st, now, nil).Dashboard
	if d.Kind != models.RoleCollector {
		t.Fatalf("kind: got %q", d.Kind)
	}
	if len(d.Available) != 1 || d.Available[0].ID != "open" {
		t.Errorf("available: got %+v", d.Available)
	}
	if want := []lifecycle.Action{lifecycle.Assign}; !reflect.DeepEqual(actions(d.Available[0]), want) {
		t.Errorf("available actions: got %v", actions(d.Available[0]))
	}

	mine := map[string][]lifecycle.Action{}
	for _, c := range d.Mine {
		mine[c.ID] = actions(c)
	}
	want := map[string][]lifecycle.Action{
		"mine-assigned": {lifecycle.StartJourney},
		"mine-moving":   {lifecycle.MarkCollected, lifecycle.MarkFailed},
		"mine-done":     nil,
	}
	if !reflect.DeepEqual(mine, want) {
		t.Errorf("mine: got %v, want %v", mine, want)
	}
	if d.Tiles[3].Value != "4.2" && d.Tiles[3].Value != "4.3" {
		t.Errorf("avg rating tile: got %q", d.Tiles[3].Value)
	}
}

func TestPresent_AssignedPickupLeavesAvailable(t *testing.T) {
	me := "c1"
	before := stateFor(models.RoleCollector, me, models.Pickup{ID: "p1", Status: models.StatusPending})
	after := stateFor(models.RoleCollector, me, models.Pickup{ID: "p1", Status: models.StatusAssigned, CollectorID: &me})

	if d := presenter.Present(before, now, nil).Dashboard; len(d.Available) != 1 || len(d.Mine) != 0 {
		t.Fatalf("before assign: available=%d mine=%d", len(d.Available), len(d.Mine))
	}
	d := presenter.Present(after, now, nil).Dashboard
	if len(d.Available) != 0 || len(d.Mine) != 1 {
		t.Errorf("after assign: available=%d mine=%d", len(d.Available), len(d.Mine))
	}
}

func TestPresent_AdminRecentTenUnfiltered(t *testing.T) {
	var pickups []models.Pickup
	for i := 1; i <= 12; i++ {
		pickups = append(pickups, models.Pickup{
			ID:        fmt.Sprintf("p%02d", i),
			Status:    models.Statuses[i%len(models.Statuses)],
			UserID:    fmt.Sprintf("h%d", i),
			CreatedAt: ts(1, i),
		})
	}
	st := stateFor(models.RoleAdmin, "a1", pickups...)
	st.Stats = models.Stats{models.StatCompletionRate: 33.333}

	d := presenter.Present(st, now, nil).Dashboard
	if d.Kind != models.RoleAdmin || len(d.Recent) != presenter.AdminRecent {
		t.Fatalf("got kind=%q recent=%d", d.Kind, len(d.Recent))
	}
	if d.Recent[0].ID != "p12" {
		t.Errorf("most recent first: got %s", d.Recent[0].ID)
	}
	if d.Tiles[3].Value != "33.3%" {
		t.Errorf("completion tile: got %q", d.Tiles[3].Value)
	}
}

func TestPresent_Messages(t *testing.T) {
	st := stateFor(models.RoleAdmin, "a1")
	st.Messages.SetSuccess("Saved", now, 3*time.Second)

	sc := presenter.Present(st, now.Add(time.Second), nil)
	if sc.Success != "Saved" || sc.FadeAfterMS != 2000 {
		t.Errorf("live: got success=%q fade=%d", sc.Success, sc.FadeAfterMS)
	}
	sc = presenter.Present(st, now.Add(3*time.Second), nil)
	if sc.Success != "" || sc.FadeAfterMS != 0 {
		t.Errorf("expired: got success=%q fade=%d", sc.Success, sc.FadeAfterMS)
	}
}

func TestPresent_PlaceholderHasNoBody(t *testing.T) {
	st := stateFor(models.RoleCollector, "c1")
	st.View = appstate.ViewAnalytics
	sc := presenter.Present(st, now, nil)
	if !sc.Placeholder || sc.Dashboard != nil || sc.Chat != nil {
		t.Errorf("got %+v", sc)
	}
}

func TestPresent_NavPerRole(t *testing.T) {
	for role, first := range map[string]appstate.View{
		models.RoleHousehold: appstate.ViewSchedule,
		models.RoleCollector: appstate.ViewPickups,
		models.RoleAdmin:     appstate.ViewManageUsers,
	} {
		nav := presenter.Present(stateFor(role, "u1"), now, nil).Nav
		if len(nav) < 2 || nav[1].View != first {
			t.Errorf("%s nav: got %+v", role, nav)
		}
		if !nav[0].Active {
			t.Errorf("%s: dashboard should be active", role)
		}
	}
	for _, item := range presenter.Present(stateFor(models.RoleCollector, "u1"), now, nil).Nav {
		if item.View == appstate.ViewSchedule {
			t.Error("schedule must only be offered to households")
		}
	}
}

func TestPresent_ChatAndUsers(t *testing.T) {
	st := stateFor(models.RoleHousehold, "h1", models.Pickup{ID: "p1", Notes: strp("gate"), Status: models.StatusAssigned})
	st.View = appstate.ViewChat
	st.ChatPickupID = "p1"
	st.Chat = []models.ChatMessage{
		{ID: "m1", SenderID: "h1", SenderRole: "household", Message: "hi", Timestamp: ts(1, 10)},
		{ID: "m2", SenderID: "c1", SenderRole: "collector", Message: "on my way", Timestamp: ts(1, 11)},
	}
	sc := presenter.Present(st, now, nil)
	if sc.Chat == nil || sc.Chat.Pickup == nil || sc.Chat.Pickup.Notes != "gate" {
		t.Fatalf("chat: got %+v", sc.Chat)
	}
	if !sc.Chat.Messages[0].Own || sc.Chat.Messages[1].Own || sc.Chat.Messages[1].Sender != "Collector" {
		t.Errorf("messages: got %+v", sc.Chat.Messages)
	}

	off := false
	admin := stateFor(models.RoleAdmin, "a1")
	admin.View = appstate.ViewManageUsers
	admin.Users = []models.User{{ID: "u1", Name: "Ravi", RoleName: "collector", IsActive: &off}}
	rows := presenter.Present(admin, now, nil).Users
	if len(rows) != 1 || rows[0].Active || rows[0].Role != "Collector" {
		t.Errorf("users: got %+v", rows)
	}
}

func TestPresent_IsPure(t *testing.T) {
	me := "c1"
	st := stateFor(models.RoleCollector, me,
		models.Pickup{ID: "p1", Status: models.StatusPending},
		models.Pickup{ID: "p2", Status: models.StatusOnTheWay, CollectorID: &me},
	)
	a := presenter.Present(st, now, nil)
	b := presenter.Present(st, now, nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("same input rendered differently")
	}
}

func actions(c presenter.Card) []lifecycle.Action {
	var out []lifecycle.Action
	for _, b := range c.Actions {
		out = append(out, b.Action)
	}
	return out
}
