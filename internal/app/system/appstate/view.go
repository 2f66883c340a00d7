// internal/app/system/appstate/view.go
package appstate

import (
	"fmt"
	"strings"
)

// View names one screen. Exactly one view is active per controller.
type View string

const (
	ViewLogin       View = "login"
	ViewDashboard   View = "dashboard"
	ViewSchedule    View = "schedule"
	ViewHistory     View = "history"
	ViewProfile     View = "profile"
	ViewPickups     View = "pickups"
	ViewStats       View = "stats"
	ViewUsers       View = "users"
	ViewAnalytics   View = "analytics"
	ViewSettings    View = "settings"
	ViewChat        View = "chat"
	ViewManageUsers View = "manage_users"
)

// Views lists every navigable view.
var Views = []View{
	ViewLogin, ViewDashboard, ViewSchedule, ViewHistory, ViewProfile, ViewPickups,
	ViewStats, ViewUsers, ViewAnalytics, ViewSettings, ViewChat, ViewManageUsers,
}

// ParseView validates a view name from a URL or form.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Views {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Placeholder reports whether the view has no rendering of its own and
// shows an empty page shell.
func (v View) Placeholder() bool {
	switch v {
	case ViewHistory, ViewProfile, ViewStats, ViewUsers, ViewAnalytics, ViewSettings:
		return true
	}
	return false
}

// Resolve maps a requested view onto the view that actually becomes active.
// Without a session everything resolves to login; with one, login resolves
// to the dashboard and pickups is an alias of it.
func Resolve(v View, signedIn bool) View {
	if !signedIn {
		return ViewLogin
	}
	switch v {
	case ViewLogin, ViewPickups, "":
		return ViewDashboard
	}
	return v
}
