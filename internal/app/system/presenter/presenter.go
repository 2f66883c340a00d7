// Package presenter turns an application state snapshot into the screen
// model the templates render.
//
// Present is pure: it reads only its arguments, so the same state always
// renders the same screen. Role-specific parts are built through
// models.MatchRole, which makes every role branch mandatory.
package presenter

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/lifecycle"
	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// Feed sizes.
const (
	HouseholdRecent = 5
	AdminRecent     = 10
)

// Screen is everything a page needs.
type Screen struct {
	View        appstate.View
	SignedIn    bool
	UserName    string
	Role        string // wire value
	RoleLabel   string
	EcoPoints   int
	Error       string
	Success     string
	FadeAfterMS int64 // when the client should hide the messages

	Nav         []NavItem
	Placeholder bool

	Dashboard *Dashboard
	Chat      *Chat
	Users     []UserRow
}

// NavItem is one entry of the sidebar.
type NavItem struct {
	View   appstate.View
	Label  string
	Href   string
	Active bool
}

// Tile is one stat tile.
type Tile struct {
	Label string
	Value string
	Tone  string // CSS modifier
}

// QuickAction is a shortcut button on the household dashboard.
type QuickAction struct {
	Label string
	Href  string
}

// Button is a lifecycle control on a pickup card.
type Button struct {
	Action lifecycle.Action
	Label  string
	Style  string
}

// Card is one pickup as rendered.
type Card struct {
	ID          string
	WasteType   string
	WasteLabel  string
	Status      string
	StatusLabel string
	Badge       string
	When        string
	Location    string
	Address     string
	Notes       string
	Requester   string
	Collector   string
	Rating      int
	Feedback    string

	Actions []Button
	CanRate bool
	CanChat bool
}

// Dashboard is the role-specific main view. Exactly one of the feeds is
// populated per role: Recent for household and admin, Available and Mine
// for collectors.
type Dashboard struct {
	Kind         string // household | collector | admin
	Title        string
	Tiles        []Tile
	QuickActions []QuickAction
	Recent       []Card
	Available    []Card
	Mine         []Card
}

// Chat is an open pickup thread.
type Chat struct {
	PickupID string
	Pickup   *Card
	Messages []ChatLine
}

// ChatLine is one rendered message.
type ChatLine struct {
	Sender string
	Text   string
	At     string
	Own    bool
}

// UserRow is one account in the admin listing.
type UserRow struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      string
	Active    bool
	EcoPoints int
	Joined    string
}

// Present builds the screen for st at now. Dates are shown in loc
// (UTC when nil).
func Present(st appstate.State, now time.Time, loc *time.Location) Screen {
	if loc == nil {
		loc = time.UTC
	}
	sc := Screen{
		View:        st.View,
		SignedIn:    st.SignedIn(),
		Error:       st.Messages.Error(now),
		Success:     st.Messages.Success(now),
		FadeAfterMS: st.Messages.Remaining(now).Milliseconds(),
		Placeholder: st.View.Placeholder(),
	}
	role := st.Role()
	if st.Session == nil || role == nil {
		sc.View = appstate.ViewLogin
		sc.Placeholder = false
		return sc
	}

	u := st.Session.User
	sc.UserName = u.Name
	sc.Role = role.String()
	sc.RoleLabel = models.RoleLabel(role.String())
	sc.EcoPoints = u.EcoPoints
	sc.Nav = models.MatchRole[[]NavItem](role, navSwitch{active: st.View})

	switch st.View {
	case appstate.ViewDashboard:
		d := models.MatchRole[Dashboard](role, dashboardSwitch{st: st, loc: loc})
		sc.Dashboard = &d
	case appstate.ViewChat:
		sc.Chat = presentChat(st, loc)
	case appstate.ViewManageUsers:
		sc.Users = presentUsers(st.Users, loc)
	}
	return sc
}

/*─────────────────────────────────────────────────────────────────────────────*
| Navigation                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type navSwitch struct{ active appstate.View }

func (n navSwitch) items(views ...appstate.View) []NavItem {
	out := make([]NavItem, 0, len(views))
	for _, v := range views {
		out = append(out, NavItem{View: v, Label: ViewLabel(v), Href: ViewHref(v), Active: v == n.active})
	}
	return out
}

func (n navSwitch) Household() []NavItem {
	return n.items(appstate.ViewDashboard, appstate.ViewSchedule, appstate.ViewHistory, appstate.ViewProfile)
}

func (n navSwitch) Collector() []NavItem {
	return n.items(appstate.ViewDashboard, appstate.ViewPickups, appstate.ViewStats, appstate.ViewProfile)
}

func (n navSwitch) Admin() []NavItem {
	return n.items(appstate.ViewDashboard, appstate.ViewManageUsers, appstate.ViewUsers, appstate.ViewAnalytics, appstate.ViewSettings)
}

// ViewLabel is the sidebar text of a view.
func ViewLabel(v appstate.View) string {
	switch v {
	case appstate.ViewDashboard:
		return "Dashboard"
	case appstate.ViewSchedule:
		return "Schedule Pickup"
	case appstate.ViewHistory:
		return "History"
	case appstate.ViewProfile:
		return "Profile"
	case appstate.ViewPickups:
		return "Pickups"
	case appstate.ViewStats:
		return "Stats"
	case appstate.ViewUsers:
		return "Users"
	case appstate.ViewAnalytics:
		return "Analytics"
	case appstate.ViewSettings:
		return "Settings"
	case appstate.ViewManageUsers:
		return "Manage Users"
	case appstate.ViewChat:
		return "Chat"
	case appstate.ViewLogin:
		return "Sign in"
	}
	return string(v)
}

// ViewHref is the URL that navigates to v.
func ViewHref(v appstate.View) string {
	switch v {
	case appstate.ViewLogin:
		return "/login"
	case appstate.ViewManageUsers:
		return "/admin/users"
	case appstate.ViewChat:
		return "/dashboard"
	}
	return "/" + string(v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Dashboards                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type dashboardSwitch struct {
	st  appstate.State
	loc *time.Location
}

func (d dashboardSwitch) Household() Dashboard {
	s := d.st.Stats.Household()
	recent := mostRecent(d.st.Pickups, HouseholdRecent)
	cards := make([]Card, 0, len(recent))
	for _, p := range recent {
		c := card(p, d.loc)
		c.CanRate = p.Status == models.StatusCollected && !p.Rated()
		c.CanChat = true
		cards = append(cards, c)
	}
	return Dashboard{
		Kind:  models.RoleHousehold,
		Title: "My Dashboard",
		Tiles: []Tile{
			{Label: "Eco Points", Value: strconv.Itoa(s.EcoPoints), Tone: "green"},
			{Label: "Total Pickups", Value: strconv.Itoa(s.TotalPickups), Tone: "blue"},
			{Label: "Completed", Value: strconv.Itoa(s.CompletedPickups), Tone: "purple"},
			{Label: "Pending", Value: strconv.Itoa(s.PendingPickups), Tone: "yellow"},
		},
		QuickActions: []QuickAction{
			{Label: "Schedule Pickup", Href: ViewHref(appstate.ViewSchedule)},
			{Label: "View History", Href: ViewHref(appstate.ViewHistory)},
		},
		Recent: cards,
	}
}

func (d dashboardSwitch) Collector() Dashboard {
	s := d.st.Stats.Collector()
	uid := d.st.Session.User.ID

	available, mine := []Card{}, []Card{}
	for _, p := range d.st.Pickups {
		c := card(p, d.loc)
		switch {
		case p.Status == models.StatusPending:
			c.Actions = buttons(p.Status)
			available = append(available, c)
		case p.AssignedTo(uid):
			c.Actions = buttons(p.Status)
			c.CanChat = true
			mine = append(mine, c)
		}
	}
	return Dashboard{
		Kind:  models.RoleCollector,
		Title: "Collector Dashboard",
		Tiles: []Tile{
			{Label: "Available Pickups", Value: strconv.Itoa(s.PendingAssignments), Tone: "yellow"},
			{Label: "My Pickups", Value: strconv.Itoa(s.TotalPickups), Tone: "blue"},
			{Label: "Completed", Value: strconv.Itoa(s.CompletedPickups), Tone: "green"},
			{Label: "Avg Rating", Value: fmt.Sprintf("%.1f", s.AverageRating), Tone: "purple"},
		},
		Available: available,
		Mine:      mine,
	}
}

func (d dashboardSwitch) Admin() Dashboard {
	s := d.st.Stats.Admin()
	recent := mostRecent(d.st.Pickups, AdminRecent)
	cards := make([]Card, 0, len(recent))
	for _, p := range recent {
		cards = append(cards, card(p, d.loc))
	}
	return Dashboard{
		Kind:  models.RoleAdmin,
		Title: "Admin Dashboard",
		Tiles: []Tile{
			{Label: "Households", Value: strconv.Itoa(s.TotalUsers), Tone: "blue"},
			{Label: "Collectors", Value: strconv.Itoa(s.TotalCollectors), Tone: "green"},
			{Label: "Total Pickups", Value: strconv.Itoa(s.TotalPickups), Tone: "purple"},
			{Label: "Completion Rate", Value: fmt.Sprintf("%.1f%%", s.CompletionRate), Tone: "yellow"},
		},
		Recent: cards,
	}
}

// mostRecent returns up to n pickups, newest created_at first. The input
// is not reordered.
func mostRecent(pickups []models.Pickup, n int) []models.Pickup {
	recent := append([]models.Pickup(nil), pickups...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt.Time)
	})
	if len(recent) > n {
		recent = recent[:n]
	}
	return recent
}

func buttons(s models.Status) []Button {
	acts := lifecycle.Allowed(s)
	if len(acts) == 0 {
		return nil
	}
	out := make([]Button, 0, len(acts))
	for _, a := range acts {
		out = append(out, Button{Action: a, Label: a.Label(), Style: a.Style()})
	}
	return out
}

func card(p models.Pickup, loc *time.Location) Card {
	c := Card{
		ID:          p.ID,
		WasteType:   string(p.WasteType),
		WasteLabel:  p.WasteType.Label(),
		Status:      string(p.Status),
		StatusLabel: p.Status.Label(),
		Badge:       p.Status.Badge(),
		When:        when(p, loc),
		Location:    p.Location,
		Address:     p.Address,
		Notes:       p.NotesText(),
		Requester:   p.RequesterName(),
		Collector:   p.CollectorName(),
	}
	if p.Rating != nil {
		c.Rating = *p.Rating
	}
	if p.Feedback != nil {
		c.Feedback = *p.Feedback
	}
	return c
}

func when(p models.Pickup, loc *time.Location) string {
	if p.PickupDate.IsZero() {
		return p.PickupTime
	}
	date := p.PickupDate.In(loc).Format("Jan 2, 2006")
	if p.PickupTime == "" {
		return date
	}
	return date + " at " + p.PickupTime
}

/*─────────────────────────────────────────────────────────────────────────────*
| Chat and users                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func presentChat(st appstate.State, loc *time.Location) *Chat {
	ch := &Chat{PickupID: st.ChatPickupID}
	if p, ok := st.Pickup(st.ChatPickupID); ok {
		c := card(p, loc)
		ch.Pickup = &c
	}
	uid := st.Session.User.ID
	for _, m := range st.Chat {
		ch.Messages = append(ch.Messages, ChatLine{
			Sender: models.RoleLabel(m.SenderRole),
			Text:   m.Message,
			At:     m.Timestamp.In(loc).Format("Jan 2 15:04"),
			Own:    m.SenderID == uid,
		})
	}
	return ch
}

func presentUsers(users []models.User, loc *time.Location) []UserRow {
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		row := UserRow{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Phone:     u.Phone,
			Role:      models.RoleLabel(u.RoleName),
			Active:    u.Active(),
			EcoPoints: u.EcoPoints,
		}
		if u.CreatedAt != nil && !u.CreatedAt.IsZero() {
			row.Joined = u.CreatedAt.In(loc).Format("Jan 2, 2006")
		}
		rows = append(rows, row)
	}
	return rows
}
