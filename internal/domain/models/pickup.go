// internal/domain/models/pickup.go
package models

import (
	"fmt"
	"strings"
)

// WasteType classifies the waste in a pickup request.
type WasteType string

const (
	WasteDry        WasteType = "dry"
	WasteWet        WasteType = "wet"
	WasteElectronic WasteType = "electronic"
	WasteMedical    WasteType = "medical"
	WasteRecyclable WasteType = "recyclable"
)

// WasteTypes lists every waste type in form order.
var WasteTypes = []WasteType{WasteDry, WasteWet, WasteElectronic, WasteMedical, WasteRecyclable}

// ParseWasteType validates a form or wire value.
func ParseWasteType(s string) (WasteType, error) {
	wt := WasteType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range WasteTypes {
		if wt == known {
			return wt, nil
		}
	}
	return "", fmt.Errorf("unknown waste type %q", s)
}

// Label returns the display name ("Dry Waste", "E-Waste", ...).
func (w WasteType) Label() string {
	switch w {
	case WasteDry:
		return "Dry Waste"
	case WasteWet:
		return "Wet Waste"
	case WasteElectronic:
		return "E-Waste"
	case WasteMedical:
		return "Medical Waste"
	case WasteRecyclable:
		return "Recyclable"
	}
	return string(w)
}

// Status is a pickup's lifecycle state. The backend owns transitions; the
// client only observes them.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusOnTheWay  Status = "on_the_way"
	StatusCollected Status = "collected"
	StatusFailed    Status = "failed"
)

// Statuses lists every lifecycle state in lifecycle order.
var Statuses = []Status{StatusPending, StatusAssigned, StatusOnTheWay, StatusCollected, StatusFailed}

// ParseStatus validates a wire value.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown pickup status %q", s)
}

// Label returns the badge text.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAssigned:
		return "Assigned"
	case StatusOnTheWay:
		return "On the way"
	case StatusCollected:
		return "Collected"
	case StatusFailed:
		return "Failed"
	}
	return string(s)
}

// Badge returns the CSS modifier used for the status badge.
func (s Status) Badge() string {
	switch s {
	case StatusPending:
		return "badge-yellow"
	case StatusAssigned:
		return "badge-blue"
	case StatusOnTheWay:
		return "badge-purple"
	case StatusCollected:
		return "badge-green"
	case StatusFailed:
		return "badge-red"
	}
	return "badge-gray"
}

// Terminal reports whether no further transition exists.
func (s Status) Terminal() bool {
	return s == StatusCollected || s == StatusFailed
}

// Pickup is the client's read-through snapshot of one backend pickup record.
//
// CollectorID and Collector stay nil while Status is pending; the backend
// sets them once on assignment and never clears them.
type Pickup struct {
	ID          string    `json:"id"`
	WasteType   WasteType `json:"waste_type"`
	PickupDate  Timestamp `json:"pickup_date"`
	PickupTime  string    `json:"pickup_time"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	Notes       *string   `json:"notes,omitempty"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	Status      Status    `json:"status"`
	UserID      string    `json:"user_id"`
	User        *User     `json:"user,omitempty"`
	CollectorID *string   `json:"collector_id,omitempty"`
	Collector   *User     `json:"collector,omitempty"`
	Rating      *int      `json:"rating,omitempty"`
	Feedback    *string   `json:"feedback,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// AssignedTo reports whether the pickup's collector is userID.
func (p Pickup) AssignedTo(userID string) bool {
	return p.CollectorID != nil && userID != "" && *p.CollectorID == userID
}

// Rated reports whether the requester has already rated the pickup.
func (p Pickup) Rated() bool {
	return p.Rating != nil
}

// NotesText returns the notes or "".
func (p Pickup) NotesText() string {
	if p.Notes == nil {
		return ""
	}
	return *p.Notes
}

// CollectorName returns the assigned collector's name, or "" when unassigned
// or when the backend omitted the embedded record.
func (p Pickup) CollectorName() string {
	if p.Collector == nil {
		return ""
	}
	return p.Collector.Name
}

// RequesterName returns the requesting household's name when embedded.
func (p Pickup) RequesterName() string {
	if p.User == nil {
		return ""
	}
	return p.User.Name
}
