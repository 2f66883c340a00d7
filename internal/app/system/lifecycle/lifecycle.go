// Package lifecycle holds the table of pickup transitions the client may
// offer for each observed status.
//
// The backend owns the state machine. This table only decides which
// controls are rendered; every control the presenter builds is derived
// from Allowed so all roles and views agree.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// Action is a transition command a user can issue against a pickup.
type Action string

const (
	Assign        Action = "assign"
	StartJourney  Action = "start_journey"
	MarkCollected Action = "mark_collected"
	MarkFailed    Action = "mark_failed"
)

// transitions maps each observed status to the actions offered from it.
// Statuses absent from the map (collected, failed) offer nothing.
var transitions = map[models.Status][]Action{
	models.StatusPending:  {Assign},
	models.StatusAssigned: {StartJourney},
	models.StatusOnTheWay: {MarkCollected, MarkFailed},
}

// Allowed returns the actions offered for a pickup in status s.
// The returned slice is a copy.
func Allowed(s models.Status) []Action {
	acts := transitions[s]
	if len(acts) == 0 {
		return nil
	}
	out := make([]Action, len(acts))
	copy(out, acts)
	return out
}

// ParseAction validates a form value.
func ParseAction(v string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(v)))
	switch a {
	case Assign, StartJourney, MarkCollected, MarkFailed:
		return a, nil
	}
	return "", fmt.Errorf("unknown pickup action %q", v)
}

// Target is the status the backend is asked to move the pickup to.
// Assign has no target status: it goes through the assignment endpoint.
func (a Action) Target() (models.Status, bool) {
	switch a {
	case StartJourney:
		return models.StatusOnTheWay, true
	case MarkCollected:
		return models.StatusCollected, true
	case MarkFailed:
		return models.StatusFailed, true
	}
	return "", false
}

// Label is the button text.
func (a Action) Label() string {
	switch a {
	case Assign:
		return "Accept Pickup"
	case StartJourney:
		return "Start Journey"
	case MarkCollected:
		return "Mark Collected"
	case MarkFailed:
		return "Mark Failed"
	}
	return string(a)
}

// Style is the button CSS modifier.
func (a Action) Style() string {
	switch a {
	case Assign:
		return "btn-green"
	case StartJourney:
		return "btn-blue"
	case MarkCollected:
		return "btn-green"
	case MarkFailed:
		return "btn-red"
	}
	return "btn-gray"
}
