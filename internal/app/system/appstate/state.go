// internal/app/system/appstate/state.go
package appstate

import (
	"github.com/dalemusser/bhangaar/internal/app/system/flash"
	"github.com/dalemusser/bhangaar/internal/domain/models"
)

// State is everything one browser session shows. Controllers hand out
// copies; mutate it only through Controller methods.
type State struct {
	Session *models.Session
	View    View

	Pickups []models.Pickup
	Stats   models.Stats

	Messages flash.Messages

	// Chat thread currently open, if any.
	ChatPickupID string
	Chat         []models.ChatMessage

	// Account listing for the admin user-management view.
	Users []models.User
}

// SignedIn reports whether a session is held.
func (s State) SignedIn() bool { return s.Session != nil }

// Role returns the session's role. Only valid when SignedIn.
func (s State) Role() models.Role {
	if s.Session == nil {
		return nil
	}
	r, _ := s.Session.User.Role()
	return r
}

// Pickup finds a pickup in the current snapshot.
func (s State) Pickup(id string) (models.Pickup, bool) {
	for _, p := range s.Pickups {
		if p.ID == id {
			return p, true
		}
	}
	return models.Pickup{}, false
}

func (s State) clone() State {
	out := s
	if s.Session != nil {
		sess := *s.Session
		out.Session = &sess
	}
	if s.Pickups != nil {
		out.Pickups = append([]models.Pickup(nil), s.Pickups...)
	}
	if s.Stats != nil {
		out.Stats = make(models.Stats, len(s.Stats))
		for k, v := range s.Stats {
			out.Stats[k] = v
		}
	}
	if s.Chat != nil {
		out.Chat = append([]models.ChatMessage(nil), s.Chat...)
	}
	if s.Users != nil {
		out.Users = append([]models.User(nil), s.Users...)
	}
	return out
}
