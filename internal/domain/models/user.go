// internal/domain/models/user.go
package models

// User is the identity record the backend returns on login/registration and
// embeds in pickups. The client never edits it; it is persisted verbatim
// (JSON) in durable client storage next to the bearer token.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	RoleName  string     `json:"role"`                 // household | collector | admin
	EcoPoints int        `json:"eco_points,omitempty"` // backend-computed, opaque
	IsActive  *bool      `json:"is_active,omitempty"`  // only present on admin listings
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// Role parses RoleName. An unknown role yields an error; the session holder
// refuses such identities.
func (u User) Role() (Role, error) {
	return ParseRole(u.RoleName)
}

// Active reports whether the account is enabled. Records without the flag
// are treated as active, matching the backend default.
func (u User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// Session is the authenticated identity held by the client.
type Session struct {
	Token string // opaque bearer credential
	User  User
}

// Valid reports whether the session carries a token and a user with a known role.
func (s Session) Valid() bool {
	if s.Token == "" || s.User.ID == "" {
		return false
	}
	_, err := s.User.Role()
	return err == nil
}
