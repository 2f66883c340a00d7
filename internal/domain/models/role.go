// internal/domain/models/role.go
package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles the backend issues.
//
// The set is sealed: only Household, Collector and Admin implement it.
// Code that must treat every role differently goes through MatchRole so a
// new role becomes a compile error at each call site instead of a silent
// fall-through.
type Role interface {
	// String returns the wire value ("household", "collector", "admin").
	String() string
	role()
}

// Household requests pickups and earns eco points.
type Household struct{}

// Collector accepts and fulfils pickups.
type Collector struct{}

// Admin sees global activity and manages accounts.
type Admin struct{}

func (Household) String() string { return "household" }
func (Collector) String() string { return "collector" }
func (Admin) String() string     { return "admin" }

func (Household) role() {}
func (Collector) role() {}
func (Admin) role()     {}

// Wire values for the three roles.
const (
	RoleHousehold = "household"
	RoleCollector = "collector"
	RoleAdmin     = "admin"
)

// Roles lists every role in display order (registration form, admin tables).
var Roles = []Role{Household{}, Collector{}, Admin{}}

// ParseRole maps a wire value onto the tagged union.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case RoleHousehold:
		return Household{}, nil
	case RoleCollector:
		return Collector{}, nil
	case RoleAdmin:
		return Admin{}, nil
	}
	return nil, fmt.Errorf("unknown role %q", s)
}

// RoleSwitch has one method per role. Implementations provide the value
// produced for each branch of a role dispatch.
type RoleSwitch[T any] interface {
	Household() T
	Collector() T
	Admin() T
}

// MatchRole dispatches r onto the matching RoleSwitch method.
// It panics on a nil role; callers resolve the role before dispatching.
func MatchRole[T any](r Role, sw RoleSwitch[T]) T {
	switch r.(type) {
	case Household:
		return sw.Household()
	case Collector:
		return sw.Collector()
	case Admin:
		return sw.Admin()
	}
	panic(fmt.Sprintf("models: unmatched role %T", r))
}

// RoleLabel returns the human label for a role wire value.
func RoleLabel(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case RoleHousehold:
		return "Household"
	case RoleCollector:
		return "Collector"
	case RoleAdmin:
		return "Admin"
	}
	return s
}
