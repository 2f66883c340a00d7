// internal/domain/models/stats.go
package models

// Stats is the backend's role-shaped projection from GET /api/stats/user.
// The client keeps it opaque: values are stored as decoded and read through
// the typed views below, never recomputed.
type Stats map[string]float64

// Stat keys as sent by the backend.
const (
	StatEcoPoints          = "eco_points"
	StatTotalPickups       = "total_pickups"
	StatCompletedPickups   = "completed_pickups"
	StatPendingPickups     = "pending_pickups"
	StatPendingAssignments = "pending_assignments"
	StatAverageRating      = "average_rating"
	StatTotalUsers         = "total_users"
	StatTotalCollectors    = "total_collectors"
	StatCompletionRate     = "completion_rate"
)

// HouseholdStats is the household projection.
type HouseholdStats struct {
	EcoPoints        int
	TotalPickups     int
	CompletedPickups int
	PendingPickups   int
}

// CollectorStats is the collector projection.
type CollectorStats struct {
	PendingAssignments int
	TotalPickups       int
	CompletedPickups   int
	AverageRating      float64
}

// AdminStats is the admin projection.
type AdminStats struct {
	TotalUsers       int
	TotalCollectors  int
	TotalPickups     int
	CompletedPickups int
	CompletionRate   float64
}

func (s Stats) int(key string) int { return int(s[key]) }

// Household reads the household view. Missing keys read as zero.
func (s Stats) Household() HouseholdStats {
	return HouseholdStats{
		EcoPoints:        s.int(StatEcoPoints),
		TotalPickups:     s.int(StatTotalPickups),
		CompletedPickups: s.int(StatCompletedPickups),
		PendingPickups:   s.int(StatPendingPickups),
	}
}

// Collector reads the collector view.
func (s Stats) Collector() CollectorStats {
	return CollectorStats{
		PendingAssignments: s.int(StatPendingAssignments),
		TotalPickups:       s.int(StatTotalPickups),
		CompletedPickups:   s.int(StatCompletedPickups),
		AverageRating:      s[StatAverageRating],
	}
}

// Admin reads the admin view.
func (s Stats) Admin() AdminStats {
	return AdminStats{
		TotalUsers:       s.int(StatTotalUsers),
		TotalCollectors:  s.int(StatTotalCollectors),
		TotalPickups:     s.int(StatTotalPickups),
		CompletedPickups: s.int(StatCompletedPickups),
		CompletionRate:   s[StatCompletionRate],
	}
}
