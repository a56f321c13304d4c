package domain

import "time"

// Schedule is the per-user working state: the live activity list, the last
// day the user was active (the rollover marker) and the archived day
// snapshots keyed by date.
type Schedule struct {
	UserID         string                `json:"user_id,omitempty"`
	LastActiveDate string                `json:"lastActiveDate,omitempty"`
	Activities     []Activity            `json:"atividades"`
	History        map[string][]Activity `json:"scheduleHistory,omitempty"`
	UpdatedAt      time.Time             `json:"updated_at,omitempty"`
}

// HasActivity reports whether the live list contains the given identity.
func (s *Schedule) HasActivity(id ActivityID) bool {
	if s == nil {
		return false
	}
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			return true
		}
	}
	return false
}

// Profile carries the remotely stored per-user fields the sync engine needs.
// Gamification points, settings and the like live alongside these on the
// remote document but are opaque here.
type Profile struct {
	UserID         string            `json:"user_id"`
	DisplayName    string            `json:"display_name,omitempty"`
	LastActiveDate string            `json:"lastActiveDate,omitempty"`
	Settings       map[string]string `json:"settings,omitempty"`
	CreatedAt      time.Time         `json:"created_at,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at,omitempty"`
}
