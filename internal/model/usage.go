package model

import (
	"time"
)

// UsageRecord is a durable per-(user, section, day) consumption counter.
// Count is monotonically non-decreasing within a day and is mutated only
// through the ledger's atomic check-and-increment.
type UsageRecord struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	Section   Section   `json:"section" bson:"section"`
	Day       string    `json:"day" bson:"day"`
	Count     int       `json:"count" bson:"count"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// DayKey returns the UTC calendar-day key used by the ledger
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SectionLimit reports usage against the cap for one section
type SectionLimit struct {
	Section   Section `json:"section"`
	Used      int     `json:"used"`
	Cap       int     `json:"cap"`
	Remaining int     `json:"remaining"`
	Unlimited bool    `json:"unlimited,omitempty"`
}

// LimitsInfo is the per-section usage/cap payload returned on quota
// rejection so clients can render "X/Y used" without a second round trip.
type LimitsInfo struct {
	Day      string         `json:"day"`
	Sections []SectionLimit `json:"sections"`
}
