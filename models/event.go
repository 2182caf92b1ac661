package models

import "time"

// EventType declares what kind of activity fact an event carries.
type EventType string

const (
	EventDareCompleted          EventType = "dare_completed"
	EventDareSent               EventType = "dare_sent"
	EventCompetitionMonthClosed EventType = "competition_month_closed"
	EventInviteCodeShared       EventType = "invite_code_shared"
	EventInviteCodeRegenerated  EventType = "invite_code_regenerated"
	EventScreenVisited          EventType = "screen_visited"
	EventFeatureUsed            EventType = "feature_used"
)

func (t EventType) Valid() bool {
	switch t {
	case EventDareCompleted, EventDareSent, EventCompetitionMonthClosed,
		EventInviteCodeShared, EventInviteCodeRegenerated,
		EventScreenVisited, EventFeatureUsed:
		return true
	}
	return false
}

// ActivityEvent is one immutable fact coming from the dare/activity service.
// Timestamps are UTC; TzOffsetMinutes is the user's local offset at the time
// of the event. An absent offset means the event is treated as UTC; all
// calendar-day and time-of-day rules use LocalTime().
type ActivityEvent struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	UserID          string    `json:"user_id"`
	Timestamp       time.Time `json:"timestamp"`
	TzOffsetMinutes int       `json:"tz_offset_minutes,omitempty"`

	// Type-specific payload fields.
	Category  DareCategory `json:"category,omitempty"`   // dare_completed
	Points    int64        `json:"points,omitempty"`     // dare_completed
	PartnerID string       `json:"partner_id,omitempty"` // optional hint, relationship is resolved locally
	ScreenID  string       `json:"screen_id,omitempty"`  // screen_visited
	FeatureID string       `json:"feature_id,omitempty"` // feature_used
	Month     string       `json:"month,omitempty"`      // competition_month_closed, "2006-01"
}

// LocalTime shifts the event timestamp into the user's local wall clock.
func (e ActivityEvent) LocalTime() time.Time {
	return e.Timestamp.UTC().Add(time.Duration(e.TzOffsetMinutes) * time.Minute)
}

// LocalDay is the event's local calendar day, "2006-01-02".
func (e ActivityEvent) LocalDay() string {
	return e.LocalTime().Format("2006-01-02")
}

// AppliedEvent marks an event ID as already folded into the aggregates. The
// unique index makes event application idempotent under at-least-once
// delivery from the activity store.
type AppliedEvent struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	EventID        string    `gorm:"uniqueIndex;not null" json:"event_id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Type           EventType `gorm:"not null" json:"type"`
	AppliedAt      time.Time `json:"applied_at"`
}
