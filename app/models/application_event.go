package models

import "time"

// Application event types. Events form an append-only audit trail and are
// never mutated or deleted.
const (
	EventCreated          = "created"
	EventSubmitted        = "submitted"
	EventViewed           = "viewed"
	EventInterview        = "interview"
	EventOffer            = "offer"
	EventRejected         = "rejected"
	EventATSSubmitAttempt = "ats_submit_attempt"
	EventATSSubmitFailed  = "ats_submit_failed"
)

// ApplicationEvent is one immutable audit entry for an application.
type ApplicationEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	EventType     string    `gorm:"type:varchar(50);not null;index" json:"event_type"`
	EventDataJSON string    `gorm:"type:longtext" json:"event_data_json"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
