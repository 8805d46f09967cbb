package models

import "time"

// Analytics metric types.
const (
	MetricApplicationSubmitted = "application_submitted"
	MetricApplicationStatus    = "application_status_changed"
	MetricInterviewScheduled   = "interview_scheduled"
	MetricOfferReceived        = "offer_received"
	MetricAIGeneration         = "ai_generation"
	MetricATSSuccess           = "ats_application_success"
)

// Analytics is an append-only metric row.
type Analytics struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	MetricType   string    `gorm:"type:varchar(50);not null;index" json:"metric_type"`
	MetricValue  int64     `gorm:"not null;default:0" json:"metric_value"`
	MetadataJSON string    `gorm:"type:longtext" json:"metadata_json"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
