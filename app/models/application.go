package models

import "time"

// Application pipeline statuses. The pipeline is strictly forward:
// draft -> submitted -> viewed -> interview -> offer | rejected.
const (
	ApplicationStatusDraft     = "draft"
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusViewed    = "viewed"
	ApplicationStatusInterview = "interview"
	ApplicationStatusOffer     = "offer"
	ApplicationStatusRejected  = "rejected"
)

const (
	SubmissionMethodManual = "manual"
	SubmissionMethodAPI    = "api"
)

// Application belongs to exactly one (user, job) pair.
type Application struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"user_id"`
	JobID                 uint       `gorm:"not null;index" json:"job_id"`
	ResumeID              *uint      `gorm:"default:null" json:"resume_id,omitempty"`
	CoverLetter           string     `gorm:"type:longtext" json:"cover_letter"`
	GeneratedContentJSON  string     `gorm:"type:longtext" json:"generated_content_json,omitempty"`
	Status                string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	SubmissionMethod      string     `gorm:"type:varchar(20);not null;default:'manual'" json:"submission_method"`
	ExternalApplicationID string     `gorm:"type:varchar(191);default:''" json:"external_application_id,omitempty"`
	Notes                 string     `gorm:"type:text" json:"notes,omitempty"`
	AppliedAt             *time.Time `gorm:"type:timestamp;default:null" json:"applied_at,omitempty"`
	InterviewDate         *time.Time `gorm:"type:timestamp;default:null" json:"interview_date,omitempty"`
	OfferDate             *time.Time `gorm:"type:timestamp;default:null" json:"offer_date,omitempty"`
	RejectionDate         *time.Time `gorm:"type:timestamp;default:null" json:"rejection_date,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Job    *Job               `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Events []ApplicationEvent `gorm:"foreignKey:ApplicationID" json:"events,omitempty"`
}

var statusOrder = map[string]int{
	ApplicationStatusDraft:     0,
	ApplicationStatusSubmitted: 1,
	ApplicationStatusViewed:    2,
	ApplicationStatusInterview: 3,
	ApplicationStatusOffer:     4,
	ApplicationStatusRejected:  4,
}

// IsValidStatus reports whether s is a known pipeline status.
func IsValidStatus(s string) bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo reports whether the pipeline allows moving from the
// current status to next. Transitions only move forward, one step at a
// time, except that rejected may follow any post-draft status.
func (a *Application) CanTransitionTo(next string) bool {
	cur, ok := statusOrder[a.Status]
	if !ok {
		return false
	}
	nxt, ok := statusOrder[next]
	if !ok {
		return false
	}
	if next == ApplicationStatusRejected {
		return a.Status != ApplicationStatusRejected && a.Status != ApplicationStatusOffer && cur >= statusOrder[ApplicationStatusSubmitted]
	}
	return nxt == cur+1
}
