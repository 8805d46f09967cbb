package models

import "time"

// Job sources. Everything except "manual" is an external job board.
const (
	JobSourceManual       = "manual"
	JobSourceGreenhouse   = "greenhouse"
	JobSourceLever        = "lever"
	JobSourceWorkday      = "workday"
	JobSourceLinkedIn     = "linkedin"
	JobSourceIndeed       = "indeed"
	JobSourceZipRecruiter = "ziprecruiter"
)

const (
	JobStatusActive  = "active"
	JobStatusClosed  = "closed"
	JobStatusApplied = "applied"
)

// Job is a posting owned by the importing user.
type Job struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	Source       string     `gorm:"type:varchar(30);not null;default:'manual';index" json:"source"`
	SourceURL    string     `gorm:"type:varchar(500);default:''" json:"source_url"`
	ExternalID   string     `gorm:"type:varchar(191);default:''" json:"external_id"`
	CompanyName  string     `gorm:"type:varchar(200);not null" json:"company_name"`
	JobTitle     string     `gorm:"type:varchar(200);not null" json:"job_title"`
	Location     string     `gorm:"type:varchar(200);default:''" json:"location"`
	WorkMode     string     `gorm:"type:varchar(50);default:''" json:"work_mode"`
	SalaryRange  string     `gorm:"type:varchar(100);default:''" json:"salary_range"`
	Description  string     `gorm:"type:longtext" json:"description"`
	Requirements string     `gorm:"type:longtext" json:"requirements"`
	Benefits     string     `gorm:"type:longtext" json:"benefits"`
	AIMatchScore *int       `gorm:"column:ai_match_score;default:null" json:"ai_match_score,omitempty"`
	PostedDate   *time.Time `gorm:"type:timestamp;default:null" json:"posted_date,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExternal reports whether the job came from an external board.
func (j *Job) IsExternal() bool {
	return j.Source != "" && j.Source != JobSourceManual
}
