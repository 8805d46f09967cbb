package models

import "time"

// Resume is an uploaded resume file stored in the object store. ParsedDataJSON
// holds the AI-extracted structured fields as an opaque blob.
type Resume struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Name           string    `gorm:"type:varchar(200);not null" json:"name"`
	FileKey        string    `gorm:"type:varchar(500);not null" json:"file_key"`
	FileURL        string    `gorm:"type:varchar(500);default:''" json:"file_url"`
	ContentType    string    `gorm:"type:varchar(100);default:'application/pdf'" json:"content_type"`
	SizeBytes      int64     `gorm:"default:0" json:"size_bytes"`
	ParsedDataJSON string    `gorm:"type:longtext" json:"parsed_data_json,omitempty"`
	IsMaster       bool      `gorm:"default:false;index" json:"is_master"`
	IsActive       bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
