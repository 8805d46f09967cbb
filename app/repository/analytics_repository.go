package repository

import (
	"time"

	"github.com/jobtrackr/jobtrackr/app/models"
	"gorm.io/gorm"
)

// analyticsRepository implements the AnalyticsRepository interface
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository instance
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Record appends a metric row
func (r *analyticsRepository) Record(metric *models.Analytics) error {
	return r.db.Create(metric).Error
}

// CountByUserAndType counts a user's metric rows of one type since a time
func (r *analyticsRepository) CountByUserAndType(userID uint, metricType string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Analytics{}).
		Where("user_id = ? AND metric_type = ? AND created_at >= ?", userID, metricType, since).
		Count(&count).Error
	return count, err
}

// ListByUser returns a user's most recent metric rows
func (r *analyticsRepository) ListByUser(userID uint, limit int) ([]models.Analytics, error) {
	var rows []models.Analytics
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
