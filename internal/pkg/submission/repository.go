package submission

import (
	"context"
	"errors"

	"github.com/jobtrackr/jobtrackr/app/models"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a submission repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetApplicationForUser(ctx context.Context, appID, userID uint) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("Job").
		Where("id = ? AND user_id = ?", appID, userID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *gormRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) UpdateApplication(ctx context.Context, appID uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", appID).
		Updates(fields).Error
}

func (r *gormRepository) MarkJobApplied(ctx context.Context, jobID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", jobID).
		Update("status", models.JobStatusApplied).Error
}

func (r *gormRepository) AppendEvent(ctx context.Context, event *models.ApplicationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gormRepository) RecordMetric(ctx context.Context, metric *models.Analytics) error {
	return r.db.WithContext(ctx).Create(metric).Error
}

func (r *gormRepository) MasterResumeFileURL(ctx context.Context, userID uint) (string, error) {
	var resume models.Resume
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_master = ? AND is_active = ?", userID, true, true).
		First(&resume).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return resume.FileURL, nil
}
