package repository

import (
	"github.com/jobtrackr/jobtrackr/app/models"
	"gorm.io/gorm"
)

// applicationRepository implements the ApplicationRepository interface
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository instance
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new application in the database
func (r *applicationRepository) Create(app *models.Application) error {
	return r.db.Create(app).Error
}

// GetByID retrieves an application by its ID with its job preloaded
func (r *applicationRepository) GetByID(id uint) (*models.Application, error) {
	var app models.Application
	err := r.db.Preload("Job").First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByIDForUser retrieves an application only when it belongs to the user
func (r *applicationRepository) GetByIDForUser(id, userID uint) (*models.Application, error) {
	var app models.Application
	err := r.db.Preload("Job").
		Where("id = ? AND user_id = ?", id, userID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByUserID retrieves applications for a user with pagination
func (r *applicationRepository) GetByUserID(userID uint, offset, limit int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.Preload("Job").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&apps).Error
	return apps, err
}

// GetByUserIDAndStatus retrieves a user's applications filtered by status
func (r *applicationRepository) GetByUserIDAndStatus(userID uint, status string, offset, limit int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.Preload("Job").
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&apps).Error
	return apps, err
}

// GetByUserAndJob retrieves the application a user has for a job, if any
func (r *applicationRepository) GetByUserAndJob(userID, jobID uint) (*models.Application, error) {
	var app models.Application
	err := r.db.Where("user_id = ? AND job_id = ?", userID, jobID).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Update updates an existing application
func (r *applicationRepository) Update(app *models.Application) error {
	return r.db.Save(app).Error
}

// UpdateFields updates selected columns of an application
func (r *applicationRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Application{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes an application and its events
func (r *applicationRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ?", id).Delete(&models.ApplicationEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Application{}, id).Error
	})
}

// CountByUserID returns the number of applications a user has
func (r *applicationRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Application{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByUserIDAndStatus counts a user's applications in one status
func (r *applicationRepository) CountByUserIDAndStatus(userID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Application{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// AppendEvent appends an immutable audit event
func (r *applicationRepository) AppendEvent(event *models.ApplicationEvent) error {
	return r.db.Create(event).Error
}

// GetEvents returns an application's audit trail, oldest first
func (r *applicationRepository) GetEvents(appID uint) ([]models.ApplicationEvent, error) {
	var events []models.ApplicationEvent
	err := r.db.Where("application_id = ?", appID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
