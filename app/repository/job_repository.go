package repository

import (
	"github.com/jobtrackr/jobtrackr/app/models"
	"gorm.io/gorm"
)

// jobRepository implements the JobRepository interface
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create creates a new job in the database
func (r *jobRepository) Create(job *models.Job) error {
	return r.db.Create(job).Error
}

// GetByID retrieves a job by its ID
func (r *jobRepository) GetByID(id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByIDForUser retrieves a job only when it belongs to the given user
func (r *jobRepository) GetByIDForUser(id, userID uint) (*models.Job, error) {
	var job models.Job
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByUserID retrieves jobs for a user with pagination
func (r *jobRepository) GetByUserID(userID uint, offset, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// GetByUserIDAndStatus retrieves a user's jobs filtered by status
func (r *jobRepository) GetByUserIDAndStatus(userID uint, status string, offset, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// Update updates an existing job
func (r *jobRepository) Update(job *models.Job) error {
	return r.db.Save(job).Error
}

// Delete removes a job
func (r *jobRepository) Delete(id uint) error {
	return r.db.Delete(&models.Job{}, id).Error
}

// CountByUserID returns the number of jobs a user tracks
func (r *jobRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Job{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Search finds a user's jobs matching the query in title or company
func (r *jobRepository) Search(userID uint, query string) ([]models.Job, error) {
	var jobs []models.Job
	like := "%" + query + "%"
	err := r.db.Where("user_id = ? AND (job_title LIKE ? OR company_name LIKE ?)", userID, like, like).
		Order("created_at DESC").
		Limit(50).
		Find(&jobs).Error
	return jobs, err
}
