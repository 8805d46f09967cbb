package repository

import (
	"github.com/jobtrackr/jobtrackr/app/models"
	"gorm.io/gorm"
)

// resumeRepository implements the ResumeRepository interface
type resumeRepository struct {
	db *gorm.DB
}

// NewResumeRepository creates a new resume repository instance
func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

// Create creates a new resume in the database
func (r *resumeRepository) Create(resume *models.Resume) error {
	return r.db.Create(resume).Error
}

// GetByID retrieves a resume by its ID
func (r *resumeRepository) GetByID(id uint) (*models.Resume, error) {
	var resume models.Resume
	err := r.db.First(&resume, id).Error
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// GetByIDForUser retrieves a resume only when it belongs to the user
func (r *resumeRepository) GetByIDForUser(id, userID uint) (*models.Resume, error) {
	var resume models.Resume
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&resume).Error
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// GetByUserID retrieves all active resumes for a user
func (r *resumeRepository) GetByUserID(userID uint) ([]models.Resume, error) {
	var resumes []models.Resume
	err := r.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&resumes).Error
	return resumes, err
}

// GetMasterByUserID retrieves the user's master resume
func (r *resumeRepository) GetMasterByUserID(userID uint) (*models.Resume, error) {
	var resume models.Resume
	err := r.db.Where("user_id = ? AND is_master = ? AND is_active = ?", userID, true, true).
		First(&resume).Error
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// SetMaster marks one resume as master. The previous master is unset within
// the same transaction so there is never more than one.
func (r *resumeRepository) SetMaster(userID, resumeID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var resume models.Resume
		if err := tx.Where("id = ? AND user_id = ?", resumeID, userID).First(&resume).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Resume{}).
			Where("user_id = ? AND is_master = ?", userID, true).
			Update("is_master", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Resume{}).
			Where("id = ?", resumeID).
			Update("is_master", true).Error
	})
}

// Update updates an existing resume
func (r *resumeRepository) Update(resume *models.Resume) error {
	return r.db.Save(resume).Error
}

// Delete removes a resume row
func (r *resumeRepository) Delete(id uint) error {
	return r.db.Delete(&models.Resume{}, id).Error
}
