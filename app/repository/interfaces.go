package repository

import (
	"time"

	"github.com/jobtrackr/jobtrackr/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	UpdateFields(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	Count() (int64, error)
}

// JobRepository defines the interface for job-related database operations
type JobRepository interface {
	Create(job *models.Job) error
	GetByID(id uint) (*models.Job, error)
	GetByIDForUser(id, userID uint) (*models.Job, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Job, error)
	GetByUserIDAndStatus(userID uint, status string, offset, limit int) ([]models.Job, error)
	Update(job *models.Job) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	Search(userID uint, query string) ([]models.Job, error)
}

// ApplicationRepository defines the interface for application-related
// database operations
type ApplicationRepository interface {
	Create(app *models.Application) error
	GetByID(id uint) (*models.Application, error)
	GetByIDForUser(id, userID uint) (*models.Application, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Application, error)
	GetByUserIDAndStatus(userID uint, status string, offset, limit int) ([]models.Application, error)
	GetByUserAndJob(userID, jobID uint) (*models.Application, error)
	Update(app *models.Application) error
	UpdateFields(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	CountByUserIDAndStatus(userID uint, status string) (int64, error)
	AppendEvent(event *models.ApplicationEvent) error
	GetEvents(appID uint) ([]models.ApplicationEvent, error)
}

// ResumeRepository defines the interface for resume-related database
// operations
type ResumeRepository interface {
	Create(resume *models.Resume) error
	GetByID(id uint) (*models.Resume, error)
	GetByIDForUser(id, userID uint) (*models.Resume, error)
	GetByUserID(userID uint) ([]models.Resume, error)
	GetMasterByUserID(userID uint) (*models.Resume, error)
	// SetMaster marks one resume as master and unsets all others of the
	// same user within a single transaction.
	SetMaster(userID, resumeID uint) error
	Update(resume *models.Resume) error
	Delete(id uint) error
}

// AnalyticsRepository defines the interface for metric persistence and
// aggregation
type AnalyticsRepository interface {
	Record(metric *models.Analytics) error
	CountByUserAndType(userID uint, metricType string, since time.Time) (int64, error)
	ListByUser(userID uint, limit int) ([]models.Analytics, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Job         JobRepository
	Application ApplicationRepository
	Resume      ResumeRepository
	Analytics   AnalyticsRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Job:         NewJobRepository(db),
		Application: NewApplicationRepository(db),
		Resume:      NewResumeRepository(db),
		Analytics:   NewAnalyticsRepository(db),
	}
}
