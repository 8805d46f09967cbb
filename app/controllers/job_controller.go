package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/app/repository"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/jobimport"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

// HandleJobCreate imports a job from user input. Source and external id are
// derived from the posting URL; nothing is scraped.
func HandleJobCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var in jobimport.Input
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	job, err := jobimport.NewJob(userID, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := repository.GetGlobalFactory().GetJobRepository().Create(job); err != nil {
		return internalError(c, "could not save the job")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"job": job})
}

// HandleJobList returns the user's jobs, optionally filtered by status.
func HandleJobList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset, limit := paginationParams(c)
	repo := repository.GetGlobalFactory().GetJobRepository()

	status := strings.TrimSpace(c.Query("status"))
	var (
		jobs []models.Job
		err  error
	)
	if status != "" {
		jobs, err = repo.GetByUserIDAndStatus(userID, status, offset, limit)
	} else {
		jobs, err = repo.GetByUserID(userID, offset, limit)
	}
	if err != nil {
		return internalError(c, "could not load jobs")
	}

	total, _ := repo.CountByUserID(userID)
	return c.JSON(fiber.Map{"jobs": jobs, "total": total, "offset": offset, "limit": limit})
}

// HandleJobGet returns one of the user's jobs.
func HandleJobGet(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid job id")
	}

	job, err := repository.GetGlobalFactory().GetJobRepository().GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "job not found")
		}
		return internalError(c, "could not load the job")
	}
	return c.JSON(fiber.Map{"job": job})
}

type jobUpdateRequest struct {
	CompanyName  *string `json:"company_name"`
	JobTitle     *string `json:"job_title"`
	Location     *string `json:"location"`
	WorkMode     *string `json:"work_mode"`
	SalaryRange  *string `json:"salary_range"`
	Description  *string `json:"description"`
	Requirements *string `json:"requirements"`
	Benefits     *string `json:"benefits"`
	Status       *string `json:"status"`
}

// HandleJobUpdate partially updates a job. Source fields are immutable.
func HandleJobUpdate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid job id")
	}

	var req jobUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetJobRepository()
	job, err := repo.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "job not found")
		}
		return internalError(c, "could not load the job")
	}

	if req.CompanyName != nil {
		if strings.TrimSpace(*req.CompanyName) == "" {
			return badRequest(c, "company name cannot be empty")
		}
		job.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.JobTitle != nil {
		if strings.TrimSpace(*req.JobTitle) == "" {
			return badRequest(c, "job title cannot be empty")
		}
		job.JobTitle = strings.TrimSpace(*req.JobTitle)
	}
	if req.Location != nil {
		job.Location = strings.TrimSpace(*req.Location)
	}
	if req.WorkMode != nil {
		job.WorkMode = strings.TrimSpace(*req.WorkMode)
	}
	if req.SalaryRange != nil {
		job.SalaryRange = strings.TrimSpace(*req.SalaryRange)
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Requirements != nil {
		job.Requirements = *req.Requirements
	}
	if req.Benefits != nil {
		job.Benefits = *req.Benefits
	}
	if req.Status != nil {
		switch *req.Status {
		case models.JobStatusActive, models.JobStatusClosed, models.JobStatusApplied:
			job.Status = *req.Status
		default:
			return badRequest(c, "unknown job status")
		}
	}

	if err := repo.Update(job); err != nil {
		return internalError(c, "could not save the job")
	}
	return c.JSON(fiber.Map{"job": job})
}

// HandleJobDelete removes one of the user's jobs.
func HandleJobDelete(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid job id")
	}

	repo := repository.GetGlobalFactory().GetJobRepository()
	if _, err := repo.GetByIDForUser(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "job not found")
		}
		return internalError(c, "could not load the job")
	}
	if err := repo.Delete(id); err != nil {
		return internalError(c, "could not delete the job")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleJobSearch finds the user's jobs by title or company.
func HandleJobSearch(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return badRequest(c, "query parameter q is required")
	}

	jobs, err := repository.GetGlobalFactory().GetJobRepository().Search(userID, query)
	if err != nil {
		return internalError(c, "search failed")
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}
