package controllers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/app/repository"
	"github.com/jobtrackr/jobtrackr/internal/pkg/aigen"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/database"
	"github.com/jobtrackr/jobtrackr/internal/pkg/submission"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

type applicationCreateRequest struct {
	JobID       uint   `json:"job_id"`
	ResumeID    *uint  `json:"resume_id"`
	CoverLetter string `json:"cover_letter"`
	Notes       string `json:"notes"`
}

// HandleApplicationCreate opens a draft application for one of the user's
// jobs. A user holds at most one application per job.
func HandleApplicationCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req applicationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.JobID == 0 {
		return badRequest(c, "job_id is required")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	if _, err := repos.Job.GetByIDForUser(req.JobID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "job not found")
		}
		return internalError(c, "could not load the job")
	}
	if _, err := repos.Application.GetByUserAndJob(userID, req.JobID); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "conflict",
			"message": "an application for this job already exists",
		})
	}

	app := &models.Application{
		UserID:           userID,
		JobID:            req.JobID,
		ResumeID:         req.ResumeID,
		CoverLetter:      req.CoverLetter,
		Notes:            req.Notes,
		Status:           models.ApplicationStatusDraft,
		SubmissionMethod: models.SubmissionMethodManual,
	}
	if err := repos.Application.Create(app); err != nil {
		return internalError(c, "could not create the application")
	}
	_ = repos.Application.AppendEvent(&models.ApplicationEvent{
		ApplicationID: app.ID,
		EventType:     models.EventCreated,
		EventDataJSON: `{}`,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"application": app})
}

// HandleApplicationList returns the user's applications, optionally
// filtered by status.
func HandleApplicationList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset, limit := paginationParams(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	status := c.Query("status")
	var (
		apps []models.Application
		err  error
	)
	if status != "" {
		if !models.IsValidStatus(status) {
			return badRequest(c, "unknown application status")
		}
		apps, err = repos.Application.GetByUserIDAndStatus(userID, status, offset, limit)
	} else {
		apps, err = repos.Application.GetByUserID(userID, offset, limit)
	}
	if err != nil {
		return internalError(c, "could not load applications")
	}

	total, _ := repos.Application.CountByUserID(userID)
	return c.JSON(fiber.Map{"applications": apps, "total": total, "offset": offset, "limit": limit})
}

// HandleApplicationGet returns one application with its audit trail.
func HandleApplicationGet(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	app, err := repos.Application.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "application not found")
		}
		return internalError(c, "could not load the application")
	}
	events, _ := repos.Application.GetEvents(app.ID)
	app.Events = events

	return c.JSON(fiber.Map{"application": app})
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// HandleApplicationStatusUpdate moves an application along the pipeline.
// Drafts are submitted through the submit endpoints, never through here,
// because submission is what consumes quota.
func HandleApplicationStatusUpdate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !models.IsValidStatus(req.Status) {
		return badRequest(c, "unknown application status")
	}
	if req.Status == models.ApplicationStatusSubmitted {
		return badRequest(c, "use the submit endpoint to submit a draft")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	app, err := repos.Application.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "application not found")
		}
		return internalError(c, "could not load the application")
	}
	if !app.CanTransitionTo(req.Status) {
		return apperr.Respond(c, apperr.InvalidState(
			"cannot move from "+app.Status+" to "+req.Status))
	}

	now := time.Now()
	fields := map[string]interface{}{"status": req.Status}
	switch req.Status {
	case models.ApplicationStatusInterview:
		fields["interview_date"] = &now
	case models.ApplicationStatusOffer:
		fields["offer_date"] = &now
	case models.ApplicationStatusRejected:
		fields["rejection_date"] = &now
	}
	if err := repos.Application.UpdateFields(app.ID, fields); err != nil {
		return internalError(c, "could not update the application")
	}

	eventData, _ := json.Marshal(map[string]string{
		"from": app.Status,
		"to":   req.Status,
		"note": req.Note,
	})
	_ = repos.Application.AppendEvent(&models.ApplicationEvent{
		ApplicationID: app.ID,
		EventType:     req.Status,
		EventDataJSON: string(eventData),
	})
	recordStatusMetric(repos, userID, app.ID, req.Status)

	app.Status = req.Status
	return c.JSON(fiber.Map{"application": app})
}

func recordStatusMetric(repos *repository.Repositories, userID, appID uint, status string) {
	metadata, _ := json.Marshal(map[string]interface{}{"application_id": appID, "status": status})
	_ = repos.Analytics.Record(&models.Analytics{
		UserID:       userID,
		MetricType:   models.MetricApplicationStatus,
		MetricValue:  1,
		MetadataJSON: string(metadata),
	})
	switch status {
	case models.ApplicationStatusInterview:
		_ = repos.Analytics.Record(&models.Analytics{
			UserID:       userID,
			MetricType:   models.MetricInterviewScheduled,
			MetricValue:  1,
			MetadataJSON: string(metadata),
		})
	case models.ApplicationStatusOffer:
		_ = repos.Analytics.Record(&models.Analytics{
			UserID:       userID,
			MetricType:   models.MetricOfferReceived,
			MetricValue:  1,
			MetadataJSON: string(metadata),
		})
	}
}

// HandleApplicationSubmit marks a draft as manually submitted.
func HandleApplicationSubmit(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	wf := submission.NewWorkflowFromDB(database.GetDB())
	result, err := wf.SubmitManual(c.Context(), userID, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "application": result.Application})
}

// HandleApplicationATSApply attempts an automated submission through the
// job's ATS. A manual-fallback outcome is a 200 with requiresManual set,
// not an error.
func HandleApplicationATSApply(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	wf := submission.NewWorkflowFromDB(database.GetDB())
	result, err := wf.SubmitViaATS(c.Context(), userID, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if result.RequiresManual {
		return c.JSON(fiber.Map{
			"success":        false,
			"requiresManual": true,
			"jobUrl":         result.JobURL,
			"detail":         result.Detail,
		})
	}
	return c.JSON(fiber.Map{"success": true, "application": result.Application})
}

type generateRequest struct {
	ResumeSummary string `json:"resume_summary"`
}

// HandleGenerateCoverLetter writes an AI cover letter for an application.
// Gated by the AI generation quota.
func HandleGenerateCoverLetter(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	app, err := repos.Application.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "application not found")
		}
		return internalError(c, "could not load the application")
	}
	if app.Job == nil {
		return internalError(c, "application has no job")
	}
	user, err := repos.User.GetByID(userID)
	if err != nil {
		return internalError(c, "could not load the user")
	}

	svc := aigen.NewServiceFromDB(database.GetDB())
	content, err := svc.GenerateCoverLetter(c.Context(), userID, aigen.CoverLetterInput{
		CompanyName:    app.Job.CompanyName,
		JobTitle:       app.Job.JobTitle,
		JobDescription: app.Job.Description,
		CandidateName:  user.Name,
		ResumeSummary:  req.ResumeSummary,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	generated, _ := json.Marshal(map[string]interface{}{
		"cover_letter": content,
		"generated_at": time.Now().Format(time.RFC3339),
	})
	if err := repos.Application.UpdateFields(app.ID, map[string]interface{}{
		"cover_letter":           content,
		"generated_content_json": string(generated),
	}); err != nil {
		return internalError(c, "could not store the generated content")
	}

	return c.JSON(fiber.Map{"cover_letter": content})
}

type bulletsRequest struct {
	Experience string `json:"experience"`
}

// HandleGenerateResumeBullets tailors resume bullet points to the
// application's job. Gated by the AI generation quota. When the request
// carries no experience text, the master resume's parsed data is used.
func HandleGenerateResumeBullets(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	var req bulletsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	app, err := repos.Application.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "application not found")
		}
		return internalError(c, "could not load the application")
	}
	if app.Job == nil {
		return internalError(c, "application has no job")
	}

	experience := req.Experience
	if experience == "" {
		if master, err := repos.Resume.GetMasterByUserID(userID); err == nil {
			experience = master.ParsedDataJSON
		}
	}
	if experience == "" {
		return badRequest(c, "provide experience text or upload a master resume first")
	}

	svc := aigen.NewServiceFromDB(database.GetDB())
	content, err := svc.GenerateResumeBullets(c.Context(), userID, app.Job.Description, experience)
	if err != nil {
		return apperr.Respond(c, err)
	}

	generated, _ := json.Marshal(map[string]interface{}{
		"resume_bullets": content,
		"generated_at":   time.Now().Format(time.RFC3339),
	})
	if err := repos.Application.UpdateFields(app.ID, map[string]interface{}{
		"generated_content_json": string(generated),
	}); err != nil {
		return internalError(c, "could not store the generated content")
	}

	return c.JSON(fiber.Map{"resume_bullets": content})
}

// HandleApplicationDelete removes an application and its audit trail.
func HandleApplicationDelete(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid application id")
	}

	repos := repository.GetGlobalFactory().GetRepositories()
	app, err := repos.Application.GetByIDForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "application not found")
		}
		return internalError(c, "could not load the application")
	}
	if err := repos.Application.Delete(app.ID); err != nil {
		return internalError(c, "could not delete the application")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleApplicationStats summarizes the user's pipeline.
func HandleApplicationStats(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repos := repository.GetGlobalFactory().GetRepositories()

	statuses := []string{
		models.ApplicationStatusDraft,
		models.ApplicationStatusSubmitted,
		models.ApplicationStatusViewed,
		models.ApplicationStatusInterview,
		models.ApplicationStatusOffer,
		models.ApplicationStatusRejected,
	}
	byStatus := fiber.Map{}
	for _, status := range statuses {
		count, err := repos.Application.CountByUserIDAndStatus(userID, status)
		if err != nil {
			return internalError(c, "could not compute stats")
		}
		byStatus[status] = count
	}
	total, _ := repos.Application.CountByUserID(userID)
	jobs, _ := repos.Job.CountByUserID(userID)

	submitted := byStatus[models.ApplicationStatusSubmitted].(int64) +
		byStatus[models.ApplicationStatusViewed].(int64) +
		byStatus[models.ApplicationStatusInterview].(int64) +
		byStatus[models.ApplicationStatusOffer].(int64) +
		byStatus[models.ApplicationStatusRejected].(int64)
	interviews := byStatus[models.ApplicationStatusInterview].(int64) +
		byStatus[models.ApplicationStatusOffer].(int64)
	offers := byStatus[models.ApplicationStatusOffer].(int64)

	return c.JSON(fiber.Map{
		"total_applications": total,
		"total_jobs":         jobs,
		"by_status":          byStatus,
		"interview_rate":     ratePercent(interviews, submitted),
		"offer_rate":         ratePercent(offers, submitted),
	})
}

func ratePercent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(part * 100 / whole)
}
