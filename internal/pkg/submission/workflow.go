package submission

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/ats"
	"github.com/jobtrackr/jobtrackr/internal/pkg/quota"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the submission workflow.
type Repository interface {
	// GetApplicationForUser loads an application owned by userID with its
	// job preloaded.
	GetApplicationForUser(ctx context.Context, appID, userID uint) (*models.Application, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateApplication(ctx context.Context, appID uint, fields map[string]interface{}) error
	MarkJobApplied(ctx context.Context, jobID uint) error
	AppendEvent(ctx context.Context, event *models.ApplicationEvent) error
	RecordMetric(ctx context.Context, metric *models.Analytics) error
	// MasterResumeFileURL returns the public URL of the user's master
	// resume, or "" when none is set.
	MasterResumeFileURL(ctx context.Context, userID uint) (string, error)
}

// Submitter is the slice of the ATS router the workflow needs.
type Submitter interface {
	Submit(ctx context.Context, payload ats.ApplicationPayload) (ats.Outcome, error)
}

// Result is the outcome of a submission request. RequiresManual means the
// application stayed in draft and the user should apply on the job board
// directly.
type Result struct {
	Application    *models.Application `json:"application"`
	Submitted      bool                `json:"submitted"`
	RequiresManual bool                `json:"requires_manual,omitempty"`
	JobURL         string              `json:"job_url,omitempty"`
	Detail         string              `json:"detail,omitempty"`
}

// Workflow drives an application from draft to submitted. Quota is checked
// up front and consumed only after the submission durably succeeded.
type Workflow struct {
	repo   Repository
	ledger *quota.Ledger
	ats    Submitter
}

// NewWorkflow creates a workflow from injected dependencies.
func NewWorkflow(repo Repository, ledger *quota.Ledger, submitter Submitter) *Workflow {
	return &Workflow{repo: repo, ledger: ledger, ats: submitter}
}

// NewWorkflowFromDB creates a workflow backed by GORM and the production
// adapter set.
func NewWorkflowFromDB(db *gorm.DB) *Workflow {
	return NewWorkflow(NewRepository(db), quota.NewLedgerFromDB(db), ats.NewRouterFromEnv())
}

func (w *Workflow) loadDraft(ctx context.Context, userID, appID uint) (*models.Application, error) {
	app, err := w.repo.GetApplicationForUser(ctx, appID, userID)
	if err != nil {
		return nil, apperr.NotFound("application not found")
	}
	if app.Status != models.ApplicationStatusDraft {
		return nil, apperr.InvalidState("only draft applications can be submitted")
	}
	return app, nil
}

// SubmitManual marks a draft as submitted by hand. No network involved.
func (w *Workflow) SubmitManual(ctx context.Context, userID, appID uint) (*Result, error) {
	app, err := w.loadDraft(ctx, userID, appID)
	if err != nil {
		return nil, err
	}

	decision, err := w.ledger.CheckCanConsume(ctx, userID, quota.ResourceApplications)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperr.QuotaExceeded(decision.Reason)
	}

	if err := w.markSubmitted(ctx, app, models.SubmissionMethodManual, ""); err != nil {
		return nil, err
	}
	if err := w.ledger.Consume(ctx, userID, quota.ResourceApplications); err != nil {
		return nil, err
	}
	w.recordSubmittedMetric(ctx, userID, app, models.SubmissionMethodManual)

	return &Result{Application: app, Submitted: true}, nil
}

// SubmitViaATS attempts an automated submission through the job's ATS.
// The attempt is audited before any network call; a RequiresManual outcome
// leaves the draft untouched and consumes no quota.
func (w *Workflow) SubmitViaATS(ctx context.Context, userID, appID uint) (*Result, error) {
	app, err := w.loadDraft(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	job := app.Job
	if job == nil {
		return nil, apperr.Internal("application has no job loaded", nil)
	}
	if !job.IsExternal() || strings.TrimSpace(job.SourceURL) == "" {
		return nil, apperr.BadRequest("this job has no external posting to submit to")
	}

	decision, err := w.ledger.CheckCanConsume(ctx, userID, quota.ResourceApplications)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperr.QuotaExceeded(decision.Reason)
	}

	user, err := w.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	resumeURL, err := w.repo.MasterResumeFileURL(ctx, userID)
	if err != nil {
		return nil, err
	}

	first, last := splitName(user.Name)
	payload := ats.ApplicationPayload{
		JobURL:      job.SourceURL,
		ExternalRef: job.ExternalID,
		FirstName:   first,
		LastName:    last,
		Email:       user.Email,
		Phone:       user.Phone,
		ResumeURL:   resumeURL,
		CoverLetter: app.CoverLetter,
	}

	w.appendEvent(ctx, app.ID, models.EventATSSubmitAttempt, map[string]interface{}{
		"job_url": job.SourceURL,
		"ats":     string(ats.KindFromURL(job.SourceURL)),
	})

	outcome, err := w.ats.Submit(ctx, payload)
	if err != nil {
		w.appendEvent(ctx, app.ID, models.EventATSSubmitFailed, map[string]interface{}{
			"error":     err.Error(),
			"retryable": true,
		})
		return nil, apperr.External("the job board could not be reached, please try again", err)
	}
	if outcome.RequiresManual {
		w.appendEvent(ctx, app.ID, models.EventATSSubmitFailed, map[string]interface{}{
			"detail":          outcome.ErrorDetail,
			"requires_manual": true,
		})
		return &Result{
			Application:    app,
			RequiresManual: true,
			JobURL:         job.SourceURL,
			Detail:         outcome.ErrorDetail,
		}, nil
	}

	if err := w.markSubmitted(ctx, app, models.SubmissionMethodAPI, outcome.ExternalCandidateRef); err != nil {
		return nil, err
	}
	if err := w.repo.MarkJobApplied(ctx, job.ID); err != nil {
		return nil, err
	}
	if err := w.ledger.Consume(ctx, userID, quota.ResourceApplications); err != nil {
		return nil, err
	}
	w.recordSubmittedMetric(ctx, userID, app, models.SubmissionMethodAPI)
	w.recordMetric(ctx, userID, models.MetricATSSuccess, map[string]interface{}{
		"application_id": app.ID,
		"ats":            string(ats.KindFromURL(job.SourceURL)),
	})

	return &Result{Application: app, Submitted: true}, nil
}

// markSubmitted flips the draft to submitted and appends the audit event.
func (w *Workflow) markSubmitted(ctx context.Context, app *models.Application, method, externalID string) error {
	now := time.Now()
	fields := map[string]interface{}{
		"status":            models.ApplicationStatusSubmitted,
		"submission_method": method,
		"applied_at":        &now,
	}
	if externalID != "" {
		fields["external_application_id"] = externalID
	}
	if err := w.repo.UpdateApplication(ctx, app.ID, fields); err != nil {
		return err
	}
	app.Status = models.ApplicationStatusSubmitted
	app.SubmissionMethod = method
	app.AppliedAt = &now
	if externalID != "" {
		app.ExternalApplicationID = externalID
	}
	w.appendEvent(ctx, app.ID, models.EventSubmitted, map[string]interface{}{
		"submission_method": method,
	})
	return nil
}

func (w *Workflow) recordSubmittedMetric(ctx context.Context, userID uint, app *models.Application, method string) {
	w.recordMetric(ctx, userID, models.MetricApplicationSubmitted, map[string]interface{}{
		"application_id":    app.ID,
		"job_id":            app.JobID,
		"submission_method": method,
	})
}

// appendEvent and recordMetric are best effort. The audit trail and metrics
// never fail a submission that already changed state.
func (w *Workflow) appendEvent(ctx context.Context, appID uint, eventType string, data map[string]interface{}) {
	raw, _ := json.Marshal(data)
	_ = w.repo.AppendEvent(ctx, &models.ApplicationEvent{
		ApplicationID: appID,
		EventType:     eventType,
		EventDataJSON: string(raw),
	})
}

func (w *Workflow) recordMetric(ctx context.Context, userID uint, metricType string, metadata map[string]interface{}) {
	raw, _ := json.Marshal(metadata)
	_ = w.repo.RecordMetric(ctx, &models.Analytics{
		UserID:       userID,
		MetricType:   metricType,
		MetricValue:  1,
		MetadataJSON: string(raw),
	})
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
