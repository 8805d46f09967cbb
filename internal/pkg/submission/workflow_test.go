package submission

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/ats"
	"github.com/jobtrackr/jobtrackr/internal/pkg/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo implements Repository in memory.
type fakeRepo struct {
	users        map[uint]*models.User
	applications map[uint]*models.Application
	jobs         map[uint]*models.Job
	events       []models.ApplicationEvent
	metrics      []models.Analytics
	resumeURL    string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        map[uint]*models.User{},
		applications: map[uint]*models.Application{},
		jobs:         map[uint]*models.Job{},
	}
}

func (r *fakeRepo) GetApplicationForUser(ctx context.Context, appID, userID uint) (*models.Application, error) {
	app, ok := r.applications[appID]
	if !ok || app.UserID != userID {
		return nil, errors.New("record not found")
	}
	cp := *app
	if job, ok := r.jobs[app.JobID]; ok {
		jobCp := *job
		cp.Job = &jobCp
	}
	return &cp, nil
}

func (r *fakeRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) UpdateApplication(ctx context.Context, appID uint, fields map[string]interface{}) error {
	app, ok := r.applications[appID]
	if !ok {
		return errors.New("record not found")
	}
	if v, ok := fields["status"].(string); ok {
		app.Status = v
	}
	if v, ok := fields["submission_method"].(string); ok {
		app.SubmissionMethod = v
	}
	if v, ok := fields["external_application_id"].(string); ok {
		app.ExternalApplicationID = v
	}
	return nil
}

func (r *fakeRepo) MarkJobApplied(ctx context.Context, jobID uint) error {
	job, ok := r.jobs[jobID]
	if !ok {
		return errors.New("record not found")
	}
	job.Status = models.JobStatusApplied
	return nil
}

func (r *fakeRepo) AppendEvent(ctx context.Context, event *models.ApplicationEvent) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeRepo) RecordMetric(ctx context.Context, metric *models.Analytics) error {
	r.metrics = append(r.metrics, *metric)
	return nil
}

func (r *fakeRepo) MasterResumeFileURL(ctx context.Context, userID uint) (string, error) {
	return r.resumeURL, nil
}

func (r *fakeRepo) eventTypes() []string {
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

// quotaRepo backs the quota ledger with the same user map.
type quotaRepo struct {
	repo *fakeRepo
}

func (q *quotaRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return q.repo.GetUser(ctx, id)
}

func (q *quotaRepo) MutateUserLocked(ctx context.Context, id uint, fn func(u *models.User) error) error {
	u, ok := q.repo.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	return fn(u)
}

// stubSubmitter returns a canned outcome or error.
type stubSubmitter struct {
	outcome     ats.Outcome
	err         error
	calls       int
	lastPayload ats.ApplicationPayload
}

func (s *stubSubmitter) Submit(ctx context.Context, payload ats.ApplicationPayload) (ats.Outcome, error) {
	s.calls++
	s.lastPayload = payload
	return s.outcome, s.err
}

func newTestWorkflow(submitter Submitter) (*Workflow, *fakeRepo) {
	repo := newFakeRepo()
	return NewWorkflow(repo, quota.NewLedger(&quotaRepo{repo: repo}), submitter), repo
}

func seedDraft(repo *fakeRepo, jobSource, jobURL string) {
	repo.users[1] = &models.User{
		ID:                 1,
		Name:               "Dana Reyes",
		Email:              "dana@example.com",
		ApplicationsUsed:   2,
		ApplicationsLimit:  5,
		AIGenerationsLimit: 10,
	}
	repo.jobs[10] = &models.Job{
		ID:        10,
		UserID:    1,
		Source:    jobSource,
		SourceURL: jobURL,
		Status:    models.JobStatusActive,
	}
	repo.applications[100] = &models.Application{
		ID:          100,
		UserID:      1,
		JobID:       10,
		Status:      models.ApplicationStatusDraft,
		CoverLetter: "Dear team,",
	}
}

func TestSubmitManualConsumesQuota(t *testing.T) {
	wf, repo := newTestWorkflow(&stubSubmitter{})
	seedDraft(repo, models.JobSourceManual, "")

	res, err := wf.SubmitManual(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.True(t, res.Submitted)
	assert.Equal(t, models.ApplicationStatusSubmitted, res.Application.Status)
	assert.Equal(t, models.SubmissionMethodManual, res.Application.SubmissionMethod)
	assert.NotNil(t, res.Application.AppliedAt)

	assert.Equal(t, 3, repo.users[1].ApplicationsUsed)
	assert.Equal(t, []string{models.EventSubmitted}, repo.eventTypes())
	require.Len(t, repo.metrics, 1)
	assert.Equal(t, models.MetricApplicationSubmitted, repo.metrics[0].MetricType)
}

func TestSubmitManualBlockedByQuota(t *testing.T) {
	wf, repo := newTestWorkflow(&stubSubmitter{})
	seedDraft(repo, models.JobSourceManual, "")
	repo.users[1].ApplicationsUsed = 5

	_, err := wf.SubmitManual(context.Background(), 1, 100)
	require.Error(t, err)
	assert.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))

	assert.Equal(t, models.ApplicationStatusDraft, repo.applications[100].Status)
	assert.Equal(t, 5, repo.users[1].ApplicationsUsed)
	assert.Empty(t, repo.events)
}

func TestSubmitManualRejectsNonDraft(t *testing.T) {
	wf, repo := newTestWorkflow(&stubSubmitter{})
	seedDraft(repo, models.JobSourceManual, "")
	repo.applications[100].Status = models.ApplicationStatusSubmitted

	_, err := wf.SubmitManual(context.Background(), 1, 100)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestSubmitManualUnknownApplication(t *testing.T) {
	wf, repo := newTestWorkflow(&stubSubmitter{})
	seedDraft(repo, models.JobSourceManual, "")

	_, err := wf.SubmitManual(context.Background(), 1, 999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Ownership: another user's id must read as not found, not forbidden.
	_, err = wf.SubmitManual(context.Background(), 2, 100)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSubmitViaATSSuccess(t *testing.T) {
	submitter := &stubSubmitter{outcome: ats.Outcome{Success: true, ExternalCandidateRef: "987654"}}
	wf, repo := newTestWorkflow(submitter)
	seedDraft(repo, models.JobSourceGreenhouse, "https://boards.greenhouse.io/acme/jobs/4567890")
	repo.resumeURL = "https://cdn.example.com/resume.pdf"

	res, err := wf.SubmitViaATS(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.True(t, res.Submitted)
	assert.False(t, res.RequiresManual)

	app := repo.applications[100]
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	assert.Equal(t, models.SubmissionMethodAPI, app.SubmissionMethod)
	assert.Equal(t, "987654", app.ExternalApplicationID)

	assert.Equal(t, models.JobStatusApplied, repo.jobs[10].Status)
	assert.Equal(t, 3, repo.users[1].ApplicationsUsed)
	assert.Equal(t, []string{models.EventATSSubmitAttempt, models.EventSubmitted}, repo.eventTypes())

	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, "Dana", submitter.lastPayload.FirstName)
	assert.Equal(t, "Reyes", submitter.lastPayload.LastName)
	assert.Equal(t, "https://cdn.example.com/resume.pdf", submitter.lastPayload.ResumeURL)

	var metricTypes []string
	for _, m := range repo.metrics {
		metricTypes = append(metricTypes, m.MetricType)
	}
	assert.Contains(t, metricTypes, models.MetricApplicationSubmitted)
	assert.Contains(t, metricTypes, models.MetricATSSuccess)
}

func TestSubmitViaATSRequiresManualKeepsDraft(t *testing.T) {
	submitter := &stubSubmitter{outcome: ats.Outcome{RequiresManual: true, ErrorDetail: "job is closed"}}
	wf, repo := newTestWorkflow(submitter)
	seedDraft(repo, models.JobSourceWorkday, "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/JR-10045")

	res, err := wf.SubmitViaATS(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.False(t, res.Submitted)
	assert.True(t, res.RequiresManual)
	assert.Equal(t, "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/JR-10045", res.JobURL)
	assert.Equal(t, "job is closed", res.Detail)

	// Soft failure: draft untouched, quota untouched, attempt audited.
	assert.Equal(t, models.ApplicationStatusDraft, repo.applications[100].Status)
	assert.Equal(t, 2, repo.users[1].ApplicationsUsed)
	assert.Equal(t, []string{models.EventATSSubmitAttempt, models.EventATSSubmitFailed}, repo.eventTypes())
	assert.Empty(t, repo.metrics)
}

func TestSubmitViaATSTransportErrorIsExternal(t *testing.T) {
	submitter := &stubSubmitter{err: errors.New("status 502")}
	wf, repo := newTestWorkflow(submitter)
	seedDraft(repo, models.JobSourceGreenhouse, "https://boards.greenhouse.io/acme/jobs/4567890")

	_, err := wf.SubmitViaATS(context.Background(), 1, 100)
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))

	assert.Equal(t, models.ApplicationStatusDraft, repo.applications[100].Status)
	assert.Equal(t, 2, repo.users[1].ApplicationsUsed)
	assert.Equal(t, []string{models.EventATSSubmitAttempt, models.EventATSSubmitFailed}, repo.eventTypes())
}

func TestSubmitViaATSRejectsManualJobBeforeNetwork(t *testing.T) {
	submitter := &stubSubmitter{}
	wf, repo := newTestWorkflow(submitter)
	seedDraft(repo, models.JobSourceManual, "")

	_, err := wf.SubmitViaATS(context.Background(), 1, 100)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.Equal(t, 0, submitter.calls)
	assert.Empty(t, repo.events)
}

func TestSubmitViaATSBlockedByQuotaBeforeNetwork(t *testing.T) {
	submitter := &stubSubmitter{outcome: ats.Outcome{Success: true}}
	wf, repo := newTestWorkflow(submitter)
	seedDraft(repo, models.JobSourceGreenhouse, "https://boards.greenhouse.io/acme/jobs/4567890")
	repo.users[1].ApplicationsUsed = 5

	_, err := wf.SubmitViaATS(context.Background(), 1, 100)
	require.Error(t, err)
	assert.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))
	assert.Equal(t, 0, submitter.calls)
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{in: "Dana Reyes", first: "Dana", last: "Reyes"},
		{in: "Dana", first: "Dana", last: ""},
		{in: "Dana von Reyes", first: "Dana", last: "von Reyes"},
		{in: "", first: "", last: ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, "name %q", tt.in)
		assert.Equal(t, tt.last, last, "name %q", tt.in)
	}
}
