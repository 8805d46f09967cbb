package jobimport

import (
	"testing"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://boards.greenhouse.io/acme/jobs/4567890", want: models.JobSourceGreenhouse},
		{url: "https://jobs.lever.co/acme/0f4f-1234", want: models.JobSourceLever},
		{url: "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/JR-10045", want: models.JobSourceWorkday},
		{url: "https://www.linkedin.com/jobs/view/123456", want: models.JobSourceLinkedIn},
		{url: "https://www.indeed.com/viewjob?jk=abc123", want: models.JobSourceIndeed},
		{url: "https://www.ziprecruiter.com/jobs/acme-123", want: models.JobSourceZipRecruiter},
		{url: "https://careers.acme.com/openings/42", want: models.JobSourceManual},
		{url: "", want: models.JobSourceManual},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectSource(tt.url), "url %q", tt.url)
	}
}

func TestNewJobDerivesSourceAndExternalID(t *testing.T) {
	job, err := NewJob(7, Input{
		SourceURL:   "https://boards.greenhouse.io/acme/jobs/4567890",
		CompanyName: "Acme",
		JobTitle:    "Senior Engineer",
		Location:    "Berlin",
	})
	require.NoError(t, err)

	assert.Equal(t, uint(7), job.UserID)
	assert.Equal(t, models.JobSourceGreenhouse, job.Source)
	assert.Equal(t, "4567890", job.ExternalID)
	assert.Equal(t, models.JobStatusActive, job.Status)
	assert.True(t, job.IsExternal())
}

func TestNewJobManualEntry(t *testing.T) {
	job, err := NewJob(7, Input{
		CompanyName: "Acme",
		JobTitle:    "Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobSourceManual, job.Source)
	assert.Empty(t, job.ExternalID)
	assert.False(t, job.IsExternal())
}

func TestNewJobValidation(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{name: "missing company", in: Input{JobTitle: "Engineer"}},
		{name: "missing title", in: Input{CompanyName: "Acme"}},
		{name: "bad url", in: Input{CompanyName: "Acme", JobTitle: "Engineer", SourceURL: "not a url"}},
		{name: "non-http scheme", in: Input{CompanyName: "Acme", JobTitle: "Engineer", SourceURL: "ftp://example.com/job"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJob(7, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		})
	}
}
