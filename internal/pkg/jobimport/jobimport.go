package jobimport

import (
	"net/url"
	"strings"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/ats"
)

// DetectSource classifies a posting URL by job board. An empty or
// unrecognized URL is a manual entry.
func DetectSource(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	if u == "" {
		return models.JobSourceManual
	}
	switch {
	case strings.Contains(u, "greenhouse.io"):
		return models.JobSourceGreenhouse
	case strings.Contains(u, "lever.co"):
		return models.JobSourceLever
	case strings.Contains(u, "myworkdayjobs.com") || strings.Contains(u, "workday.com"):
		return models.JobSourceWorkday
	case strings.Contains(u, "linkedin.com"):
		return models.JobSourceLinkedIn
	case strings.Contains(u, "indeed.com"):
		return models.JobSourceIndeed
	case strings.Contains(u, "ziprecruiter.com"):
		return models.JobSourceZipRecruiter
	default:
		return models.JobSourceManual
	}
}

// Input carries the user-supplied details of a job to import. Postings are
// never scraped; whatever the user provides is what gets stored.
type Input struct {
	SourceURL    string `json:"source_url"`
	CompanyName  string `json:"company_name"`
	JobTitle     string `json:"job_title"`
	Location     string `json:"location"`
	WorkMode     string `json:"work_mode"`
	SalaryRange  string `json:"salary_range"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Benefits     string `json:"benefits"`
}

// NewJob builds a job row from user input. Source and external id are
// derived from the URL; validation failures surface as bad requests.
func NewJob(userID uint, in Input) (*models.Job, error) {
	if strings.TrimSpace(in.CompanyName) == "" {
		return nil, apperr.BadRequest("company name is required")
	}
	if strings.TrimSpace(in.JobTitle) == "" {
		return nil, apperr.BadRequest("job title is required")
	}

	sourceURL := strings.TrimSpace(in.SourceURL)
	if sourceURL != "" {
		u, err := url.Parse(sourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperr.BadRequest("source URL must be a valid http(s) URL")
		}
	}

	return &models.Job{
		UserID:       userID,
		Source:       DetectSource(sourceURL),
		SourceURL:    sourceURL,
		ExternalID:   ats.ParseExternalRef(sourceURL),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		JobTitle:     strings.TrimSpace(in.JobTitle),
		Location:     strings.TrimSpace(in.Location),
		WorkMode:     strings.TrimSpace(in.WorkMode),
		SalaryRange:  strings.TrimSpace(in.SalaryRange),
		Description:  in.Description,
		Requirements: in.Requirements,
		Benefits:     in.Benefits,
		Status:       models.JobStatusActive,
	}, nil
}
