package ats

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
)

const defaultGreenhouseAPIBaseURL = "https://harvest.greenhouse.io/v1"

// GreenhouseAdapter submits candidates through the Harvest API. The API key
// is tenant-scoped; without one every submission degrades to manual.
type GreenhouseAdapter struct {
	APIKey     string
	APIBaseURL string
	OnBehalfOf string

	HTTPClient *http.Client
}

// NewGreenhouseAdapterFromEnv builds the adapter from environment
// configuration.
func NewGreenhouseAdapterFromEnv(client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		APIKey:     strings.TrimSpace(env.GetEnv("GREENHOUSE_API_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("GREENHOUSE_API_BASE_URL", defaultGreenhouseAPIBaseURL)),
		OnBehalfOf: strings.TrimSpace(env.GetEnv("GREENHOUSE_ON_BEHALF_OF", "")),
		HTTPClient: client,
	}
}

func (a *GreenhouseAdapter) Kind() Kind { return KindGreenhouse }

type greenhouseCandidate struct {
	FirstName    string                  `json:"first_name"`
	LastName     string                  `json:"last_name"`
	EmailAddrs   []greenhouseTypedValue  `json:"email_addresses"`
	PhoneNumbers []greenhouseTypedValue  `json:"phone_numbers,omitempty"`
	Applications []greenhouseApplication `json:"applications"`
	Attachments  []greenhouseAttachment  `json:"attachments,omitempty"`
}

type greenhouseTypedValue struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type greenhouseApplication struct {
	JobID string `json:"job_id"`
}

type greenhouseAttachment struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	URL      string `json:"url"`
}

type greenhouseCandidateResponse struct {
	ID int64 `json:"id"`
}

// Submit posts the candidate to POST /candidates. A missing job id or API
// key is a manual outcome; transport and server errors surface as errors so
// the caller can distinguish retryable failures.
func (a *GreenhouseAdapter) Submit(ctx context.Context, payload ApplicationPayload) (Outcome, error) {
	if a.APIKey == "" {
		return manualOutcome("greenhouse integration is not configured"), nil
	}
	jobID := payload.ExternalRef
	if jobID == "" {
		jobID = ParseExternalRef(payload.JobURL)
	}
	if jobID == "" {
		return manualOutcome("could not determine the greenhouse job id from the posting URL"), nil
	}

	candidate := greenhouseCandidate{
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		EmailAddrs: []greenhouseTypedValue{{Value: payload.Email, Type: "personal"}},
		Applications: []greenhouseApplication{
			{JobID: jobID},
		},
	}
	if payload.Phone != "" {
		candidate.PhoneNumbers = []greenhouseTypedValue{{Value: payload.Phone, Type: "mobile"}}
	}
	if payload.ResumeURL != "" {
		candidate.Attachments = []greenhouseAttachment{{
			Filename: "resume.pdf",
			Type:     "resume",
			URL:      payload.ResumeURL,
		}}
	}

	body, err := json.Marshal(candidate)
	if err != nil {
		return Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.APIBaseURL+"/candidates", bytes.NewReader(body))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(a.APIKey+":")))
	req.Header.Set("Content-Type", "application/json")
	if a.OnBehalfOf != "" {
		req.Header.Set("On-Behalf-Of", a.OnBehalfOf)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		// Network failures degrade to the manual flow rather than
		// blocking the user behind a flaky vendor.
		return manualOutcome(fmt.Sprintf("greenhouse request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var created greenhouseCandidateResponse
		if err := json.Unmarshal(respBody, &created); err != nil {
			return Outcome{}, fmt.Errorf("greenhouse: decode candidate response: %w", err)
		}
		return Outcome{
			Success:              true,
			ExternalCandidateRef: fmt.Sprintf("%d", created.ID),
		}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		// The request will not succeed on retry with the same data.
		return manualOutcome(fmt.Sprintf("greenhouse rejected the submission (status %d)", resp.StatusCode)), nil
	default:
		return Outcome{}, fmt.Errorf("greenhouse returned status %d: %s", resp.StatusCode, truncateBody(respBody))
	}
}

func truncateBody(b []byte) string {
	const max = 300
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
