package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
)

const defaultLeverAPIBaseURL = "https://api.lever.co/v0/postings"

// LeverAdapter submits applications through the public postings API, which
// takes a form-encoded POST against the posting id.
type LeverAdapter struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewLeverAdapterFromEnv builds the adapter from environment configuration.
func NewLeverAdapterFromEnv(client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		APIKey:     strings.TrimSpace(env.GetEnv("LEVER_API_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("LEVER_API_BASE_URL", defaultLeverAPIBaseURL)),
		HTTPClient: client,
	}
}

func (a *LeverAdapter) Kind() Kind { return KindLever }

type leverApplyResponse struct {
	OK            bool   `json:"ok"`
	ApplicationID string `json:"applicationId"`
}

// Submit posts the application to POST /postings/{site}/{id}/apply.
func (a *LeverAdapter) Submit(ctx context.Context, payload ApplicationPayload) (Outcome, error) {
	if a.APIKey == "" {
		return manualOutcome("lever integration is not configured"), nil
	}
	postingID := payload.ExternalRef
	if postingID == "" {
		postingID = ParseExternalRef(payload.JobURL)
	}
	if postingID == "" {
		return manualOutcome("could not determine the lever posting id from the posting URL"), nil
	}

	site, err := leverSite(payload.JobURL)
	if err != nil {
		return manualOutcome("could not determine the lever company site from the posting URL"), nil
	}

	form := url.Values{}
	form.Set("name", strings.TrimSpace(payload.FirstName+" "+payload.LastName))
	form.Set("email", payload.Email)
	if payload.Phone != "" {
		form.Set("phone", payload.Phone)
	}
	if payload.ResumeURL != "" {
		form.Set("urls[resume]", payload.ResumeURL)
	}
	if payload.CoverLetter != "" {
		form.Set("comments", payload.CoverLetter)
	}

	endpoint := fmt.Sprintf("%s/%s/%s/apply?key=%s",
		a.APIBaseURL, url.PathEscape(site), url.PathEscape(postingID), url.QueryEscape(a.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return manualOutcome(fmt.Sprintf("lever request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var applied leverApplyResponse
		if err := json.Unmarshal(respBody, &applied); err != nil {
			return Outcome{}, fmt.Errorf("lever: decode apply response: %w", err)
		}
		if !applied.OK {
			return manualOutcome("lever did not accept the application"), nil
		}
		return Outcome{
			Success:              true,
			ExternalCandidateRef: applied.ApplicationID,
		}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return manualOutcome(fmt.Sprintf("lever rejected the submission (status %d)", resp.StatusCode)), nil
	default:
		return Outcome{}, fmt.Errorf("lever returned status %d: %s", resp.StatusCode, truncateBody(respBody))
	}
}

// leverSite extracts the company slug, the first path segment of a
// jobs.lever.co URL.
func leverSite(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", fmt.Errorf("lever URL %q has no site segment", rawURL)
	}
	return segments[0], nil
}
