package ats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want Kind
	}{
		{url: "https://boards.greenhouse.io/acme/jobs/4567", want: KindGreenhouse},
		{url: "https://jobs.lever.co/acme/0f4f-1234", want: KindLever},
		{url: "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/JR-10045", want: KindWorkday},
		{url: "https://careers.workday.com/acme/job/123", want: KindWorkday},
		{url: "https://www.linkedin.com/jobs/view/123", want: KindOther},
		{url: "", want: KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindFromURL(tt.url), "url %q", tt.url)
	}
}

func TestParseExternalRef(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "greenhouse job id", url: "https://boards.greenhouse.io/acme/jobs/4567890", want: "4567890"},
		{name: "greenhouse without id", url: "https://boards.greenhouse.io/acme", want: ""},
		{name: "lever posting uuid", url: "https://jobs.lever.co/acme/0f4f1234-aaaa-bbbb-cccc-121212121212", want: "0f4f1234-aaaa-bbbb-cccc-121212121212"},
		{name: "lever apply url", url: "https://jobs.lever.co/acme/0f4f1234-aaaa-bbbb-cccc-121212121212/apply", want: "0f4f1234-aaaa-bbbb-cccc-121212121212"},
		{name: "workday requisition", url: "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/Senior-Engineer_JR10045", want: "JR10045"},
		{name: "workday hyphenated token is not a requisition", url: "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/Senior-Engineer_JR-10045", want: ""},
		{name: "workday without requisition", url: "https://acme.wd5.myworkdayjobs.com/en-US/careers", want: ""},
		{name: "unrecognized board", url: "https://www.indeed.com/viewjob?jk=abc", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExternalRef(tt.url))
		})
	}
}

func TestRouterRoutesUnknownBoardsToManual(t *testing.T) {
	router := NewRouter(NewWorkdayAdapter())

	outcome, err := router.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://www.linkedin.com/jobs/view/123",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.True(t, outcome.RequiresManual)
}

func TestWorkdayAlwaysRequiresManual(t *testing.T) {
	router := NewRouter(NewWorkdayAdapter())

	outcome, err := router.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/JR-10045",
	})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresManual)
	assert.False(t, outcome.Success)
	assert.NotEmpty(t, outcome.ErrorDetail)
}

func TestGreenhouseSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/candidates", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 987654}`))
	}))
	defer srv.Close()

	adapter := &GreenhouseAdapter{
		APIKey:     "gh_key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	outcome, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL:    "https://boards.greenhouse.io/acme/jobs/4567890",
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "dana@example.com",
		ResumeURL: "https://cdn.example.com/resume.pdf",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.RequiresManual)
	assert.Equal(t, "987654", outcome.ExternalCandidateRef)
}

func TestGreenhouseSubmitRejectionIsManual(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"message":"job is closed"}]}`))
	}))
	defer srv.Close()

	adapter := &GreenhouseAdapter{
		APIKey:     "gh_key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	outcome, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://boards.greenhouse.io/acme/jobs/4567890",
		Email:  "dana@example.com",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.True(t, outcome.RequiresManual)
	assert.Contains(t, outcome.ErrorDetail, "422")
}

func TestGreenhouseServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := &GreenhouseAdapter{
		APIKey:     "gh_key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	_, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://boards.greenhouse.io/acme/jobs/4567890",
		Email:  "dana@example.com",
	})
	assert.Error(t, err)
}

func TestGreenhouseUnconfiguredIsManual(t *testing.T) {
	adapter := &GreenhouseAdapter{HTTPClient: http.DefaultClient}

	outcome, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://boards.greenhouse.io/acme/jobs/4567890",
	})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresManual)
}

func TestGreenhouseUnreachableHostIsManual(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	adapter := &GreenhouseAdapter{
		APIKey:     "gh_key",
		APIBaseURL: srv.URL,
		HTTPClient: http.DefaultClient,
	}

	outcome, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://boards.greenhouse.io/acme/jobs/4567890",
		Email:  "dana@example.com",
	})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresManual)
	assert.Contains(t, outcome.ErrorDetail, "request failed")
}

func TestLeverSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acme/0f4f1234-aaaa-bbbb-cccc-121212121212/apply", r.URL.Path)
		assert.Equal(t, "lv_key", r.URL.Query().Get("key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Dana Reyes", r.PostForm.Get("name"))
		assert.Equal(t, "dana@example.com", r.PostForm.Get("email"))

		w.Write([]byte(`{"ok": true, "applicationId": "app_555"}`))
	}))
	defer srv.Close()

	adapter := &LeverAdapter{
		APIKey:     "lv_key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	outcome, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL:    "https://jobs.lever.co/acme/0f4f1234-aaaa-bbbb-cccc-121212121212",
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "dana@example.com",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "app_555", outcome.ExternalCandidateRef)
}

func TestLeverClientErrorIsManual(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok": false}`))
	}))
	defer srv.Close()

	adapter := &LeverAdapter{
		APIKey:     "lv_key",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}

	outcome, err := adapter.Submit(context.Background(), ApplicationPayload{
		JobURL: "https://jobs.lever.co/acme/0f4f1234-aaaa-bbbb-cccc-121212121212",
		Email:  "dana@example.com",
	})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresManual)
}
