package ats

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Kind identifies an applicant tracking system family.
type Kind string

const (
	KindGreenhouse Kind = "greenhouse"
	KindLever      Kind = "lever"
	KindWorkday    Kind = "workday"
	KindOther      Kind = "other"
)

// KindFromURL classifies a job posting URL by its ATS vendor. Anything not
// recognized is KindOther and falls back to the manual flow.
func KindFromURL(rawURL string) Kind {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "greenhouse.io"):
		return KindGreenhouse
	case strings.Contains(u, "lever.co"):
		return KindLever
	case strings.Contains(u, "myworkdayjobs.com") || strings.Contains(u, "workday.com"):
		return KindWorkday
	default:
		return KindOther
	}
}

// ApplicationPayload carries everything an adapter needs to submit a
// candidate. ResumeURL must be publicly fetchable for the duration of the
// submission.
type ApplicationPayload struct {
	JobURL      string
	ExternalRef string

	FirstName string
	LastName  string
	Email     string
	Phone     string

	ResumeURL   string
	CoverLetter string
}

// Outcome is the result of a submission attempt. RequiresManual is a soft
// failure: the caller keeps the application in draft and points the user at
// the posting URL instead of surfacing an error.
type Outcome struct {
	Success              bool
	ExternalCandidateRef string
	RequiresManual       bool
	ErrorDetail          string
}

func manualOutcome(detail string) Outcome {
	return Outcome{RequiresManual: true, ErrorDetail: detail}
}

// Adapter submits applications to one ATS family.
type Adapter interface {
	Kind() Kind
	Submit(ctx context.Context, payload ApplicationPayload) (Outcome, error)
}

// Router dispatches submissions to the adapter matching the job URL.
type Router struct {
	adapters map[Kind]Adapter
}

// NewRouter builds a router over the given adapters. Later adapters of the
// same kind replace earlier ones.
func NewRouter(adapters ...Adapter) *Router {
	r := &Router{adapters: make(map[Kind]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Kind()] = a
	}
	return r
}

// NewRouterFromEnv wires the production adapter set with a shared HTTP client.
func NewRouterFromEnv() *Router {
	client := &http.Client{Timeout: 20 * time.Second}
	return NewRouter(
		NewGreenhouseAdapterFromEnv(client),
		NewLeverAdapterFromEnv(client),
		NewWorkdayAdapter(),
	)
}

// Submit routes the payload to the adapter for the job URL's ATS. URLs with
// no adapter yield a RequiresManual outcome, never an error.
func (r *Router) Submit(ctx context.Context, payload ApplicationPayload) (Outcome, error) {
	kind := KindFromURL(payload.JobURL)
	adapter, ok := r.adapters[kind]
	if !ok {
		return manualOutcome("no automated integration for this job board"), nil
	}
	return adapter.Submit(ctx, payload)
}

// SupportsAutoSubmit reports whether the router has an adapter that can
// attempt an automated submission for the URL.
func (r *Router) SupportsAutoSubmit(rawURL string) bool {
	_, ok := r.adapters[KindFromURL(rawURL)]
	return ok && KindFromURL(rawURL) != KindWorkday
}
