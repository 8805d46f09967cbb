package ats

import "context"

// WorkdayAdapter never submits. Workday tenants require per-company
// credentials and a SOAP integration this system does not carry, so every
// workday posting routes straight to the manual flow without touching the
// network.
type WorkdayAdapter struct{}

func NewWorkdayAdapter() *WorkdayAdapter { return &WorkdayAdapter{} }

func (a *WorkdayAdapter) Kind() Kind { return KindWorkday }

func (a *WorkdayAdapter) Submit(ctx context.Context, payload ApplicationPayload) (Outcome, error) {
	return manualOutcome("workday postings must be applied to on the company site"), nil
}
