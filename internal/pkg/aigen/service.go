package aigen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/quota"
	"gorm.io/gorm"
)

// Generator is the slice of the completion client the service needs.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// MetricsRecorder persists generation metrics. Best effort only.
type MetricsRecorder interface {
	RecordMetric(ctx context.Context, metric *models.Analytics) error
}

// Service gates AI generations behind the usage ledger. A unit is consumed
// only after the vendor call returned content.
type Service struct {
	gen     Generator
	ledger  *quota.Ledger
	metrics MetricsRecorder
}

// NewService creates a generation service from injected dependencies.
func NewService(gen Generator, ledger *quota.Ledger, metrics MetricsRecorder) *Service {
	return &Service{gen: gen, ledger: ledger, metrics: metrics}
}

// NewServiceFromDB creates a generation service backed by GORM and the
// environment-configured client.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewClientFromEnv(), quota.NewLedgerFromDB(db), &gormMetrics{db: db})
}

// CoverLetterInput carries the context a cover letter is written from.
type CoverLetterInput struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	CandidateName  string
	ResumeSummary  string
}

const coverLetterSystemPrompt = "You are a professional career writer. Write a concise, specific cover letter in plain text. No placeholders, no markdown."

// GenerateCoverLetter produces a cover letter for the given job.
func (s *Service) GenerateCoverLetter(ctx context.Context, userID uint, in CoverLetterInput) (string, error) {
	return s.generate(ctx, userID, "cover_letter", coverLetterSystemPrompt, fmt.Sprintf(
		"Candidate: %s\nCompany: %s\nRole: %s\n\nJob description:\n%s\n\nCandidate background:\n%s",
		in.CandidateName, in.CompanyName, in.JobTitle, in.JobDescription, in.ResumeSummary,
	))
}

const resumeBulletsSystemPrompt = "You are a professional resume writer. Rewrite the candidate's experience as achievement-focused bullet points tailored to the job. Plain text, one bullet per line."

// GenerateResumeBullets tailors resume bullet points to a job description.
func (s *Service) GenerateResumeBullets(ctx context.Context, userID uint, jobDescription, experience string) (string, error) {
	return s.generate(ctx, userID, "resume_bullets", resumeBulletsSystemPrompt, fmt.Sprintf(
		"Job description:\n%s\n\nCandidate experience:\n%s", jobDescription, experience,
	))
}

func (s *Service) generate(ctx context.Context, userID uint, kind, systemPrompt, userPrompt string) (string, error) {
	decision, err := s.ledger.CheckCanConsume(ctx, userID, quota.ResourceAIGenerations)
	if err != nil {
		return "", err
	}
	if !decision.Allowed {
		return "", apperr.QuotaExceeded(decision.Reason)
	}

	content, err := s.gen.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", apperr.External("content generation is temporarily unavailable", err)
	}

	if err := s.ledger.Consume(ctx, userID, quota.ResourceAIGenerations); err != nil {
		return "", err
	}
	s.recordMetric(ctx, userID, kind)
	return content, nil
}

func (s *Service) recordMetric(ctx context.Context, userID uint, kind string) {
	if s.metrics == nil {
		return
	}
	raw, _ := json.Marshal(map[string]string{"generation_kind": kind})
	_ = s.metrics.RecordMetric(ctx, &models.Analytics{
		UserID:       userID,
		MetricType:   models.MetricAIGeneration,
		MetricValue:  1,
		MetadataJSON: string(raw),
	})
}

type gormMetrics struct {
	db *gorm.DB
}

func (m *gormMetrics) RecordMetric(ctx context.Context, metric *models.Analytics) error {
	return m.db.WithContext(ctx).Create(metric).Error
}
