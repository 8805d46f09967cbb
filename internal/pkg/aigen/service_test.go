package aigen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	content string
	err     error
	calls   int
}

func (s *stubGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.content, s.err
}

type memQuotaRepo struct {
	users map[uint]*models.User
}

func (r *memQuotaRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	cp := *u
	return &cp, nil
}

func (r *memQuotaRepo) MutateUserLocked(ctx context.Context, id uint, fn func(u *models.User) error) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	return fn(u)
}

type memMetrics struct {
	rows []models.Analytics
}

func (m *memMetrics) RecordMetric(ctx context.Context, metric *models.Analytics) error {
	m.rows = append(m.rows, *metric)
	return nil
}

func newTestService(gen Generator, user *models.User) (*Service, *memQuotaRepo, *memMetrics) {
	repo := &memQuotaRepo{users: map[uint]*models.User{user.ID: user}}
	metrics := &memMetrics{}
	return NewService(gen, quota.NewLedger(repo), metrics), repo, metrics
}

func TestGenerateCoverLetterConsumesQuota(t *testing.T) {
	gen := &stubGenerator{content: "Dear hiring team,"}
	user := &models.User{ID: 1, AIGenerationsUsed: 4, AIGenerationsLimit: 10, ApplicationsLimit: 5}
	svc, repo, metrics := newTestService(gen, user)

	out, err := svc.GenerateCoverLetter(context.Background(), 1, CoverLetterInput{
		CompanyName: "Acme",
		JobTitle:    "Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dear hiring team,", out)
	assert.Equal(t, 5, repo.users[1].AIGenerationsUsed)
	require.Len(t, metrics.rows, 1)
	assert.Equal(t, models.MetricAIGeneration, metrics.rows[0].MetricType)
}

func TestGenerateBlockedByQuota(t *testing.T) {
	gen := &stubGenerator{content: "text"}
	user := &models.User{ID: 1, AIGenerationsUsed: 10, AIGenerationsLimit: 10}
	svc, _, _ := newTestService(gen, user)

	_, err := svc.GenerateCoverLetter(context.Background(), 1, CoverLetterInput{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindQuotaExceeded, apperr.KindOf(err))
	assert.Equal(t, 0, gen.calls)
}

func TestGenerateVendorFailureDoesNotConsume(t *testing.T) {
	gen := &stubGenerator{err: errors.New("status 500")}
	user := &models.User{ID: 1, AIGenerationsUsed: 4, AIGenerationsLimit: 10}
	svc, repo, metrics := newTestService(gen, user)

	_, err := svc.GenerateCoverLetter(context.Background(), 1, CoverLetterInput{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
	assert.Equal(t, 4, repo.users[1].AIGenerationsUsed)
	assert.Empty(t, metrics.rows)
}

func TestGenerateUnlimitedPlan(t *testing.T) {
	gen := &stubGenerator{content: "text"}
	user := &models.User{ID: 1, AIGenerationsUsed: 9999, AIGenerationsLimit: models.UnlimitedQuota}
	svc, _, _ := newTestService(gen, user)

	_, err := svc.GenerateCoverLetter(context.Background(), 1, CoverLetterInput{})
	assert.NoError(t, err)
}

func TestClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hello there.  "}}]}`))
	}))
	defer srv.Close()

	client := &Client{
		APIKey:     "sk_test",
		APIBaseURL: srv.URL,
		Model:      "gpt-4o-mini",
		HTTPClient: srv.Client(),
	}

	out, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", out)
}

func TestClientCompleteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := &Client{
		APIKey:     "sk_test",
		APIBaseURL: srv.URL,
		HTTPClient: srv.Client(),
	}
	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	unconfigured := &Client{HTTPClient: http.DefaultClient}
	_, err = unconfigured.Complete(context.Background(), "system", "user")
	assert.Error(t, err)
}
