package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
)

type fakeRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeRepo(users ...*models.User) *fakeRepo {
	r := &fakeRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) GetUser(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) MutateUserLocked(_ context.Context, id uint, fn func(u *models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("quota: user %d not found", id)
	}
	cp := *u
	if err := fn(&cp); err != nil {
		return err
	}
	*u = cp
	return nil
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		used    int
		limit   int
		allowed bool
	}{
		{name: "under limit", used: 3, limit: 5, allowed: true},
		{name: "at limit", used: 5, limit: 5, allowed: false},
		{name: "over limit", used: 6, limit: 5, allowed: false},
		{name: "unlimited", used: 1000, limit: models.UnlimitedQuota, allowed: true},
		{name: "zero limit", used: 0, limit: 0, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &models.User{ApplicationsUsed: tt.used, ApplicationsLimit: tt.limit}
			d := Check(u, ResourceApplications)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestCheckUnknownResourceDenied(t *testing.T) {
	d := Check(&models.User{}, Resource("storage"))
	assert.False(t, d.Allowed)
}

func TestConsumeEnforcesGuardItself(t *testing.T) {
	// The ledger must reject a consume even if the caller never checked.
	repo := newFakeRepo(&models.User{ID: 1, ApplicationsUsed: 5, ApplicationsLimit: 5})
	ledger := NewLedger(repo)

	err := ledger.Consume(context.Background(), 1, ResourceApplications)
	assert.Error(t, err)
	var ae *apperr.Error
	assert.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindQuotaExceeded, ae.Kind)

	u, _ := repo.GetUser(context.Background(), 1)
	assert.Equal(t, 5, u.ApplicationsUsed)
}

func TestConsumeIncrementsExactlyOnce(t *testing.T) {
	repo := newFakeRepo(&models.User{ID: 1, ApplicationsUsed: 2, ApplicationsLimit: 5})
	ledger := NewLedger(repo)

	err := ledger.Consume(context.Background(), 1, ResourceApplications)
	assert.NoError(t, err)

	u, _ := repo.GetUser(context.Background(), 1)
	assert.Equal(t, 3, u.ApplicationsUsed)
}

func TestConsumeUnlimited(t *testing.T) {
	repo := newFakeRepo(&models.User{ID: 1, AIGenerationsUsed: 999, AIGenerationsLimit: models.UnlimitedQuota})
	ledger := NewLedger(repo)

	assert.NoError(t, ledger.Consume(context.Background(), 1, ResourceAIGenerations))
	u, _ := repo.GetUser(context.Background(), 1)
	assert.Equal(t, 1000, u.AIGenerationsUsed)
}

func TestConsumeMissingUserIsError(t *testing.T) {
	ledger := NewLedger(newFakeRepo())
	assert.Error(t, ledger.Consume(context.Background(), 42, ResourceApplications))
}

func TestReprovision(t *testing.T) {
	repo := newFakeRepo(&models.User{ID: 1, ApplicationsUsed: 3, ApplicationsLimit: 5, AIGenerationsUsed: 7, AIGenerationsLimit: 10})
	ledger := NewLedger(repo)

	// Plan change without fresh grant keeps used counters.
	assert.NoError(t, ledger.Reprovision(context.Background(), 1, "standard", false))
	u, _ := repo.GetUser(context.Background(), 1)
	assert.Equal(t, 50, u.ApplicationsLimit)
	assert.Equal(t, 100, u.AIGenerationsLimit)
	assert.Equal(t, 3, u.ApplicationsUsed)
	assert.Equal(t, 7, u.AIGenerationsUsed)

	// Fresh grant zeroes used counters.
	assert.NoError(t, ledger.Reprovision(context.Background(), 1, "standard", true))
	u, _ = repo.GetUser(context.Background(), 1)
	assert.Equal(t, 0, u.ApplicationsUsed)
	assert.Equal(t, 0, u.AIGenerationsUsed)
}

func TestReprovisionUnknownPlanDegradesToFree(t *testing.T) {
	repo := newFakeRepo(&models.User{ID: 1, ApplicationsLimit: 50, AIGenerationsLimit: 100})
	ledger := NewLedger(repo)

	assert.NoError(t, ledger.Reprovision(context.Background(), 1, "bogus", false))
	u, _ := repo.GetUser(context.Background(), 1)
	assert.Equal(t, 5, u.ApplicationsLimit)
	assert.Equal(t, 10, u.AIGenerationsLimit)
}
