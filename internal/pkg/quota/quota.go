package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/apperr"
	"github.com/jobtrackr/jobtrackr/internal/pkg/plans"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resource identifies a metered resource tracked per user.
type Resource string

const (
	ResourceApplications  Resource = "application"
	ResourceAIGenerations Resource = "ai_generation"
)

// Decision is the result of a quota check. It is a value, never an error:
// a denied check is a policy outcome, not a fault.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Check is the pure quota predicate over a user snapshot. It never errors;
// unknown resources are denied.
func Check(u *models.User, r Resource) Decision {
	used, limit, ok := counters(u, r)
	if !ok {
		return Decision{Allowed: false, Reason: fmt.Sprintf("unknown resource %q", r)}
	}
	if limit == models.UnlimitedQuota {
		return Decision{Allowed: true}
	}
	if used < limit {
		return Decision{Allowed: true}
	}
	switch r {
	case ResourceApplications:
		return Decision{Allowed: false, Reason: "Application limit reached. Please upgrade your plan."}
	default:
		return Decision{Allowed: false, Reason: "AI generation limit reached. Please upgrade your plan."}
	}
}

func counters(u *models.User, r Resource) (used, limit int, ok bool) {
	switch r {
	case ResourceApplications:
		return u.ApplicationsUsed, u.ApplicationsLimit, true
	case ResourceAIGenerations:
		return u.AIGenerationsUsed, u.AIGenerationsLimit, true
	default:
		return 0, 0, false
	}
}

// consumeInto re-checks the guard and increments the used counter. The
// ledger enforces the invariant itself rather than trusting the caller to
// have called Check first.
func consumeInto(u *models.User, r Resource, amount int) error {
	if amount <= 0 {
		return apperr.Internal("quota amount must be positive", nil)
	}
	d := Check(u, r)
	if !d.Allowed {
		return apperr.QuotaExceeded(d.Reason)
	}
	switch r {
	case ResourceApplications:
		u.ApplicationsUsed += amount
	case ResourceAIGenerations:
		u.AIGenerationsUsed += amount
	}
	return nil
}

// Repository provides the DB operations used by the ledger.
type Repository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	// MutateUserLocked loads the user under a row lock, applies fn and
	// persists the result within one transaction.
	MutateUserLocked(ctx context.Context, id uint, fn func(u *models.User) error) error
}

// Ledger tracks consumption of metered resources against plan ceilings.
// All quota mutations on the user row go through here.
type Ledger struct {
	repo Repository
}

// NewLedger creates a ledger from an injected repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// NewLedgerFromDB creates a ledger backed by GORM.
func NewLedgerFromDB(db *gorm.DB) *Ledger {
	return NewLedger(NewRepository(db))
}

// CheckCanConsume reports whether the user may consume one unit of r.
// A missing user is a programming error, surfaced as an error rather than
// a denial.
func (l *Ledger) CheckCanConsume(ctx context.Context, userID uint, r Resource) (Decision, error) {
	u, err := l.repo.GetUser(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("quota check: load user %d: %w", userID, err)
	}
	return Check(u, r), nil
}

// Consume atomically debits one unit of r. The guard is re-checked under
// the row lock, so two concurrent submissions cannot both pass a stale
// check and over-debit. Call only after the gated action durably succeeded.
func (l *Ledger) Consume(ctx context.Context, userID uint, r Resource) error {
	return l.repo.MutateUserLocked(ctx, userID, func(u *models.User) error {
		return consumeInto(u, r, 1)
	})
}

// Reprovision resets the user's limits to the given plan's ceilings.
// Used counters are zeroed only on a fresh grant (new subscription), never
// on a plain plan change.
func (l *Ledger) Reprovision(ctx context.Context, userID uint, planID string, freshGrant bool) error {
	plan := plans.GetPlan(planID)
	return l.repo.MutateUserLocked(ctx, userID, func(u *models.User) error {
		u.ApplicationsLimit = plan.ApplicationsLimit
		u.AIGenerationsLimit = plan.AIGenerationsLimit
		if freshGrant {
			u.ApplicationsUsed = 0
			u.AIGenerationsUsed = 0
		}
		return nil
	})
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a quota repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) MutateUserLocked(ctx context.Context, id uint, fn func(u *models.User) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("quota: user %d not found: %w", id, err)
			}
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"applications_used":    u.ApplicationsUsed,
			"applications_limit":   u.ApplicationsLimit,
			"ai_generations_used":  u.AIGenerationsUsed,
			"ai_generations_limit": u.AIGenerationsLimit,
		}).Error
	})
}
