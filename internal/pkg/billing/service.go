package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/internal/pkg/plans"
	"github.com/jobtrackr/jobtrackr/internal/pkg/quota"
	"gorm.io/gorm"
)

// Service owns the subscription state machine. All transitions are driven
// by webhook events from the billing processor; replays are deduplicated on
// the provider event id before any handler runs.
type Service struct {
	repo   Repository
	ledger *quota.Ledger
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, ledger *quota.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), quota.NewLedgerFromDB(db))
}

// normalizeStatus maps a vendor subscription status onto the local enum.
func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusActive:
		return models.SubscriptionStatusActive
	case models.SubscriptionStatusTrialing:
		return models.SubscriptionStatusTrialing
	case models.SubscriptionStatusPastDue:
		return models.SubscriptionStatusPastDue
	case models.SubscriptionStatusCanceled, "unpaid", "incomplete_expired":
		return models.SubscriptionStatusCanceled
	case "":
		return models.SubscriptionStatusActive
	default:
		return models.SubscriptionStatusNone
	}
}

// RecordWebhookEvent persists webhook payloads idempotently. The returned
// bool is false when the provider event id was already recorded, in which
// case the caller must not process the event again.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ProcessEvent dispatches a parsed event to its handler. Unknown kinds are
// logged and ignored so new vendor event types never fail the endpoint.
func (s *Service) ProcessEvent(ctx context.Context, ev *Event) error {
	switch ev.Kind {
	case EventSubscriptionCreated:
		return s.HandleSubscriptionCreated(ctx, ev.Subscription)
	case EventSubscriptionUpdated:
		return s.HandleSubscriptionUpdated(ctx, ev.Subscription)
	case EventSubscriptionDeleted:
		return s.HandleSubscriptionDeleted(ctx, ev.Subscription)
	case EventInvoicePaymentSucceeded:
		return s.HandlePaymentSucceeded(ctx, ev.Invoice)
	case EventInvoicePaymentFailed:
		return s.HandlePaymentFailed(ctx, ev.Invoice)
	case EventUnknown:
		log.Printf("billing: ignoring unhandled event type %q", ev.Type)
		return nil
	default:
		log.Printf("billing: ignoring unhandled event kind %d", ev.Kind)
		return nil
	}
}

func (s *Service) resolveUser(sub *SubscriptionEvent) (*models.User, error) {
	if sub.UserID != 0 {
		return s.repo.GetUserByID(sub.UserID)
	}
	if strings.TrimSpace(sub.CustomerID) != "" {
		return s.repo.GetUserByStripeCustomerID(sub.CustomerID)
	}
	return nil, errors.New("subscription event carries no user reference")
}

// HandleSubscriptionCreated provisions a fresh subscription: plan, status
// and period land on the user, limits are reprovisioned and both used
// counters are zeroed (fresh grant).
func (s *Service) HandleSubscriptionCreated(ctx context.Context, sub *SubscriptionEvent) error {
	if sub == nil {
		return errors.New("subscription payload is required")
	}
	user, err := s.resolveUser(sub)
	if err != nil {
		return fmt.Errorf("subscription.created: resolve user: %w", err)
	}

	planID := plans.PlanForPriceID(sub.PriceID)
	status := normalizeStatus(sub.Status)

	if err := s.repo.UpdateUserSubscriptionFields(user.ID, map[string]interface{}{
		"stripe_subscription_id": sub.SubscriptionID,
		"stripe_customer_id":     sub.CustomerID,
		"subscription_status":    status,
		"subscription_plan":      string(planID),
		"subscription_start":     sub.CurrentPeriodStart,
		"subscription_end":       sub.CurrentPeriodEnd,
		"trial_ends_at":          sub.TrialEnd,
	}); err != nil {
		return err
	}

	if err := s.ledger.Reprovision(ctx, user.ID, string(planID), true); err != nil {
		return err
	}

	return s.repo.UpsertSubscription(&models.Subscription{
		UserID:               user.ID,
		StripeSubscriptionID: sub.SubscriptionID,
		StripeCustomerID:     sub.CustomerID,
		StripePriceID:        sub.PriceID,
		Status:               status,
		PlanName:             string(planID),
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		TrialStart:           sub.TrialStart,
		TrialEnd:             sub.TrialEnd,
	})
}

// HandleSubscriptionUpdated syncs status/plan/period changes. Limits follow
// the new plan; used counters are untouched.
func (s *Service) HandleSubscriptionUpdated(ctx context.Context, sub *SubscriptionEvent) error {
	if sub == nil {
		return errors.New("subscription payload is required")
	}
	user, err := s.resolveUser(sub)
	if err != nil {
		return fmt.Errorf("subscription.updated: resolve user: %w", err)
	}

	planID := plans.PlanForPriceID(sub.PriceID)
	status := normalizeStatus(sub.Status)

	if err := s.repo.UpdateUserSubscriptionFields(user.ID, map[string]interface{}{
		"subscription_status": status,
		"subscription_plan":   string(planID),
		"subscription_end":    sub.CurrentPeriodEnd,
	}); err != nil {
		return err
	}

	if err := s.ledger.Reprovision(ctx, user.ID, string(planID), false); err != nil {
		return err
	}

	return s.repo.UpdateSubscriptionByStripeID(sub.SubscriptionID, map[string]interface{}{
		"status":               status,
		"plan_name":            string(planID),
		"stripe_price_id":      sub.PriceID,
		"current_period_end":   sub.CurrentPeriodEnd,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"canceled_at":          sub.CanceledAt,
	})
}

// HandleSubscriptionDeleted forces the account back onto the free tier.
// Canceled is terminal; a later subscription.created event is a fresh edge
// into the machine, not a transition out of canceled.
func (s *Service) HandleSubscriptionDeleted(ctx context.Context, sub *SubscriptionEvent) error {
	if sub == nil {
		return errors.New("subscription payload is required")
	}
	user, err := s.resolveUser(sub)
	if err != nil {
		return fmt.Errorf("subscription.deleted: resolve user: %w", err)
	}

	if err := s.repo.UpdateUserSubscriptionFields(user.ID, map[string]interface{}{
		"subscription_status":    models.SubscriptionStatusCanceled,
		"subscription_plan":      string(plans.PlanFree),
		"stripe_subscription_id": "",
	}); err != nil {
		return err
	}

	if err := s.ledger.Reprovision(ctx, user.ID, string(plans.PlanFree), false); err != nil {
		return err
	}

	now := time.Now()
	return s.repo.UpdateSubscriptionByStripeID(sub.SubscriptionID, map[string]interface{}{
		"status":      models.SubscriptionStatusCanceled,
		"canceled_at": &now,
	})
}

// HandlePaymentSucceeded appends a payment history row. No state
// transition. Replayed invoices are deduplicated on the invoice id.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, inv *InvoiceEvent) error {
	_ = ctx
	if inv == nil {
		return errors.New("invoice payload is required")
	}
	user, err := s.repo.GetUserByStripeCustomerID(inv.CustomerID)
	if err != nil {
		return fmt.Errorf("invoice.payment_succeeded: resolve customer %q: %w", inv.CustomerID, err)
	}

	created, err := s.repo.CreatePaymentIfNotExists(&models.PaymentHistory{
		UserID:          user.ID,
		StripePaymentID: inv.PaymentIntentID,
		StripeInvoiceID: inv.InvoiceID,
		Amount:          inv.AmountPaid,
		Currency:        inv.Currency,
		Status:          "succeeded",
		PaymentMethod:   inv.PaymentMethod,
		Description:     inv.Description,
		ReceiptURL:      inv.HostedInvoiceURL,
	})
	if err != nil {
		return err
	}
	if !created {
		log.Printf("billing: duplicate payment for invoice %s ignored", inv.InvoiceID)
	}
	return nil
}

// HandlePaymentFailed only logs. No state transition and no user-facing
// lockout; repeated failures eventually arrive as a subscription.updated
// with past_due status.
func (s *Service) HandlePaymentFailed(ctx context.Context, inv *InvoiceEvent) error {
	_ = ctx
	if inv == nil {
		return errors.New("invoice payload is required")
	}
	log.Printf("billing: payment failed for customer %s, invoice %s", inv.CustomerID, inv.InvoiceID)
	if user, err := s.repo.GetUserByStripeCustomerID(inv.CustomerID); err == nil {
		s.notifyPaymentFailed(user, inv)
	}
	return nil
}

// ListPayments returns the most recent successful charges for a user.
func (s *Service) ListPayments(ctx context.Context, userID uint, limit int) ([]models.PaymentHistory, error) {
	_ = ctx
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListPaymentsByUser(userID, limit)
}

// LatestSubscription returns the newest subscription ledger row for display.
func (s *Service) LatestSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	return s.repo.LatestSubscriptionByUser(userID)
}
