package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtrackr/jobtrackr/app/models"
	"github.com/jobtrackr/jobtrackr/app/repository"
	"github.com/jobtrackr/jobtrackr/internal/pkg/billing"
	"github.com/jobtrackr/jobtrackr/internal/pkg/database"
	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
	"github.com/jobtrackr/jobtrackr/internal/pkg/plans"
	"github.com/jobtrackr/jobtrackr/internal/pkg/usercontext"
)

// HandlePlans lists the subscription catalog.
func HandlePlans(c *fiber.Ctx) error {
	catalog := []plans.Plan{
		plans.GetPlan(string(plans.PlanFree)),
		plans.GetPlan(string(plans.PlanStandard)),
		plans.GetPlan(string(plans.PlanPremium)),
	}
	return c.JSON(fiber.Map{"plans": catalog})
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

// HandleCheckout starts a hosted checkout for a paid plan. The subscription
// itself is provisioned later by webhook, never here.
func HandleCheckout(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	planID := plans.Normalize(req.Plan)
	if planID == plans.PlanFree {
		return badRequest(c, "the free plan has no checkout")
	}
	priceID := plans.StripePriceID(planID)
	if priceID == "" {
		return internalError(c, "this plan is not configured for checkout")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userID)
	if err != nil {
		return internalError(c, "could not load the user")
	}

	client := billing.NewStripeClientFromEnv()
	customerID := user.StripeCustomerID
	if customerID == "" {
		customer, err := client.CreateCustomer(c.Context(), user.ID, user.Name, user.Email)
		if err != nil {
			log.Printf("billing: create customer for user %d failed: %v", user.ID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":   "external_service_failure",
				"message": "checkout is temporarily unavailable",
			})
		}
		customerID = customer.ID
		_ = repo.UpdateFields(user.ID, map[string]interface{}{"stripe_customer_id": customerID})
	}

	session, err := client.CreateCheckoutSession(c.Context(), customerID, priceID, user.ID)
	if err != nil {
		log.Printf("billing: create checkout session for user %d failed: %v", user.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "external_service_failure",
			"message": "checkout is temporarily unavailable",
		})
	}

	return c.JSON(fiber.Map{"checkout_url": session.URL, "session_id": session.ID})
}

func usagePercent(used, limit int) interface{} {
	if limit == models.UnlimitedQuota {
		return nil
	}
	if limit <= 0 {
		return 100
	}
	pct := used * 100 / limit
	if pct > 100 {
		pct = 100
	}
	return pct
}

// HandleSubscriptionDetails returns the user's plan, status and usage.
func HandleSubscriptionDetails(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return internalError(c, "could not load the user")
	}

	plan := plans.GetPlan(user.SubscriptionPlan)
	resp := fiber.Map{
		"plan":                plan,
		"subscription_status": user.SubscriptionStatus,
		"subscription_end":    user.SubscriptionEnd,
		"trial_ends_at":       user.TrialEndsAt,
		"usage": fiber.Map{
			"applications": fiber.Map{
				"used":    user.ApplicationsUsed,
				"limit":   user.ApplicationsLimit,
				"percent": usagePercent(user.ApplicationsUsed, user.ApplicationsLimit),
			},
			"ai_generations": fiber.Map{
				"used":    user.AIGenerationsUsed,
				"limit":   user.AIGenerationsLimit,
				"percent": usagePercent(user.AIGenerationsUsed, user.AIGenerationsLimit),
			},
		},
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	if sub, err := svc.LatestSubscription(c.Context(), userID); err == nil {
		resp["subscription"] = sub
	}
	return c.JSON(resp)
}

// HandleBillingPortal opens the hosted billing portal.
func HandleBillingPortal(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return internalError(c, "could not load the user")
	}
	if user.StripeCustomerID == "" {
		return badRequest(c, "no billing account exists for this user")
	}

	session, err := billing.NewStripeClientFromEnv().CreatePortalSession(c.Context(), user.StripeCustomerID)
	if err != nil {
		log.Printf("billing: portal session for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "external_service_failure",
			"message": "the billing portal is temporarily unavailable",
		})
	}
	return c.JSON(fiber.Map{"portal_url": session.URL})
}

// HandlePaymentHistory lists the user's recent charges.
func HandlePaymentHistory(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	_, limit := paginationParams(c)

	svc := billing.NewServiceFromDB(database.GetDB())
	payments, err := svc.ListPayments(c.Context(), userID, limit)
	if err != nil {
		return internalError(c, "could not load payment history")
	}
	return c.JSON(fiber.Map{"payments": payments})
}

// HandleSubscriptionCancel flags the subscription for cancellation at the
// period end. The downgrade itself lands via webhook.
func HandleSubscriptionCancel(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return internalError(c, "could not load the user")
	}
	if user.StripeSubscriptionID == "" {
		return badRequest(c, "no active subscription to cancel")
	}

	sub, err := billing.NewStripeClientFromEnv().CancelAtPeriodEnd(c.Context(), user.StripeSubscriptionID)
	if err != nil {
		log.Printf("billing: cancel subscription for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "external_service_failure",
			"message": "cancellation is temporarily unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"success":              true,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
	})
}

// HandleStripeWebhook is the single entry point for billing state changes.
// Events are verified, recorded idempotently and then dispatched; a replay
// of an already-recorded event id returns 200 without reprocessing.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")
	secret := strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
	if secret == "" {
		log.Print("billing: STRIPE_WEBHOOK_SECRET is not configured")
		return internalError(c, "webhook is not configured")
	}

	signatureValid := billing.VerifyStripeWebhookSignature(payload, signature, secret, billing.DefaultSignatureTolerance)
	if !signatureValid {
		return badRequest(c, "invalid webhook signature")
	}

	event, err := billing.ParseEvent(payload)
	if err != nil {
		return badRequest(c, "malformed webhook payload")
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	created, stored, err := svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Printf("billing: record webhook event %s failed: %v", event.ID, err)
		return internalError(c, "could not record the event")
	}
	if !created {
		if stored.ProcessedOK() {
			return c.JSON(fiber.Map{"received": true, "duplicate": true})
		}
		// The earlier delivery was recorded but its processing never
		// completed; run the handler again on this redelivery.
	}

	processErr := svc.ProcessEvent(c.Context(), event)
	if err := svc.MarkWebhookProcessed(c.Context(), stored.ID, processErr); err != nil {
		log.Printf("billing: mark webhook %d processed failed: %v", stored.ID, err)
	}
	if processErr != nil {
		if errors.Is(processErr, gorm.ErrRecordNotFound) {
			// Unknown customer or user: acknowledged, nothing to retry.
			log.Printf("billing: webhook %s referenced unknown records: %v", event.ID, processErr)
			return c.JSON(fiber.Map{"received": true})
		}
		log.Printf("billing: processing webhook %s failed: %v", event.ID, processErr)
		return badRequest(c, "event processing failed")
	}

	return c.JSON(fiber.Map{"received": true})
}
