package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// StripeClient is a thin form-encoded client for the billing processor API.
// Only the handful of endpoints this system needs are wrapped.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string
	LiveURL    string

	HTTPClient *http.Client
}

// NewStripeClientFromEnv builds a client from environment configuration.
func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		LiveURL:    strings.TrimRight(env.GetEnv("LIVE_URL", "http://localhost:4000"), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// StripeCustomer is the subset of the customer object we read back.
type StripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// StripeCheckoutSession is the subset of the checkout session object we
// read back.
type StripeCheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripePortalSession is the subset of the billing portal session object.
type StripePortalSession struct {
	URL string `json:"url"`
}

// StripeSubscription is the subset of the subscription object we read back.
type StripeSubscription struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// CreateCustomer registers the user with the billing processor.
func (c *StripeClient) CreateCustomer(ctx context.Context, userID uint, name, email string) (*StripeCustomer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)
	form.Set("metadata[userId]", strconv.FormatUint(uint64(userID), 10))

	var customer StripeCustomer
	if err := c.post(ctx, "/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCheckoutSession starts a subscription checkout for the given price.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, customerID, priceID string, userID uint) (*StripeCheckoutSession, error) {
	if strings.TrimSpace(priceID) == "" {
		return nil, errors.New("price id is required")
	}
	userRef := strconv.FormatUint(uint64(userID), 10)

	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.LiveURL+"/dashboard?session_id={CHECKOUT_SESSION_ID}&success=true")
	form.Set("cancel_url", c.LiveURL+"/pricing?canceled=true")
	form.Set("metadata[userId]", userRef)
	form.Set("subscription_data[metadata][userId]", userRef)

	var session StripeCheckoutSession
	if err := c.post(ctx, "/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreatePortalSession opens the hosted billing portal for a customer.
func (c *StripeClient) CreatePortalSession(ctx context.Context, customerID string) (*StripePortalSession, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", c.LiveURL+"/dashboard/billing")

	var session StripePortalSession
	if err := c.post(ctx, "/billing_portal/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CancelAtPeriodEnd flags a subscription for cancellation at the end of the
// current billing period. The definitive state change still arrives via
// webhook.
func (c *StripeClient) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*StripeSubscription, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, errors.New("subscription id is required")
	}
	form := url.Values{}
	form.Set("cancel_at_period_end", "true")

	var sub StripeSubscription
	if err := c.post(ctx, "/subscriptions/"+url.PathEscape(subscriptionID), form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("STRIPE_SECRET_KEY is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("stripe %s returned status %d: %s", path, resp.StatusCode, truncate(string(body), 300))
	}
	return json.Unmarshal(body, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
