package billing

import "time"

// EventKind is the closed set of billing processor event types this system
// reacts to. Dispatch happens on the kind, not the raw string, so a new
// vendor event type cannot be silently mistaken for a handled one.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventInvoicePaymentSucceeded
	EventInvoicePaymentFailed
)

// KindFromType maps a raw vendor event type onto an EventKind.
func KindFromType(eventType string) EventKind {
	switch eventType {
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "invoice.payment_succeeded":
		return EventInvoicePaymentSucceeded
	case "invoice.payment_failed":
		return EventInvoicePaymentFailed
	default:
		return EventUnknown
	}
}

// SubscriptionEvent is the normalized subscription object carried by
// subscription lifecycle webhooks.
type SubscriptionEvent struct {
	SubscriptionID     string
	CustomerID         string
	PriceID            string
	Status             string
	UserID             uint
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialStart         *time.Time
	TrialEnd           *time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
}

// InvoiceEvent is the normalized invoice object carried by payment webhooks.
type InvoiceEvent struct {
	InvoiceID        string
	PaymentIntentID  string
	CustomerID       string
	AmountPaid       int64
	Currency         string
	Description      string
	HostedInvoiceURL string
	PaymentMethod    string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
