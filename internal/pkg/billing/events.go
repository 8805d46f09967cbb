package billing

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Event is the parsed webhook envelope. Exactly one of Subscription and
// Invoice is populated, depending on Kind.
type Event struct {
	ID           string
	Type         string
	Kind         EventKind
	Subscription *SubscriptionEvent
	Invoice      *InvoiceEvent
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Metadata struct {
		UserID string `json:"userId"`
	} `json:"metadata"`
	Items struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
	TrialStart         int64 `json:"trial_start"`
	TrialEnd           int64 `json:"trial_end"`
	CancelAtPeriodEnd  bool  `json:"cancel_at_period_end"`
	CanceledAt         int64 `json:"canceled_at"`
}

type invoiceObject struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	PaymentIntent    string `json:"payment_intent"`
	AmountPaid       int64  `json:"amount_paid"`
	Currency         string `json:"currency"`
	Description      string `json:"description"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	PaymentSettings  struct {
		PaymentMethodTypes []string `json:"payment_method_types"`
	} `json:"payment_settings"`
}

// ParseEvent decodes a raw webhook body into a typed Event. Unknown event
// types parse successfully with Kind == EventUnknown so the caller can
// record and ignore them.
func ParseEvent(raw []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, errors.New("webhook event has no type")
	}

	ev := &Event{ID: env.ID, Type: env.Type, Kind: KindFromType(env.Type)}
	switch ev.Kind {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		sub, err := parseSubscriptionObject(env.Data.Object)
		if err != nil {
			return nil, err
		}
		ev.Subscription = sub
	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		inv, err := parseInvoiceObject(env.Data.Object)
		if err != nil {
			return nil, err
		}
		ev.Invoice = inv
	case EventUnknown:
		// Recorded and ignored by the caller.
	}
	return ev, nil
}

func parseSubscriptionObject(raw json.RawMessage) (*SubscriptionEvent, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return nil, errors.New("subscription object has no id")
	}

	sub := &SubscriptionEvent{
		SubscriptionID:     obj.ID,
		CustomerID:         obj.Customer,
		Status:             strings.ToLower(strings.TrimSpace(obj.Status)),
		CurrentPeriodStart: unixPtr(obj.CurrentPeriodStart),
		CurrentPeriodEnd:   unixPtr(obj.CurrentPeriodEnd),
		TrialStart:         unixPtr(obj.TrialStart),
		TrialEnd:           unixPtr(obj.TrialEnd),
		CancelAtPeriodEnd:  obj.CancelAtPeriodEnd,
		CanceledAt:         unixPtr(obj.CanceledAt),
	}
	if len(obj.Items.Data) > 0 {
		sub.PriceID = obj.Items.Data[0].Price.ID
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(obj.Metadata.UserID), 10, 64); err == nil {
		sub.UserID = uint(id)
	}
	return sub, nil
}

func parseInvoiceObject(raw json.RawMessage) (*InvoiceEvent, error) {
	var obj invoiceObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if strings.TrimSpace(obj.ID) == "" {
		return nil, errors.New("invoice object has no id")
	}

	inv := &InvoiceEvent{
		InvoiceID:        obj.ID,
		PaymentIntentID:  obj.PaymentIntent,
		CustomerID:       obj.Customer,
		AmountPaid:       obj.AmountPaid,
		Currency:         strings.ToUpper(strings.TrimSpace(obj.Currency)),
		Description:      obj.Description,
		HostedInvoiceURL: obj.HostedInvoiceURL,
		PaymentMethod:    "card",
	}
	if len(obj.PaymentSettings.PaymentMethodTypes) > 0 {
		inv.PaymentMethod = obj.PaymentSettings.PaymentMethodTypes[0]
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
	if inv.Description == "" {
		inv.Description = "Subscription payment"
	}
	return inv, nil
}

func unixPtr(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
