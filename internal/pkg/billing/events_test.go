package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromType(t *testing.T) {
	tests := []struct {
		in   string
		want EventKind
	}{
		{in: "customer.subscription.created", want: EventSubscriptionCreated},
		{in: "customer.subscription.updated", want: EventSubscriptionUpdated},
		{in: "customer.subscription.deleted", want: EventSubscriptionDeleted},
		{in: "invoice.payment_succeeded", want: EventInvoicePaymentSucceeded},
		{in: "invoice.payment_failed", want: EventInvoicePaymentFailed},
		{in: "charge.refunded", want: EventUnknown},
		{in: "", want: EventUnknown},
	}

	for _, tt := range tests {
		if got := KindFromType(tt.in); got != tt.want {
			t.Fatalf("KindFromType(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseEventSubscription(t *testing.T) {
	raw := []byte(`{
		"id": "evt_100",
		"type": "customer.subscription.created",
		"data": {
			"object": {
				"id": "sub_123",
				"customer": "cus_456",
				"status": "active",
				"metadata": {"userId": "42"},
				"items": {"data": [{"price": {"id": "price_standard"}}]},
				"current_period_start": 1700000000,
				"current_period_end": 1702592000,
				"cancel_at_period_end": false
			}
		}
	}`)

	ev, err := ParseEvent(raw)
	assert.NoError(t, err)
	assert.Equal(t, "evt_100", ev.ID)
	assert.Equal(t, EventSubscriptionCreated, ev.Kind)
	assert.NotNil(t, ev.Subscription)
	assert.Nil(t, ev.Invoice)

	sub := ev.Subscription
	assert.Equal(t, "sub_123", sub.SubscriptionID)
	assert.Equal(t, "cus_456", sub.CustomerID)
	assert.Equal(t, "price_standard", sub.PriceID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, uint(42), sub.UserID)
	assert.NotNil(t, sub.CurrentPeriodStart)
	assert.NotNil(t, sub.CurrentPeriodEnd)
	assert.Nil(t, sub.TrialEnd)
}

func TestParseEventInvoice(t *testing.T) {
	raw := []byte(`{
		"id": "evt_200",
		"type": "invoice.payment_succeeded",
		"data": {
			"object": {
				"id": "in_123",
				"customer": "cus_456",
				"payment_intent": "pi_789",
				"amount_paid": 2900,
				"currency": "usd",
				"hosted_invoice_url": "https://pay.example.com/in_123",
				"payment_settings": {"payment_method_types": ["card"]}
			}
		}
	}`)

	ev, err := ParseEvent(raw)
	assert.NoError(t, err)
	assert.Equal(t, EventInvoicePaymentSucceeded, ev.Kind)
	assert.NotNil(t, ev.Invoice)

	inv := ev.Invoice
	assert.Equal(t, "in_123", inv.InvoiceID)
	assert.Equal(t, int64(2900), inv.AmountPaid)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, "card", inv.PaymentMethod)
	assert.Equal(t, "Subscription payment", inv.Description)
}

func TestParseEventUnknownType(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"id":"evt_300","type":"charge.refunded","data":{"object":{}}}`))
	assert.NoError(t, err)
	assert.Equal(t, EventUnknown, ev.Kind)
	assert.Nil(t, ev.Subscription)
	assert.Nil(t, ev.Invoice)
}

func TestParseEventRejectsGarbage(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"id":"evt_400","data":{"object":{}}}`))
	assert.Error(t, err)

	_, err = ParseEvent([]byte(`{"id":"evt_500","type":"customer.subscription.updated","data":{"object":{}}}`))
	assert.Error(t, err)
}
