package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.created"}`)
	secret := "whsec_test"

	header := signPayload(payload, secret, time.Now().Unix())
	if !VerifyStripeWebhookSignature(payload, header, secret, DefaultSignatureTolerance) {
		t.Fatalf("expected signature to validate")
	}

	if VerifyStripeWebhookSignature(payload, header, "whsec_other", DefaultSignatureTolerance) {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyStripeWebhookSignature([]byte(`{"tampered":true}`), header, secret, DefaultSignatureTolerance) {
		t.Fatalf("expected tampered payload to fail")
	}
	if VerifyStripeWebhookSignature(payload, "", secret, DefaultSignatureTolerance) {
		t.Fatalf("expected empty header to fail")
	}
	if VerifyStripeWebhookSignature(payload, header, "", DefaultSignatureTolerance) {
		t.Fatalf("expected empty secret to fail")
	}
}

func TestVerifyStripeWebhookSignatureStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_2"}`)
	secret := "whsec_test"

	stale := signPayload(payload, secret, time.Now().Add(-time.Hour).Unix())
	if VerifyStripeWebhookSignature(payload, stale, secret, DefaultSignatureTolerance) {
		t.Fatalf("expected stale timestamp to fail")
	}

	// Zero tolerance disables the age check.
	if !VerifyStripeWebhookSignature(payload, stale, secret, 0) {
		t.Fatalf("expected stale timestamp to pass with tolerance disabled")
	}
}

func TestVerifyStripeWebhookSignatureMalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"

	for _, header := range []string{
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		fmt.Sprintf("t=%d", time.Now().Unix()),
		"garbage",
	} {
		if VerifyStripeWebhookSignature(payload, header, secret, DefaultSignatureTolerance) {
			t.Fatalf("expected malformed header %q to fail", header)
		}
	}
}
