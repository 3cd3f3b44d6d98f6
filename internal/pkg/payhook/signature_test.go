package payhook

import (
	"strings"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event_id":"evt_1","type":"payment.succeeded","account_id":"a1"}`)
	secret := "shared-secret"

	sig := Sign(payload, secret)

	if !VerifySignature(payload, sig, secret) {
		t.Fatal("expected valid signature to verify")
	}

	// Case-insensitive on the received side
	if !VerifySignature(payload, strings.ToUpper(sig), secret) {
		t.Fatal("expected uppercase signature to verify")
	}

	if VerifySignature(payload, sig, "other-secret") {
		t.Fatal("expected wrong secret to fail")
	}

	if VerifySignature([]byte(`{"event_id":"evt_2"}`), sig, secret) {
		t.Fatal("expected tampered payload to fail")
	}

	if VerifySignature(payload, "", secret) {
		t.Fatal("expected empty signature to fail")
	}

	if VerifySignature(payload, sig, "") {
		t.Fatal("expected empty secret to fail")
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event_id":"evt_1","type":"subscription.updated","account_id":"a1","status":"active"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventID != "evt_1" || ev.Type != TypeSubscriptionUpdated || ev.Status != "active" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	cases := []string{
		`not json`,
		`{"type":"payment.succeeded","account_id":"a1"}`,
		`{"event_id":"evt_1","account_id":"a1"}`,
		`{"event_id":"evt_1","type":"payment.succeeded"}`,
	}
	for _, raw := range cases {
		if _, err := ParseEvent([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
