//go:build !integration

package payment

import (
	"errors"
	"testing"

	"fashion-ai-studio/internal/domain"
)

func TestSignAndVerify(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.completed"}`)
	sig := SignBody("secret", body)

	if !VerifySignature("secret", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("other-secret", body, sig) {
		t.Fatal("wrong secret accepted")
	}
	if VerifySignature("secret", []byte(`{"tampered":true}`), sig) {
		t.Fatal("tampered body accepted")
	}
	if VerifySignature("secret", body, "") {
		t.Fatal("empty signature accepted")
	}
	if VerifySignature("secret", body, "not-hex") {
		t.Fatal("garbage signature accepted")
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Run("full checkout event", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{
			"id": "evt_1",
			"type": "checkout.completed",
			"payment_status": "paid",
			"metadata": {"user_id": "u1", "credits": "50"},
			"amount_total": 3999
		}`))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.ID != "evt_1" || ev.Type != "checkout.completed" || ev.PaymentStatus != "paid" {
			t.Fatalf("event: %+v", ev)
		}
		if ev.Metadata["credits"] != "50" {
			t.Fatalf("metadata: %v", ev.Metadata)
		}
		// Raw keeps fields the typed struct does not model.
		if _, ok := ev.Raw["amount_total"]; !ok {
			t.Fatalf("raw payload missing: %v", ev.Raw)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if _, err := DecodeEvent([]byte(`{"type":"checkout.completed"}`)); !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("want ErrInvalidPayload, got %v", err)
		}
	})

	t.Run("missing type", func(t *testing.T) {
		if _, err := DecodeEvent([]byte(`{"id":"evt_1"}`)); !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("want ErrInvalidPayload, got %v", err)
		}
	})

	t.Run("not json", func(t *testing.T) {
		if _, err := DecodeEvent([]byte(`<xml/>`)); !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("want ErrInvalidPayload, got %v", err)
		}
	})
}
