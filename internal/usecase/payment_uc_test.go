//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/infra/payment"
)

const webhookSecret = "test-secret"

type paymentFixture struct {
	ledger *memLedgerRepo
	events *memPaymentEventRepo
	uc     PaymentUseCase
}

func newPaymentFixture() *paymentFixture {
	ledger := newMemLedgerRepo()
	events := newMemPaymentEventRepo()
	credits := newCreditUC(ledger)
	return &paymentFixture{
		ledger: ledger,
		events: events,
		uc:     NewPaymentUseCase(events, credits, webhookSecret, newLogger()),
	}
}

func signedBody(body string) ([]byte, string) {
	b := []byte(body)
	return b, payment.SignBody(webhookSecret, b)
}

const checkoutBody = `{
	"id": "evt_1",
	"type": "checkout.completed",
	"payment_status": "paid",
	"metadata": {"user_id": "u1", "credits": "50"}
}`

func TestPaymentUC_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("valid checkout credits the user", func(t *testing.T) {
		f := newPaymentFixture()
		body, sig := signedBody(checkoutBody)

		result, err := f.uc.Ingest(ctx, body, sig)
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if result != IngestApplied {
			t.Fatalf("result: %s", result)
		}
		if f.ledger.balances["u1"] != 50 {
			t.Fatalf("balance: %d", f.ledger.balances["u1"])
		}
		rec, err := f.events.FindByEventID(ctx, nil, "evt_1")
		if err != nil {
			t.Fatalf("marker: %v", err)
		}
		if !rec.Processed {
			t.Fatal("marker not processed")
		}
	})

	t.Run("bad signature rejected before any write", func(t *testing.T) {
		f := newPaymentFixture()
		body, _ := signedBody(checkoutBody)

		_, err := f.uc.Ingest(ctx, body, "deadbeef")
		if !errors.Is(err, domain.ErrBadSignature) {
			t.Fatalf("want ErrBadSignature, got %v", err)
		}
		if len(f.events.records) != 0 {
			t.Fatal("marker written despite bad signature")
		}
		if f.ledger.balances["u1"] != 0 {
			t.Fatal("credits applied despite bad signature")
		}
	})

	t.Run("duplicate delivery credits once", func(t *testing.T) {
		f := newPaymentFixture()
		body, sig := signedBody(checkoutBody)

		if _, err := f.uc.Ingest(ctx, body, sig); err != nil {
			t.Fatalf("first delivery: %v", err)
		}
		result, err := f.uc.Ingest(ctx, body, sig)
		if err != nil {
			t.Fatalf("second delivery: %v", err)
		}
		if result != IngestDuplicate {
			t.Fatalf("result: %s", result)
		}
		if f.ledger.balances["u1"] != 50 {
			t.Fatalf("double credit: balance=%d", f.ledger.balances["u1"])
		}
		if n := f.ledger.countByType("u1", model.TxTypePurchase); n != 1 {
			t.Fatalf("purchase entries: %d", n)
		}
	})

	t.Run("marker present but unprocessed still credits once", func(t *testing.T) {
		// Simulates a crash after the marker insert but before the credit.
		f := newPaymentFixture()
		body, sig := signedBody(checkoutBody)

		if _, err := f.uc.Ingest(ctx, body, sig); err != nil {
			t.Fatalf("first delivery: %v", err)
		}
		f.events.records["evt_1"].Processed = false

		result, err := f.uc.Ingest(ctx, body, sig)
		if err != nil {
			t.Fatalf("redelivery: %v", err)
		}
		if result != IngestDuplicate {
			t.Fatalf("result: %s", result)
		}
		if f.ledger.balances["u1"] != 50 {
			t.Fatalf("double credit: balance=%d", f.ledger.balances["u1"])
		}
	})

	t.Run("unrelated event type acknowledged and ignored", func(t *testing.T) {
		f := newPaymentFixture()
		body, sig := signedBody(`{"id":"evt_2","type":"invoice.created","payment_status":"paid"}`)

		result, err := f.uc.Ingest(ctx, body, sig)
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if result != IngestIgnored {
			t.Fatalf("result: %s", result)
		}
		rec, _ := f.events.FindByEventID(ctx, nil, "evt_2")
		if rec == nil || !rec.Processed {
			t.Fatal("ignored event not marked processed")
		}
	})

	t.Run("unpaid checkout ignored", func(t *testing.T) {
		f := newPaymentFixture()
		body, sig := signedBody(`{"id":"evt_3","type":"checkout.completed","payment_status":"pending","metadata":{"user_id":"u1","credits":"50"}}`)

		result, err := f.uc.Ingest(ctx, body, sig)
		if err != nil {
			t.Fatalf("ingest: %v", err)
		}
		if result != IngestIgnored {
			t.Fatalf("result: %s", result)
		}
		if f.ledger.balances["u1"] != 0 {
			t.Fatal("credited an unpaid checkout")
		}
	})

	t.Run("missing metadata rejected", func(t *testing.T) {
		for name, body := range map[string]string{
			"no user_id":       `{"id":"evt_4","type":"checkout.completed","payment_status":"paid","metadata":{"credits":"50"}}`,
			"no credits":       `{"id":"evt_5","type":"checkout.completed","payment_status":"paid","metadata":{"user_id":"u1"}}`,
			"zero credits":     `{"id":"evt_6","type":"checkout.completed","payment_status":"paid","metadata":{"user_id":"u1","credits":"0"}}`,
			"negative credits": `{"id":"evt_7","type":"checkout.completed","payment_status":"paid","metadata":{"user_id":"u1","credits":"-5"}}`,
			"garbage credits":  `{"id":"evt_8","type":"checkout.completed","payment_status":"paid","metadata":{"user_id":"u1","credits":"many"}}`,
		} {
			t.Run(name, func(t *testing.T) {
				f := newPaymentFixture()
				b, sig := signedBody(body)
				if _, err := f.uc.Ingest(ctx, b, sig); !errors.Is(err, domain.ErrInvalidPayload) {
					t.Fatalf("want ErrInvalidPayload, got %v", err)
				}
				if f.ledger.balances["u1"] != 0 {
					t.Fatal("credits applied from invalid metadata")
				}
			})
		}
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		f := newPaymentFixture()
		b, sig := signedBody(`{not json`)
		if _, err := f.uc.Ingest(ctx, b, sig); !errors.Is(err, domain.ErrInvalidPayload) {
			t.Fatalf("want ErrInvalidPayload, got %v", err)
		}
	})
}
