package model

import "time"

// PaymentEventRecord marks an externally delivered payment event. One row per
// provider event id; the marker is inserted before any side effect so a crash
// mid-processing still leaves a durable trace, and Processed flips exactly
// once.
type PaymentEventRecord struct {
	ID          int64
	EventID     string
	EventType   string
	Payload     map[string]interface{}
	Processed   bool
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// CheckoutEvent is the decoded shape of a provider "checkout completed"
// notification. Metadata carries the internal user id and purchased credits.
type CheckoutEvent struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	PaymentStatus string                 `json:"payment_status"`
	Metadata      map[string]string      `json:"metadata"`
	Raw           map[string]interface{} `json:"-"`
}

const (
	EventTypeCheckoutCompleted = "checkout.completed"
	PaymentStatusPaid          = "paid"
)

// CreditPack is a purchasable bundle of credits. The catalog is consulted by
// the seed tool and by webhook descriptions; checkout itself happens on the
// provider side.
type CreditPack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Credits    int64  `json:"credits"`
	PriceCents int64  `json:"price_cents"`
}

var CreditPacks = map[string]CreditPack{
	"pack_10":  {ID: "pack_10", Name: "10 Credits", Credits: 10, PriceCents: 999},
	"pack_50":  {ID: "pack_50", Name: "50 Credits", Credits: 50, PriceCents: 3999},
	"pack_100": {ID: "pack_100", Name: "100 Credits", Credits: 100, PriceCents: 6999},
	"pack_500": {ID: "pack_500", Name: "500 Credits", Credits: 500, PriceCents: 29999},
}
