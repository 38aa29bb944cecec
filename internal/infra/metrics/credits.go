package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(creditsMovedTotal, reservationDenied, idempotentReplays)
}

var creditsMovedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "credits_moved_total",
		Help: "Credits applied to the ledger, labeled by transaction type.",
	},
	[]string{"tx_type"}, // 'purchase', 'spend', 'refund', 'bonus', 'adjustment'
)

var reservationDenied = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "credit_reservations_denied_total",
		Help: "Reservations rejected for insufficient balance.",
	},
)

var idempotentReplays = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "credit_idempotent_replays_total",
		Help: "Ledger operations that resolved to an already-applied outcome.",
	},
	[]string{"op"}, // 'reserve', 'release', 'credit'
)

func AddCreditsMoved(txType string, amount int64) {
	creditsMovedTotal.WithLabelValues(norm(txType)).Add(float64(amount))
}

func IncReservationDenied() { reservationDenied.Inc() }

func IncIdempotentReplay(op string) { idempotentReplays.WithLabelValues(norm(op)).Inc() }
