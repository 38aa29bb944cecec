package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookEventsTotal)
}

var webhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Inbound payment events, labeled by processing result.",
	},
	[]string{"result"}, // 'credited', 'duplicate', 'ignored', 'bad_signature', 'invalid'
)

func IncWebhookEvent(result string) { webhookEventsTotal.WithLabelValues(norm(result)).Inc() }
