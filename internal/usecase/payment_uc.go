package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
	"fashion-ai-studio/internal/infra/metrics"
	"fashion-ai-studio/internal/infra/payment"
)

// IngestResult tells the HTTP layer how the event was disposed of. Every
// non-error result must be acknowledged with 2xx so the provider stops
// redelivering.
type IngestResult string

const (
	IngestApplied   IngestResult = "applied"
	IngestDuplicate IngestResult = "duplicate"
	IngestIgnored   IngestResult = "ignored"
)

var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Ingest verifies, records and applies a raw webhook delivery.
	Ingest(ctx context.Context, body []byte, signature string) (IngestResult, error)
}

type paymentUC struct {
	events  repository.PaymentEventRepository
	credits CreditUseCase
	secret  string
	log     *zerolog.Logger
}

func NewPaymentUseCase(events repository.PaymentEventRepository, credits CreditUseCase, webhookSecret string, logger *zerolog.Logger) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{events: events, credits: credits, secret: webhookSecret, log: &l}
}

func (u *paymentUC) Ingest(ctx context.Context, body []byte, signature string) (IngestResult, error) {
	if !payment.VerifySignature(u.secret, body, signature) {
		metrics.IncWebhookEvent("bad_signature")
		return "", domain.ErrBadSignature
	}

	ev, err := payment.DecodeEvent(body)
	if err != nil {
		metrics.IncWebhookEvent("invalid_payload")
		return "", err
	}

	log := u.log.With().Str("event_id", ev.ID).Str("event_type", ev.Type).Logger()

	// Redelivery of an already-processed event is acknowledged without
	// re-running side effects.
	existing, err := u.events.FindByEventID(ctx, nil, ev.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}
	if existing != nil && existing.Processed {
		metrics.IncWebhookEvent("duplicate")
		log.Info().Msg("duplicate payment event, already processed")
		return IngestDuplicate, nil
	}

	if existing == nil {
		rec := &model.PaymentEventRecord{
			EventID:   ev.ID,
			EventType: ev.Type,
			Payload:   ev.Raw,
			CreatedAt: time.Now(),
		}
		// A concurrent delivery may win the insert race; that is fine, the
		// ledger's own idempotency still guards the credit below.
		if err := u.events.Insert(ctx, nil, rec); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return "", err
		}
	}

	if ev.Type != model.EventTypeCheckoutCompleted || ev.PaymentStatus != model.PaymentStatusPaid {
		if err := u.events.MarkProcessed(ctx, nil, ev.ID, time.Now()); err != nil {
			log.Warn().Err(err).Msg("mark processed failed")
		}
		metrics.IncWebhookEvent("ignored")
		log.Info().Msg("payment event ignored")
		return IngestIgnored, nil
	}

	userID, credits, err := checkoutGrant(ev)
	if err != nil {
		metrics.IncWebhookEvent("invalid_payload")
		return "", err
	}

	outcome, err := u.credits.Credit(ctx, userID, credits, ev.ID,
		fmt.Sprintf("Credit purchase (%d credits)", credits))
	if err != nil {
		return "", err
	}

	if err := u.events.MarkProcessed(ctx, nil, ev.ID, time.Now()); err != nil {
		// The credit is already durable and keyed by event id; a missed
		// marker only costs one extra replay lookup on redelivery.
		log.Warn().Err(err).Msg("mark processed failed")
	}

	if outcome.AlreadyApplied {
		metrics.IncWebhookEvent("duplicate")
		log.Info().Str("user_id", userID).Msg("credit purchase replayed")
		return IngestDuplicate, nil
	}
	metrics.IncWebhookEvent("applied")
	log.Info().Str("user_id", userID).Int64("credits", credits).Int64("new_balance", outcome.NewBalance).
		Msg("credit purchase applied")
	return IngestApplied, nil
}

// checkoutGrant extracts the grant target from event metadata. Both fields
// are required; malformed events must be rejected, not silently dropped.
func checkoutGrant(ev *model.CheckoutEvent) (string, int64, error) {
	userID := ev.Metadata["user_id"]
	if userID == "" {
		return "", 0, domain.ErrInvalidPayload
	}
	credits, err := strconv.ParseInt(ev.Metadata["credits"], 10, 64)
	if err != nil || credits <= 0 {
		return "", 0, domain.ErrInvalidPayload
	}
	return userID, credits, nil
}
