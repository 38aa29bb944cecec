//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
)

type jobUCFixture struct {
	ledger *memLedgerRepo
	jobs   *memJobRepo
	events *memJobEventRepo
	assets *memAssetRepo
	uc     JobUseCase
}

func newJobUCFixture(balance int64) *jobUCFixture {
	ledger := newMemLedgerRepo()
	ledger.balances["u1"] = balance
	jobs := newMemJobRepo()
	events := newMemJobEventRepo()
	assets := newMemAssetRepo()
	credits := newCreditUC(ledger)
	return &jobUCFixture{
		ledger: ledger,
		jobs:   jobs,
		events: events,
		assets: assets,
		uc:     NewJobUseCase(jobs, events, assets, credits, 3, newLogger()),
	}
}

func standardDraft() *model.JobDraft {
	return &model.JobDraft{
		UserID:         "u1",
		Prompt:         "red dress on runway",
		GenerationType: model.GenerationTypeStandard,
	}
}

func TestJobUC_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves cost and enqueues", func(t *testing.T) {
		f := newJobUCFixture(100)

		job, remaining, err := f.uc.Create(ctx, standardDraft())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if job.Status != model.JobStatusQueued {
			t.Fatalf("status: %s", job.Status)
		}
		if job.CostCredits != 10 || remaining != 90 {
			t.Fatalf("cost=%d remaining=%d", job.CostCredits, remaining)
		}
		if job.MaxAttempts != 3 {
			t.Fatalf("max attempts: %d", job.MaxAttempts)
		}
		stored, err := f.jobs.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatalf("stored job: %v", err)
		}
		if !stored.CreditsReserved {
			t.Fatal("credits_reserved not set")
		}
		got := f.events.types(job.ID)
		if len(got) != 1 || got[0] != model.JobEventCreated {
			t.Fatalf("events: %v", got)
		}
	})

	t.Run("video costs 50", func(t *testing.T) {
		f := newJobUCFixture(100)
		d := standardDraft()
		d.GenerationType = model.GenerationTypeVideo

		job, remaining, err := f.uc.Create(ctx, d)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if job.CostCredits != 50 || remaining != 50 {
			t.Fatalf("cost=%d remaining=%d", job.CostCredits, remaining)
		}
	})

	t.Run("insufficient credits rejects before enqueue", func(t *testing.T) {
		f := newJobUCFixture(5)

		_, _, err := f.uc.Create(ctx, standardDraft())
		if !errors.Is(err, domain.ErrInsufficientCredits) {
			t.Fatalf("want ErrInsufficientCredits, got %v", err)
		}
		if len(f.jobs.jobs) != 0 {
			t.Fatalf("job persisted despite denial")
		}
		if b, _ := f.ledger.GetBalance(ctx, nil, "u1"); b.Balance != 5 {
			t.Fatalf("balance changed: %d", b.Balance)
		}
	})

	t.Run("persist failure refunds the reservation", func(t *testing.T) {
		f := newJobUCFixture(100)
		f.jobs.errCreate = errors.New("db down")

		_, _, err := f.uc.Create(ctx, standardDraft())
		if err == nil {
			t.Fatal("expected error")
		}
		if b, _ := f.ledger.GetBalance(ctx, nil, "u1"); b.Balance != 100 {
			t.Fatalf("reservation not compensated: balance=%d", b.Balance)
		}
		if n := f.ledger.countByType("u1", model.TxTypeRefund); n != 1 {
			t.Fatalf("want 1 refund entry, got %d", n)
		}
	})

	t.Run("prompt over limit rejected", func(t *testing.T) {
		f := newJobUCFixture(100)
		d := standardDraft()
		d.Prompt = strings.Repeat("x", model.MaxPromptLength+1)

		if _, _, err := f.uc.Create(ctx, d); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown model preset rejected", func(t *testing.T) {
		f := newJobUCFixture(100)
		d := standardDraft()
		d.ModelPreset = "not_a_preset"

		if _, _, err := f.uc.Create(ctx, d); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("input asset must belong to the caller", func(t *testing.T) {
		f := newJobUCFixture(100)
		foreign := "asset-1"
		f.assets.assets[foreign] = &model.Asset{ID: foreign, UserID: "someone-else", AssetType: model.AssetTypeInput}

		d := standardDraft()
		d.InputAssetID = &foreign
		if _, _, err := f.uc.Create(ctx, d); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}

		owned := "asset-2"
		f.assets.assets[owned] = &model.Asset{ID: owned, UserID: "u1", AssetType: model.AssetTypeInput}
		d.InputAssetID = &owned
		if _, _, err := f.uc.Create(ctx, d); err != nil {
			t.Fatalf("owned asset rejected: %v", err)
		}
	})
}

func TestJobUC_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("queued job cancels", func(t *testing.T) {
		f := newJobUCFixture(100)
		job, _, err := f.uc.Create(ctx, standardDraft())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := f.uc.Cancel(ctx, job.ID, "u1"); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		got, _ := f.jobs.FindByID(ctx, nil, job.ID)
		if got.Status != model.JobStatusCancelled {
			t.Fatalf("status: %s", got.Status)
		}
	})

	t.Run("processing job refuses cancellation", func(t *testing.T) {
		f := newJobUCFixture(100)
		job, _, err := f.uc.Create(ctx, standardDraft())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := f.jobs.ClaimOne(ctx, "worker_beef0001"); err != nil {
			t.Fatalf("claim: %v", err)
		}
		if err := f.uc.Cancel(ctx, job.ID, "u1"); !errors.Is(err, domain.ErrJobTerminal) {
			t.Fatalf("want ErrJobTerminal, got %v", err)
		}
	})

	t.Run("foreign job refuses cancellation", func(t *testing.T) {
		f := newJobUCFixture(100)
		job, _, err := f.uc.Create(ctx, standardDraft())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := f.uc.Cancel(ctx, job.ID, "intruder"); err == nil {
			t.Fatal("expected error")
		}
	})
}
