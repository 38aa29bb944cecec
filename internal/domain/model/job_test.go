//go:build !integration

package model_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
)

func TestJobDraft_Validate(t *testing.T) {
	valid := func() *model.JobDraft {
		return &model.JobDraft{UserID: "u1", Prompt: "red dress"}
	}

	t.Run("defaults applied", func(t *testing.T) {
		d := valid()
		if err := d.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if d.GenerationType != model.GenerationTypeStandard {
			t.Fatalf("generation type: %s", d.GenerationType)
		}
		if d.ModelPreset != model.DefaultModelPreset {
			t.Fatalf("model preset: %s", d.ModelPreset)
		}
		if d.Cost() != 10 {
			t.Fatalf("cost: %d", d.Cost())
		}
	})

	t.Run("prompt is trimmed", func(t *testing.T) {
		d := valid()
		d.Prompt = "  red dress  "
		if err := d.Validate(); err != nil {
			t.Fatalf("validate: %v", err)
		}
		if d.Prompt != "red dress" {
			t.Fatalf("prompt: %q", d.Prompt)
		}
	})

	rejects := []struct {
		name   string
		mutate func(*model.JobDraft)
	}{
		{"empty user", func(d *model.JobDraft) { d.UserID = "" }},
		{"empty prompt", func(d *model.JobDraft) { d.Prompt = "   " }},
		{"prompt too long", func(d *model.JobDraft) { d.Prompt = strings.Repeat("x", model.MaxPromptLength+1) }},
		{"unknown type", func(d *model.JobDraft) { d.GenerationType = "ultra" }},
		{"unknown preset", func(d *model.JobDraft) { d.ModelPreset = "nope" }},
	}
	for _, tc := range rejects {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			tc.mutate(d)
			if err := d.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestGenerationCosts(t *testing.T) {
	want := map[model.GenerationType]int64{
		model.GenerationTypeStandard:    10,
		model.GenerationTypeHighQuality: 20,
		model.GenerationTypeVideo:       50,
	}
	for typ, cost := range want {
		if got := model.GenerationCosts[typ]; got != cost {
			t.Fatalf("%s: want %d, got %d", typ, cost, got)
		}
	}
}

func TestIdempotencyKeys(t *testing.T) {
	if got := model.ReserveKey("j1"); got != "job_reserve_j1" {
		t.Fatalf("reserve key: %q", got)
	}
	if got := model.CreateFailRefundKey("j1"); got != "job_refund_create_fail_j1" {
		t.Fatalf("create-fail refund key: %q", got)
	}
	if got := model.FailRefundKey("j1"); got != "job_fail_refund_j1" {
		t.Fatalf("fail refund key: %q", got)
	}
}

func TestEstimateProgress(t *testing.T) {
	now := time.Now()
	started := now.Add(-15 * time.Second)
	justStarted := now.Add(-50 * time.Millisecond)

	cases := []struct {
		name      string
		status    model.JobStatus
		startedAt *time.Time
		want      int
	}{
		{"pending", model.JobStatusPending, nil, 0},
		{"queued", model.JobStatusQueued, nil, 10},
		{"processing just started", model.JobStatusProcessing, &justStarted, 10},
		{"processing 15s in", model.JobStatusProcessing, &started, 60},
		{"completed", model.JobStatusCompleted, &started, 100},
		{"failed", model.JobStatusFailed, &started, 0},
		{"cancelled", model.JobStatusCancelled, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := model.EstimateProgress(tc.status, tc.startedAt, now.Add(-time.Minute), now)
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}

	t.Run("long processing clamps at 90", func(t *testing.T) {
		old := now.Add(-time.Hour)
		if got := model.EstimateProgress(model.JobStatusProcessing, &old, old, now); got != 90 {
			t.Fatalf("want 90, got %d", got)
		}
	})

	t.Run("nil started falls back to queued_at", func(t *testing.T) {
		queued := now.Add(-3 * time.Second)
		if got := model.EstimateProgress(model.JobStatusProcessing, nil, queued, now); got != 20 {
			t.Fatalf("want 20, got %d", got)
		}
	})
}

func TestJobStatus_IsTerminal(t *testing.T) {
	terminal := []model.JobStatus{model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	live := []model.JobStatus{model.JobStatusPending, model.JobStatusQueued, model.JobStatusProcessing}
	for _, s := range live {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
