package model

import (
	"strings"
	"time"

	"fashion-ai-studio/internal/domain"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further automatic transition may occur.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

type GenerationType string

const (
	GenerationTypeStandard    GenerationType = "standard"
	GenerationTypeHighQuality GenerationType = "high_quality"
	GenerationTypeVideo       GenerationType = "video"
)

// GenerationCosts maps each generation type to its credit price.
var GenerationCosts = map[GenerationType]int64{
	GenerationTypeStandard:    10,
	GenerationTypeHighQuality: 20,
	GenerationTypeVideo:       50,
}

// ValidModelPresets enumerates the presets the generation pipeline accepts.
var ValidModelPresets = []string{"fashion_model_v1", "fashion_female", "fashion_male"}

const (
	MaxPromptLength         = 1000
	MaxNegativePromptLength = 1000
	DefaultModelPreset      = "fashion_model_v1"
	DefaultMaxAttempts      = 3
)

// GenerationJob is the queue's mutable state record. Status transitions go
// through the repository's conditional updates only.
type GenerationJob struct {
	ID              string
	UserID          string
	Status          JobStatus
	InputAssetID    *string
	Prompt          string
	NegativePrompt  string
	ModelPreset     string
	PosePreset      string
	ScenePreset     string
	Params          map[string]interface{}
	GenerationType  GenerationType
	CostCredits     int64
	CreditsReserved bool
	Attempts        int
	MaxAttempts     int
	WorkerID        string
	Provider        string
	QueuedAt        time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	ErrorMessage    string
	OutputAssetIDs  []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobDraft carries validated client input into the queue.
type JobDraft struct {
	UserID         string
	InputAssetID   *string
	Prompt         string
	NegativePrompt string
	ModelPreset    string
	PosePreset     string
	ScenePreset    string
	Params         map[string]interface{}
	GenerationType GenerationType
}

// Validate normalizes and checks the draft against the fixed constants.
func (d *JobDraft) Validate() error {
	d.Prompt = strings.TrimSpace(d.Prompt)
	d.NegativePrompt = strings.TrimSpace(d.NegativePrompt)

	if d.UserID == "" {
		return domain.ErrInvalidArgument
	}
	if d.Prompt == "" {
		return domain.ErrInvalidArgument
	}
	if len(d.Prompt) > MaxPromptLength {
		return domain.ErrInvalidArgument
	}
	if len(d.NegativePrompt) > MaxNegativePromptLength {
		return domain.ErrInvalidArgument
	}
	if d.GenerationType == "" {
		d.GenerationType = GenerationTypeStandard
	}
	if _, ok := GenerationCosts[d.GenerationType]; !ok {
		return domain.ErrInvalidArgument
	}
	if d.ModelPreset == "" {
		d.ModelPreset = DefaultModelPreset
	}
	valid := false
	for _, p := range ValidModelPresets {
		if p == d.ModelPreset {
			valid = true
			break
		}
	}
	if !valid {
		return domain.ErrInvalidArgument
	}
	return nil
}

// Cost returns the credit price of the drafted generation.
func (d *JobDraft) Cost() int64 { return GenerationCosts[d.GenerationType] }

// NewGenerationJob builds a queued job from a validated draft. The ID is
// minted up front so reservation idempotency keys can be derived from it
// before the row exists.
func NewGenerationJob(id string, d *JobDraft) (*GenerationJob, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &GenerationJob{
		ID:              id,
		UserID:          d.UserID,
		Status:          JobStatusQueued,
		InputAssetID:    d.InputAssetID,
		Prompt:          d.Prompt,
		NegativePrompt:  d.NegativePrompt,
		ModelPreset:     d.ModelPreset,
		PosePreset:      d.PosePreset,
		ScenePreset:     d.ScenePreset,
		Params:          d.Params,
		GenerationType:  d.GenerationType,
		CostCredits:     d.Cost(),
		CreditsReserved: true,
		MaxAttempts:     DefaultMaxAttempts,
		QueuedAt:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ReserveKey is the idempotency key for the initial credit reservation.
func ReserveKey(jobID string) string { return "job_reserve_" + jobID }

// CreateFailRefundKey compensates a reservation when job persistence fails.
func CreateFailRefundKey(jobID string) string { return "job_refund_create_fail_" + jobID }

// FailRefundKey refunds a job that exhausted its attempts. Deriving the key
// from the job ID makes the refund apply at most once no matter how many
// times finalize is retried.
func FailRefundKey(jobID string) string { return "job_fail_refund_" + jobID }
