package model

import "time"

// ProjectedStatus is the client-facing read model of a job.
type ProjectedStatus struct {
	JobID        string     `json:"job_id"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"`
	Prompt       string     `json:"prompt"`
	ModelPreset  string     `json:"model_preset"`
	CostCredits  int64      `json:"cost_credits"`
	Attempts     int        `json:"attempts"`
	QueuedAt     time.Time  `json:"queued_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	OutputURLs   []string   `json:"output_urls"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EstimateProgress maps job state to a monotonic percentage. Processing jobs
// interpolate on elapsed time since start, clamped to [10,90] so the bar
// never reaches done before finalize.
func EstimateProgress(status JobStatus, startedAt *time.Time, queuedAt time.Time, now time.Time) int {
	switch status {
	case JobStatusPending:
		return 0
	case JobStatusQueued:
		return 10
	case JobStatusProcessing:
		ref := queuedAt
		if startedAt != nil {
			ref = *startedAt
		}
		elapsed := now.Sub(ref)
		p := 10 + int(elapsed.Milliseconds()/300)
		if p > 90 {
			p = 90
		}
		if p < 10 {
			p = 10
		}
		return p
	case JobStatusCompleted:
		return 100
	default: // failed, cancelled
		return 0
	}
}
