package model

import "time"

type JobEventType string

const (
	JobEventCreated   JobEventType = "created"
	JobEventPickedUp  JobEventType = "picked_up"
	JobEventCompleted JobEventType = "completed"
	JobEventRetry     JobEventType = "retry"
	JobEventFailed    JobEventType = "failed"
	JobEventCancelled JobEventType = "cancelled"
)

// JobEvent is the append-only audit trail of job lifecycle transitions.
// Business logic never reads these rows back; they exist for debugging.
type JobEvent struct {
	ID        int64
	JobID     string
	EventType JobEventType
	Details   map[string]interface{}
	CreatedAt time.Time
}

func NewJobEvent(jobID string, eventType JobEventType, details map[string]interface{}) *JobEvent {
	return &JobEvent{
		JobID:     jobID,
		EventType: eventType,
		Details:   details,
		CreatedAt: time.Now(),
	}
}
