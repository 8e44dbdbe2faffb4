package model

import "time"

type EventType string

const (
	EventConnected    EventType = "connected"
	EventJobQueued    EventType = "job_queued"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
)

// Event is a push frame delivered to live subscribers. It is never persisted.
type Event struct {
	Type      EventType   `json:"type"`
	JobID     string      `json:"jobId,omitempty"`
	Status    JobStatus   `json:"status,omitempty"`
	Result    *BiasResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func NewConnectedEvent(now time.Time) Event {
	return Event{Type: EventConnected, Timestamp: now.UnixMilli()}
}

// EventForJob builds the event matching the job's current status.
func EventForJob(j *Job, now time.Time) Event {
	e := Event{JobID: j.ID, Status: j.Status, Timestamp: now.UnixMilli()}
	switch j.Status {
	case JobStatusCompleted:
		e.Type = EventJobCompleted
		e.Result = j.Result
	case JobStatusFailed:
		e.Type = EventJobFailed
		e.Error = j.Error
	default:
		e.Type = EventJobQueued
	}
	return e
}
