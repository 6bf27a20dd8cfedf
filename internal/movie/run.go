package movie

import "time"

// State enumerates the orchestrator lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// ErrorKind classifies a failed run for the UI: quota failures get a
// dedicated affordance, API failures show the backend message, anything else
// is surfaced verbatim.
type ErrorKind string

const (
	ErrorKindNone  ErrorKind = ""
	ErrorKindQuota ErrorKind = "quota"
	ErrorKindAPI   ErrorKind = "api"
	ErrorKindOther ErrorKind = "other"
)

// Run is a snapshot of the current (or last) generation run.
type Run struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Status     string    `json:"status"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	SceneCount int       `json:"scene_count"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}
