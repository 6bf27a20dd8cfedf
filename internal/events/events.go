package events

import "time"

// Type enumerates the status events emitted during a generation run.
type Type string

const (
	TypeStatus        Type = "status"
	TypeSceneReady    Type = "scene_ready"
	TypeRunComplete   Type = "run_complete"
	TypeRunFailed     Type = "run_failed"
	TypeQuotaExceeded Type = "quota_exceeded"
)

// Event is one status update from the orchestrator, mirrored to every
// connected client. Scene and Total are populated only for per-scene events.
type Event struct {
	Type    Type      `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Scene   int       `json:"scene,omitempty"`
	Total   int       `json:"total,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
