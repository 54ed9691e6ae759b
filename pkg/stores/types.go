package stores

import "time"

// RunStatus is the terminal status of a reconcile run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one invocation of apply/destroy/watch over a manifest.
type Run struct {
	ID           string     `json:"id"`
	ManifestPath string     `json:"manifest_path"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        *string    `json:"error,omitempty"`
}

// Result records the outcome of one resource within a run.
type Result struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	ResourceType string    `json:"resource_type"`
	Key          string    `json:"key"`
	Outcome      string    `json:"outcome"`
	Changed      bool      `json:"changed"`
	Diff         *string   `json:"diff,omitempty"` // JSON blob
	Error        *string   `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
