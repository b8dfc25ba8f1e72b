package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	RunStarted         Type = "RunStarted"
	ToolSelected       Type = "ToolSelected"
	ExecutionStarted   Type = "ExecutionStarted"
	ExecutionFinished  Type = "ExecutionFinished"
	ValidationFinished Type = "ValidationFinished"
	HealthChecked      Type = "HealthChecked"
	RunFinished        Type = "RunFinished"
	RunError           Type = "RunError"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with the current time.
func New(t Type, payload any) Event {
	return Event{Type: t, Timestamp: time.Now(), Payload: payload}
}

// RunStartedPayload is emitted at the beginning of a run.
type RunStartedPayload struct {
	Version    string    `json:"version"`
	RunID      string    `json:"run_id"`
	WorkingDir string    `json:"working_dir"`
	Complexity string    `json:"complexity"`
	StartedAt  time.Time `json:"started_at"`
}

// ToolSelectedPayload names the adapter chosen for the task.
type ToolSelectedPayload struct {
	Tool     string `json:"tool"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
	Auto     bool   `json:"auto"`
}

// ExecutionStartedPayload marks the start of an Execute call.
type ExecutionStartedPayload struct {
	Tool           string   `json:"tool"`
	Files          []string `json:"files,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	MaxRetries     int      `json:"max_retries"`
}

// ExecutionFinishedPayload summarizes the result of an Execute call.
type ExecutionFinishedPayload struct {
	Tool          string   `json:"tool"`
	Success       bool     `json:"success"`
	Failure       string   `json:"failure,omitempty"`
	Error         string   `json:"error,omitempty"`
	TokensUsed    int      `json:"tokens_used"`
	Cost          float64  `json:"cost"`
	DurationMs    int64    `json:"duration_ms"`
	FilesModified []string `json:"files_modified,omitempty"`
}

// ValidationFinishedPayload reports the outcome of output validation.
type ValidationFinishedPayload struct {
	Passed bool     `json:"passed"`
	Checks []string `json:"checks"`
	Failed []string `json:"failed,omitempty"`
}

// HealthCheckedPayload reports one adapter probe.
type HealthCheckedPayload struct {
	Tool       string `json:"tool"`
	Healthy    bool   `json:"healthy"`
	DurationMs int64  `json:"duration_ms"`
}

// RunFinishedPayload closes the run.
type RunFinishedPayload struct {
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunErrorPayload records a run error.
type RunErrorPayload struct {
	Message string `json:"message"`
}
