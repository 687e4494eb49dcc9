package queue

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

type Priority int

// Higher value sorts first.
const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 1
	PriorityHigh   Priority = 2
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityLow:
		return "low"
	default:
		return "normal"
	}
}

// ParsePriority maps the control-surface string to a Priority,
// defaulting to normal.
func ParsePriority(s string) Priority {
	switch s {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// JobRef is the minimal listing reference an item carries.
type JobRef struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	HasEasyApply bool   `json:"has_easy_apply"`
}

// Item is one unit of "apply to this job" work.
type Item struct {
	ID            string    `json:"id"`
	Job           JobRef    `json:"job"`
	Status        Status    `json:"status"`
	Priority      Priority  `json:"priority"`
	Attempts      int       `json:"attempts"`
	MaxAttempts   int       `json:"max_attempts"`
	LastError     string    `json:"last_error,omitempty"`
	AddedAt       time.Time `json:"added_at"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
	FailedAt      time.Time `json:"failed_at,omitzero"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitzero"`
}

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// HistoryEntry is an append-only record of a finished attempt. The
// ledger doubles as the rate limiter's event source.
type HistoryEntry struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	JobTitle   string    `json:"job_title,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Outcome    Outcome   `json:"outcome"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// StatusSummary is the read-only projection served to the control surface.
type StatusSummary struct {
	Total        int  `json:"total"`
	Pending      int  `json:"pending"`
	Processing   int  `json:"processing"`
	Failed       int  `json:"failed"`
	IsProcessing bool `json:"is_processing"`
}
