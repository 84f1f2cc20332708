package audit

import "time"

// TimestampFormat is the layout used in file-log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Result classifies the outcome recorded in an audit event.
type Result string

const (
	ResultAllowed  Result = "allowed"
	ResultDenied   Result = "denied"
	ResultApproved Result = "approved"
	ResultRejected Result = "rejected"
)

// Event is one immutable audit record: a gate decision or an execution
// outcome. Created once, appended, never mutated or deleted here;
// retention and export are external concerns.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"ts"`
	Tool       string    `json:"tool"`
	Action     string    `json:"action"`
	Params     string    `json:"params,omitempty"`
	Result     Result    `json:"result"`
	Reason     string    `json:"reason,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Session is the lifecycle bookend record correlating events.
type Session struct {
	ID          string     `json:"id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Workspace   string     `json:"workspace,omitempty"`
	ActionCount int64      `json:"action_count"`
}

// Filter selects events for a query. Zero values mean "no constraint".
type Filter struct {
	Tool   string
	UserID string
	Result Result
	Since  time.Time
	Until  time.Time
	Limit  int
}

// MaxQueryLimit caps query responses regardless of the requested limit.
const MaxQueryLimit = 1000
