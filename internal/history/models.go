package history

import "time"

// Outcome is the terminal state of one dispatched request.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeRenderFailed  Outcome = "render_failed"
	OutcomeComposeFailed Outcome = "compose_failed"
	OutcomeFault         Outcome = "fault"
)

// Failed reports whether the outcome produced no artifact.
func (o Outcome) Failed() bool {
	return o != OutcomeSuccess
}

// Record is one journal row.
type Record struct {
	ID           int64         `json:"id"`
	RequestID    string        `json:"request_id"`
	TargetDir    string        `json:"target_dir"`
	Data         string        `json:"data"`
	Name         string        `json:"name"`
	OutputPath   string        `json:"output_path,omitempty"`
	Outcome      Outcome       `json:"outcome"`
	ErrorKind    string        `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Summary aggregates journal counts for status output.
type Summary struct {
	Total     int        `json:"total"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	LastAt    *time.Time `json:"last_at,omitempty"`
}
