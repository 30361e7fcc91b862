package models

// Extraction run states. Transitions: idle -> running(0..N) -> completed or
// error; a fresh run resets to running(0).
const (
	ExtractionStateIdle      = "idle"
	ExtractionStateRunning   = "running"
	ExtractionStateCompleted = "completed"
	ExtractionStateError     = "error"
)

// ExtractionProgress is the observable state of a bulk extraction run.
// Completed counts finished endpoints; during a run Endpoint names the one
// currently being fetched.
type ExtractionProgress struct {
	State     string `json:"state"`
	Endpoint  string `json:"endpoint,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Message   string `json:"message,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

// IsTerminal reports whether the run has finished, successfully or not.
func (p ExtractionProgress) IsTerminal() bool {
	return p.State == ExtractionStateCompleted || p.State == ExtractionStateError
}
