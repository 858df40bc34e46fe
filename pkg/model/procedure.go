package model

import "time"

// StepRecord is one entry in a procedure's append-only execution
// history. A record is appended for every job state transition, so a
// successful single-job procedure shows ENQUEUED, RUNNING and COMPLETE
// records carrying the same description.
type StepRecord struct {
	Description string     `json:"description"`
	State       JobState   `json:"state"`
	Success     JobSuccess `json:"success"`
	Diagnosis   []string   `json:"diagnosis,omitempty"`
	When        time.Time  `json:"when"`
}

// Status is the wire shape reported for a dispatched command: a bare
// uuid when the caller did not wait (Steps nil), or the full triple of
// uuid, step history and result once the procedure is terminal.
//
// Result is only meaningful in the full shape; callers must not inspect
// it for a procedure that may still be running.
type Status struct {
	UUID   string       `json:"uuid"`
	Steps  []StepRecord `json:"steps,omitempty"`
	Result any          `json:"result,omitempty"`
}

// Complete reports whether the status describes a terminal procedure,
// judged by the last step of the history.
func (s Status) Complete() bool {
	if len(s.Steps) == 0 {
		return false
	}
	return s.Steps[len(s.Steps)-1].State == JobStateComplete
}

// Succeeded reports whether the last step of the history completed
// successfully.
func (s Status) Succeeded() bool {
	if len(s.Steps) == 0 {
		return false
	}
	return s.Steps[len(s.Steps)-1].Success == JobSuccessSuccess
}
