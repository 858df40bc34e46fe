package model

// JobState represents the lifecycle state of a Job.
type JobState string

const (
	JobStateEnqueued JobState = "ENQUEUED"
	JobStateRunning  JobState = "RUNNING"
	JobStateComplete JobState = "COMPLETE"
)

// String returns the string representation of the job state.
func (s JobState) String() string {
	return string(s)
}

// IsTerminal returns true if the job is in a final state.
func (s JobState) IsTerminal() bool {
	return s == JobStateComplete
}

// ValidJobTransitions defines the allowed state transitions for Jobs.
// COMPLETE is terminal; there is no retry state. A retry, if desired,
// is a new procedure scheduled by the caller.
var ValidJobTransitions = map[JobState][]JobState{
	JobStateEnqueued: {JobStateRunning},
	JobStateRunning:  {JobStateComplete},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s JobState) CanTransitionTo(next JobState) bool {
	for _, allowed := range ValidJobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// JobSuccess classifies a completed job. It is only meaningful once the
// job state is COMPLETE; earlier reads race with the running job.
type JobSuccess string

const (
	JobSuccessUndefined JobSuccess = "UNDEFINED"
	JobSuccessSuccess   JobSuccess = "SUCCESS"
	JobSuccessFailure   JobSuccess = "FAILURE"
)

// String returns the string representation of the success flag.
func (s JobSuccess) String() string {
	return string(s)
}
