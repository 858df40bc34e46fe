package model

import "testing"

func TestJobStateIsTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
	}{
		{JobStateEnqueued, false},
		{JobStateRunning, false},
		{JobStateComplete, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestJobStateTransitions(t *testing.T) {
	tests := []struct {
		from, to JobState
		ok       bool
	}{
		{JobStateEnqueued, JobStateRunning, true},
		{JobStateRunning, JobStateComplete, true},
		{JobStateEnqueued, JobStateComplete, false},
		{JobStateComplete, JobStateRunning, false},
		{JobStateComplete, JobStateEnqueued, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("CanTransitionTo(%s → %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestStatusComplete(t *testing.T) {
	bare := Status{UUID: "abc"}
	if bare.Complete() || bare.Succeeded() {
		t.Error("bare uuid status must not be complete or successful")
	}

	st := Status{
		UUID: "abc",
		Steps: []StepRecord{
			{Description: "d", State: JobStateEnqueued, Success: JobSuccessUndefined},
			{Description: "d", State: JobStateRunning, Success: JobSuccessUndefined},
			{Description: "d", State: JobStateComplete, Success: JobSuccessSuccess},
		},
	}
	if !st.Complete() {
		t.Error("status with terminal last step should be complete")
	}
	if !st.Succeeded() {
		t.Error("status with SUCCESS last step should report success")
	}

	st.Steps[2].Success = JobSuccessFailure
	if st.Succeeded() {
		t.Error("status with FAILURE last step should not report success")
	}
}
