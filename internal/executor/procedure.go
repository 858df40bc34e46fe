package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/herd/pkg/model"
)

// JobFunc is the function a scheduled job runs. The returned value
// becomes the procedure's result when the job is the last to complete
// successfully. A returned error marks the job FAILED and terminates
// the procedure; it is never surfaced to the scheduler as an error.
type JobFunc func(ctx context.Context, jc *JobContext) (any, error)

type job struct {
	description string
	fn          JobFunc
}

// Procedure represents one asynchronous invocation of a procedure
// command. It is created at scheduling time, owned by the Executor
// until terminal, and read-only to callers. The step history is
// append-only; the result is frozen once the last job completes.
type Procedure struct {
	id   uuid.UUID
	keys model.LockSet
	done chan struct{}

	mu     sync.Mutex
	steps  []model.StepRecord
	result any
	jobs   []job // remaining jobs, consumed in order by the worker
}

func newProcedure(description string, fn JobFunc, keys model.LockSet) *Procedure {
	p := &Procedure{
		id:   uuid.New(),
		keys: keys,
		done: make(chan struct{}),
		jobs: []job{{description: description, fn: fn}},
	}
	p.appendStep(description, model.JobStateEnqueued, model.JobSuccessUndefined, nil)
	return p
}

// UUID returns the procedure's unique identifier.
func (p *Procedure) UUID() uuid.UUID {
	return p.id
}

// LockKeys returns the lock-key set the procedure was scheduled with.
func (p *Procedure) LockKeys() model.LockSet {
	return p.keys
}

// Status returns a copy of the procedure's step history. Only the
// portion up to a terminal COMPLETE record is stable; callers polling a
// running procedure see a snapshot.
func (p *Procedure) Status() []model.StepRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	steps := make([]model.StepRecord, len(p.steps))
	copy(steps, p.steps)
	return steps
}

// Result returns the procedure's result. It is only meaningful once the
// procedure is terminal.
func (p *Procedure) Result() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Done returns a channel closed when the procedure reaches its terminal
// state.
func (p *Procedure) Done() <-chan struct{} {
	return p.done
}

func (p *Procedure) appendStep(description string, state model.JobState, success model.JobSuccess, diagnosis []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, model.StepRecord{
		Description: description,
		State:       state,
		Success:     success,
		Diagnosis:   diagnosis,
		When:        time.Now().UTC(),
	})
}

func (p *Procedure) setResult(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = v
}

// nextJob pops the next queued job, if any.
func (p *Procedure) nextJob() (job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.jobs) == 0 {
		return job{}, false
	}
	j := p.jobs[0]
	p.jobs = p.jobs[1:]
	return j, true
}

// clearJobs drops any follow-up jobs after a failure.
func (p *Procedure) clearJobs() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = nil
}

// JobContext is handed to a running job. It lets the command enqueue
// follow-up jobs within the same procedure; they execute in enqueue
// order under the same lock keys, which stay held for the procedure's
// whole execution.
type JobContext struct {
	proc *Procedure
}

// Enqueue appends a follow-up job to the current procedure.
func (jc *JobContext) Enqueue(description string, fn JobFunc) {
	jc.proc.mu.Lock()
	jc.proc.jobs = append(jc.proc.jobs, job{description: description, fn: fn})
	jc.proc.mu.Unlock()
	jc.proc.appendStep(description, model.JobStateEnqueued, model.JobSuccessUndefined, nil)
}

// Procedure returns the procedure the job belongs to.
func (jc *JobContext) Procedure() *Procedure {
	return jc.proc
}
