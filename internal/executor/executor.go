package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/me/herd/pkg/model"
)

// ErrStopped is returned by Schedule after the executor has shut down.
var ErrStopped = errors.New("executor stopped")

// Config holds executor configuration.
type Config struct {
	Workers int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Executor is the job queue and lock manager. Procedures whose lock-key
// sets intersect execute in mutually exclusive, FIFO-of-enqueue order;
// procedures with disjoint sets run concurrently on separate workers.
// Keys are held from the moment a procedure's first job starts until
// its last job completes.
type Executor struct {
	logger  *slog.Logger
	config  Config
	baseCtx context.Context

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Procedure // FIFO of procedures waiting for a worker
	held    map[model.LockKey]uuid.UUID
	procs   map[uuid.UUID]*Procedure
	stopped bool
	wg      sync.WaitGroup
}

// New creates an Executor. Call Start before scheduling.
func New(cfg Config, logger *slog.Logger) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	e := &Executor{
		logger: logger.With("component", "executor"),
		config: cfg,
		held:   make(map[model.LockKey]uuid.UUID),
		procs:  make(map[uuid.UUID]*Procedure),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Start launches the worker pool. ctx is passed to every job function;
// cancelling it is the only way to interrupt a running job.
func (e *Executor) Start(ctx context.Context) {
	e.baseCtx = ctx
	e.wg.Add(e.config.Workers)
	for i := 0; i < e.config.Workers; i++ {
		go e.worker(i)
	}
	e.logger.Info("executor started", "workers", e.config.Workers)
}

// Stop shuts the worker pool down and waits for in-flight jobs to
// finish. Procedures still queued are never started; waiters on them
// must use a cancellable context.
func (e *Executor) Stop() {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()
	e.logger.Info("executor stopped")
}

// Schedule enqueues a procedure with the given lock-key set and returns
// its handle. An empty key set falls back to the default sentinel so
// unclassified procedures still serialize against each other.
func (e *Executor) Schedule(description string, fn JobFunc, keys model.LockSet) (*Procedure, error) {
	if len(keys) == 0 {
		keys = model.NewLockSet(model.LockDefault)
	}
	p := newProcedure(description, fn, keys)

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil, ErrStopped
	}
	e.procs[p.id] = p
	e.queue = append(e.queue, p)
	e.mu.Unlock()
	e.cond.Broadcast()

	e.logger.Debug("procedure scheduled", "uuid", p.id, "description", description, "locks", p.keys.Sorted())
	return p, nil
}

// Get returns the procedure with the given uuid, if known.
func (e *Executor) Get(id uuid.UUID) (*Procedure, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.procs[id]
	return p, ok
}

// WaitForProcedure blocks the calling goroutine until the procedure
// reaches its terminal state or ctx is cancelled. There is no internal
// timeout; callers layer one through ctx.
func (e *Executor) WaitForProcedure(ctx context.Context, p *Procedure) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) worker(id int) {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		var proc *Procedure
		for {
			if e.stopped {
				e.mu.Unlock()
				return
			}
			proc = e.nextRunnable()
			if proc != nil {
				break
			}
			e.cond.Wait()
		}
		for k := range proc.keys {
			e.held[k] = proc.id
		}
		e.mu.Unlock()

		e.runProcedure(proc)

		e.mu.Lock()
		for k := range proc.keys {
			delete(e.held, k)
		}
		e.mu.Unlock()
		e.cond.Broadcast()
	}
}

// nextRunnable scans the wait queue in enqueue order and removes the
// first procedure whose keys conflict with neither the held set nor an
// earlier queued procedure. Shadowing the keys of skipped procedures
// keeps FIFO order between procedures with overlapping sets while
// letting disjoint ones overtake. Caller holds e.mu.
func (e *Executor) nextRunnable() *Procedure {
	shadow := make(model.LockSet)
	for i, p := range e.queue {
		blocked := false
		for k := range p.keys {
			if _, ok := e.held[k]; ok || shadow.Has(k) {
				blocked = true
				break
			}
		}
		if !blocked {
			e.queue = append(e.queue[:i], e.queue[i+1:]...)
			return p
		}
		for k := range p.keys {
			shadow.Add(k)
		}
	}
	return nil
}

// runProcedure executes the procedure's jobs in order. A failed job
// terminates the procedure; remaining follow-up jobs are dropped.
func (e *Executor) runProcedure(p *Procedure) {
	defer close(p.done)
	jc := &JobContext{proc: p}

	for {
		j, ok := p.nextJob()
		if !ok {
			return
		}

		e.logger.Debug("job started", "uuid", p.id, "description", j.description)
		p.appendStep(j.description, model.JobStateRunning, model.JobSuccessUndefined, nil)

		result, err := e.runJob(j, jc)
		if err != nil {
			e.logger.Debug("job failed", "uuid", p.id, "description", j.description, "error", err)
			p.appendStep(j.description, model.JobStateComplete, model.JobSuccessFailure, diagnosisTrace(err))
			p.clearJobs()
			return
		}

		e.logger.Debug("job finished", "uuid", p.id, "description", j.description)
		p.setResult(result)
		p.appendStep(j.description, model.JobStateComplete, model.JobSuccessSuccess, nil)
	}
}

// runJob invokes the job function, converting panics into failures.
func (e *Executor) runJob(j job, jc *JobContext) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return j.fn(e.baseCtx, jc)
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return strings.TrimRight(string(e.stack), "\n") + "\n" + fmt.Sprintf("panic: %v", e.value)
}

// diagnosisTrace turns a job error into the ordered lines of text
// recorded against the failed step. By convention the summary line is
// the second-to-last entry, before the blank trailer.
func diagnosisTrace(err error) []string {
	lines := strings.Split(strings.TrimRight(err.Error(), "\n"), "\n")
	return append(lines, "")
}
