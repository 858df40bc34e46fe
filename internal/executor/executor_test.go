package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/me/herd/internal/logging"
	"github.com/me/herd/pkg/model"
)

func testExecutor(t *testing.T, workers int) *Executor {
	t.Helper()
	e := New(Config{Workers: workers}, logging.Discard())
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return e
}

func waitTerminal(t *testing.T, e *Executor, p *Procedure) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.WaitForProcedure(ctx, p); err != nil {
		t.Fatalf("WaitForProcedure: %v", err)
	}
}

func TestScheduleAndWait(t *testing.T) {
	e := testExecutor(t, 2)

	p, err := e.Schedule("Executing test job", func(ctx context.Context, jc *JobContext) (any, error) {
		return 42, nil
	}, model.NewLockSet("G1"))
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	waitTerminal(t, e, p)

	if got := p.Result(); got != 42 {
		t.Errorf("Result = %v, want 42", got)
	}

	steps := p.Status()
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3 (enqueued, running, complete)", len(steps))
	}
	wantStates := []model.JobState{model.JobStateEnqueued, model.JobStateRunning, model.JobStateComplete}
	for i, want := range wantStates {
		if steps[i].State != want {
			t.Errorf("steps[%d].State = %s, want %s", i, steps[i].State, want)
		}
	}
	last := steps[len(steps)-1]
	if last.Success != model.JobSuccessSuccess {
		t.Errorf("last step Success = %s, want SUCCESS", last.Success)
	}
}

func TestOverlappingKeysSerialize(t *testing.T) {
	e := testExecutor(t, 4)

	// Track how many jobs hold each key at once.
	var mu sync.Mutex
	active := 0
	maxActive := 0

	body := func(ctx context.Context, jc *JobContext) (any, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil, nil
	}

	p1, _ := e.Schedule("Executing op on G1 G2", body, model.NewLockSet("G1", "G2"))
	p2, _ := e.Schedule("Executing op on G2", body, model.NewLockSet("G2"))
	p3, _ := e.Schedule("Executing op on G1", body, model.NewLockSet("G1"))

	waitTerminal(t, e, p1)
	waitTerminal(t, e, p2)
	waitTerminal(t, e, p3)

	if maxActive != 1 {
		t.Errorf("procedures with overlapping lock sets overlapped in time (max concurrent = %d)", maxActive)
	}
}

func TestDisjointKeysRunConcurrently(t *testing.T) {
	e := testExecutor(t, 4)

	// Each job waits for the other to start; this deadlocks unless the
	// two procedures run concurrently.
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	pa, _ := e.Schedule("Executing op on G1", func(ctx context.Context, jc *JobContext) (any, error) {
		close(aStarted)
		select {
		case <-bStarted:
			return "a", nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("peer never started")
		}
	}, model.NewLockSet("G1"))

	pb, _ := e.Schedule("Executing op on G3", func(ctx context.Context, jc *JobContext) (any, error) {
		close(bStarted)
		select {
		case <-aStarted:
			return "b", nil
		case <-time.After(5 * time.Second):
			return nil, errors.New("peer never started")
		}
	}, model.NewLockSet("G3"))

	waitTerminal(t, e, pa)
	waitTerminal(t, e, pb)

	for _, p := range []*Procedure{pa, pb} {
		steps := p.Status()
		if steps[len(steps)-1].Success != model.JobSuccessSuccess {
			t.Errorf("procedure %s failed; disjoint lock sets should run concurrently", p.UUID())
		}
	}
}

func TestFIFOOrderForSameKey(t *testing.T) {
	e := testExecutor(t, 4)

	var mu sync.Mutex
	var order []int

	// Hold the key so everything below queues up first.
	release := make(chan struct{})
	gate, _ := e.Schedule("Executing gate", func(ctx context.Context, jc *JobContext) (any, error) {
		<-release
		return nil, nil
	}, model.NewLockSet("G1"))

	var procs []*Procedure
	for i := 1; i <= 3; i++ {
		i := i
		p, _ := e.Schedule(fmt.Sprintf("Executing op %d", i), func(ctx context.Context, jc *JobContext) (any, error) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil, nil
		}, model.NewLockSet("G1"))
		procs = append(procs, p)
	}

	close(release)
	waitTerminal(t, e, gate)
	for _, p := range procs {
		waitTerminal(t, e, p)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i+1 {
			t.Fatalf("execution order = %v, want [1 2 3] (FIFO of enqueue)", order)
		}
	}
}

func TestJobFailureRecordsDiagnosis(t *testing.T) {
	e := testExecutor(t, 1)

	p, _ := e.Schedule("Executing failing job", func(ctx context.Context, jc *JobContext) (any, error) {
		return nil, errors.New("server srv-1 is unreachable")
	}, nil)
	waitTerminal(t, e, p)

	steps := p.Status()
	last := steps[len(steps)-1]
	if last.State != model.JobStateComplete {
		t.Fatalf("last step State = %s, want COMPLETE", last.State)
	}
	if last.Success != model.JobSuccessFailure {
		t.Fatalf("last step Success = %s, want FAILURE", last.Success)
	}
	if n := len(last.Diagnosis); n < 2 {
		t.Fatalf("diagnosis has %d lines, want at least summary + trailer", n)
	}
	if got := last.Diagnosis[len(last.Diagnosis)-2]; got != "server srv-1 is unreachable" {
		t.Errorf("second-to-last diagnosis line = %q, want the summary", got)
	}
	if got := last.Diagnosis[len(last.Diagnosis)-1]; got != "" {
		t.Errorf("last diagnosis line = %q, want blank trailer", got)
	}
}

func TestJobPanicRecordsDiagnosis(t *testing.T) {
	e := testExecutor(t, 1)

	p, _ := e.Schedule("Executing panicking job", func(ctx context.Context, jc *JobContext) (any, error) {
		panic("boom")
	}, nil)
	waitTerminal(t, e, p)

	steps := p.Status()
	last := steps[len(steps)-1]
	if last.Success != model.JobSuccessFailure {
		t.Fatalf("panic should be recorded as FAILURE, got %s", last.Success)
	}
	if got := last.Diagnosis[len(last.Diagnosis)-2]; got != "panic: boom" {
		t.Errorf("summary line = %q, want \"panic: boom\"", got)
	}
}

func TestFanOutJobsRunInOrderUnderOneLockHold(t *testing.T) {
	e := testExecutor(t, 4)

	var mu sync.Mutex
	var order []string

	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	p, _ := e.Schedule("Executing split step 1", func(ctx context.Context, jc *JobContext) (any, error) {
		record("step1")
		jc.Enqueue("Executing split step 2", func(ctx context.Context, jc *JobContext) (any, error) {
			record("step2")
			return "split done", nil
		})
		return "step1 done", nil
	}, model.NewLockSet("G1"))

	// A conflicting procedure enqueued while p runs must not interleave
	// between p's two jobs.
	time.Sleep(10 * time.Millisecond)
	q, _ := e.Schedule("Executing conflicting op", func(ctx context.Context, jc *JobContext) (any, error) {
		record("other")
		return nil, nil
	}, model.NewLockSet("G1"))

	waitTerminal(t, e, p)
	waitTerminal(t, e, q)

	if got := p.Result(); got != "split done" {
		t.Errorf("Result = %v, want the last job's return value", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "step1" || order[1] != "step2" || order[2] != "other" {
		t.Errorf("execution order = %v, want [step1 step2 other]", order)
	}
}

func TestFailedJobDropsFollowUps(t *testing.T) {
	e := testExecutor(t, 1)

	ran := false
	p, _ := e.Schedule("Executing step 1", func(ctx context.Context, jc *JobContext) (any, error) {
		jc.Enqueue("Executing step 2", func(ctx context.Context, jc *JobContext) (any, error) {
			ran = true
			return nil, nil
		})
		return nil, errors.New("step 1 failed")
	}, nil)
	waitTerminal(t, e, p)

	if ran {
		t.Error("follow-up job ran after its predecessor failed")
	}
}

func TestWaitForProcedureContextCancel(t *testing.T) {
	e := testExecutor(t, 1)

	release := make(chan struct{})
	defer close(release)
	p, _ := e.Schedule("Executing blocked job", func(ctx context.Context, jc *JobContext) (any, error) {
		<-release
		return nil, nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.WaitForProcedure(ctx, p); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForProcedure = %v, want DeadlineExceeded", err)
	}
}

func TestScheduleAfterStop(t *testing.T) {
	e := New(Config{Workers: 1}, logging.Discard())
	e.Start(context.Background())
	e.Stop()

	if _, err := e.Schedule("Executing op", func(ctx context.Context, jc *JobContext) (any, error) {
		return nil, nil
	}, nil); !errors.Is(err, ErrStopped) {
		t.Errorf("Schedule after Stop = %v, want ErrStopped", err)
	}
}

func TestGetProcedureByUUID(t *testing.T) {
	e := testExecutor(t, 1)

	p, _ := e.Schedule("Executing op", func(ctx context.Context, jc *JobContext) (any, error) {
		return nil, nil
	}, nil)
	waitTerminal(t, e, p)

	got, ok := e.Get(p.UUID())
	if !ok || got != p {
		t.Errorf("Get(%s) = %v, %v; want the scheduled procedure", p.UUID(), got, ok)
	}
}
