package command

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/me/herd/internal/executor"
	"github.com/me/herd/internal/logging"
	"github.com/me/herd/pkg/model"
)

func testExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	e := executor.New(executor.DefaultConfig(), logging.Discard())
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return e
}

func TestParseSynchronous(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"false", false},
		{"FALSE", false},
		{"False", false},
		{"0", false},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"", true},
		{"no", true},
		{"yes", true},
	}
	for _, tt := range tests {
		if got := parseSynchronous(tt.in); got != tt.want {
			t.Errorf("parseSynchronous(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWaitForProceduresSynchronous(t *testing.T) {
	e := testExecutor(t)

	p, err := e.Schedule("Executing group.promote", func(ctx context.Context, jc *executor.JobContext) (any, error) {
		return "promoted", nil
	}, nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	status, err := WaitForProcedures(context.Background(), e, []*executor.Procedure{p}, "true")
	if err != nil {
		t.Fatalf("WaitForProcedures: %v", err)
	}
	if status.UUID != p.UUID().String() {
		t.Errorf("UUID = %s, want %s", status.UUID, p.UUID())
	}
	if !status.Complete() || !status.Succeeded() {
		t.Errorf("status not complete and successful: %+v", status)
	}
	if status.Result != "promoted" {
		t.Errorf("Result = %v, want promoted", status.Result)
	}
}

func TestWaitForProceduresAsynchronous(t *testing.T) {
	e := testExecutor(t)

	release := make(chan struct{})
	defer close(release)
	p, err := e.Schedule("Executing group.promote", func(ctx context.Context, jc *executor.JobContext) (any, error) {
		<-release
		return nil, nil
	}, nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// Must return immediately even though the job is blocked.
	status, err := WaitForProcedures(context.Background(), e, []*executor.Procedure{p}, "false")
	if err != nil {
		t.Fatalf("WaitForProcedures: %v", err)
	}
	if status.UUID != p.UUID().String() {
		t.Errorf("UUID = %s, want %s", status.UUID, p.UUID())
	}
	if len(status.Steps) != 0 || status.Result != nil {
		t.Errorf("asynchronous dispatch should report only the uuid, got %+v", status)
	}
}

func TestWaitForProceduresPrecondition(t *testing.T) {
	e := testExecutor(t)

	if _, err := WaitForProcedures(context.Background(), e, nil, "true"); err == nil {
		t.Error("zero procedures should be rejected")
	}

	p1, _ := e.Schedule("Executing a", func(ctx context.Context, jc *executor.JobContext) (any, error) { return nil, nil }, nil)
	p2, _ := e.Schedule("Executing b", func(ctx context.Context, jc *executor.JobContext) (any, error) { return nil, nil }, nil)
	if _, err := WaitForProcedures(context.Background(), e, []*executor.Procedure{p1, p2}, "true"); err == nil {
		t.Error("two procedures should be rejected")
	}
}

func TestWaitForProceduresContextCancel(t *testing.T) {
	e := testExecutor(t)

	release := make(chan struct{})
	defer close(release)
	p, _ := e.Schedule("Executing blocked", func(ctx context.Context, jc *executor.JobContext) (any, error) {
		<-release
		return nil, nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := WaitForProcedures(ctx, e, []*executor.Procedure{p}, "true"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForProcedures = %v, want DeadlineExceeded", err)
	}
}

func procedureBlock(uuid, finished, success, returned, activities string) string {
	return strings.Join([]string{
		"Procedure :",
		"{ uuid        = " + uuid + ",",
		"  finished    = " + finished + ",",
		"  success     = " + success + ",",
		"  return      = " + returned + ",",
		"  activities  = " + activities,
		"}",
	}, "\n")
}

func TestRenderProcedureStatusBareUUID(t *testing.T) {
	got := RenderProcedureStatus(model.Status{UUID: "abc-123"}, false)
	want := procedureBlock("abc-123", "", "", "", "")
	if got != want {
		t.Errorf("rendered:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderProcedureStatusSuccess(t *testing.T) {
	status := model.Status{
		UUID: "abc-123",
		Steps: []model.StepRecord{
			{Description: "Executing group.promote", State: model.JobStateEnqueued},
			{Description: "Executing group.promote", State: model.JobStateRunning},
			{Description: "Executing group.promote", State: model.JobStateComplete, Success: model.JobSuccessSuccess},
		},
		Result: "promoted",
	}

	got := RenderProcedureStatus(status, false)
	want := procedureBlock("abc-123", "true", "true", "promoted", "")
	if got != want {
		t.Errorf("rendered:\n%s\nwant:\n%s", got, want)
	}

	got = RenderProcedureStatus(status, true)
	activities := "Executing group.promote\n  Executing group.promote\n  Executing group.promote"
	want = procedureBlock("abc-123", "true", "true", "promoted", activities)
	if got != want {
		t.Errorf("detailed rendering:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderProcedureStatusFailure(t *testing.T) {
	trace := []string{
		"goroutine trace line 1",
		"goroutine trace line 2",
		"server srv-1 is unreachable",
		"",
	}
	status := model.Status{
		UUID: "abc-123",
		Steps: []model.StepRecord{
			{Description: "Executing group.promote", State: model.JobStateEnqueued},
			{Description: "Executing group.promote", State: model.JobStateRunning},
			{Description: "Executing group.promote", State: model.JobStateComplete,
				Success: model.JobSuccessFailure, Diagnosis: trace},
		},
	}

	got := RenderProcedureStatus(status, false)
	want := procedureBlock("abc-123", "true", "false", "server srv-1 is unreachable", "")
	if got != want {
		t.Errorf("rendered:\n%s\nwant:\n%s", got, want)
	}

	got = RenderProcedureStatus(status, true)
	want = procedureBlock("abc-123", "true", "false", "server srv-1 is unreachable", strings.Join(trace, "\n"))
	if got != want {
		t.Errorf("detailed rendering:\n%s\nwant:\n%s", got, want)
	}
}

func TestProcedureDispatchRendersProcedureBlock(t *testing.T) {
	transport := &fakeTransport{status: model.Status{UUID: "abc-123"}}

	cmd := struct{ ProcedureBase }{NewProcedureBase("group", "promote")}
	if err := cmd.Bind(&ClientContext{Client: transport}); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	out, err := cmd.Dispatch(context.Background(), Args{"group_id": "G1"}, "false")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(out, "Procedure :") {
		t.Errorf("procedure dispatch rendered %q, want the procedure block", out)
	}
	if transport.synchronous != "false" {
		t.Errorf("transport saw synchronous=%q, want false", transport.synchronous)
	}
}
