package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/me/herd/internal/executor"
	"github.com/me/herd/pkg/model"
)

// ProcedureCommand is a command that runs as an asynchronous procedure:
// dispatching it schedules one or more jobs on the executor, serialized
// against other procedures through the lock keys its resolver computes.
type ProcedureCommand interface {
	Command

	// Execute runs on the server inside a scheduled job. It must not be
	// called directly by clients. Follow-up jobs may be enqueued through
	// jc; they run in order under the same lock keys.
	Execute(ctx context.Context, jc *executor.JobContext, args Args) (any, error)

	// LockResolver returns the strategy computing the resource keys the
	// procedure must hold for its whole execution.
	LockResolver() Resolver
}

// ProcedureBase provides the common procedure-command behavior.
// Concrete procedure commands embed it and implement Execute.
type ProcedureBase struct {
	Base
	details bool
}

// NewProcedureBase creates the embedded base for a procedure command.
func NewProcedureBase(group, name string) ProcedureBase {
	return ProcedureBase{Base: NewBase(group, name)}
}

// SetDetails controls whether Dispatch renders the full activity log.
func (b *ProcedureBase) SetDetails(details bool) {
	b.details = details
}

// LockResolver returns the default strategy: the single sentinel key.
// Group- and shard-scoped commands shadow this.
func (b *ProcedureBase) LockResolver() Resolver {
	return DefaultScope{}
}

// Dispatch forwards the call to the transport and renders the
// procedure-specific status template instead of the generic one.
func (b *ProcedureBase) Dispatch(ctx context.Context, args Args, synchronous string) (string, error) {
	cc, ok := b.ClientContext()
	if !ok {
		return "", fmt.Errorf("command %s.%s is not bound to a client context", b.Group(), b.Name())
	}
	status, err := cc.Client.RemoteDispatch(ctx, b.Group(), b.Name(), args, synchronous)
	if err != nil {
		return "", err
	}
	return RenderProcedureStatus(status, b.details), nil
}

// parseSynchronous interprets the synchronous token loosely: the
// case-insensitive literals "false" and "0" mean non-blocking,
// everything else blocks.
func parseSynchronous(s string) bool {
	switch strings.ToUpper(s) {
	case "FALSE", "0":
		return false
	}
	return true
}

// WaitForProcedures waits until a procedure completes and returns
// detailed information on it: the uuid, the full step history, and the
// result. If synchronous parses as false, only the uuid is returned,
// immediately; it is not safe to read a procedure's status or result
// while it may still be executing.
//
// Exactly one procedure is expected; anything else is a precondition
// violation. The wait itself has no timeout; callers layer one through
// ctx.
func WaitForProcedures(ctx context.Context, exec *executor.Executor, procs []*executor.Procedure, synchronous string) (model.Status, error) {
	if len(procs) != 1 {
		return model.Status{}, fmt.Errorf("exactly one procedure expected, got %d", len(procs))
	}
	p := procs[0]

	if !parseSynchronous(synchronous) {
		return model.Status{UUID: p.UUID().String()}, nil
	}

	if err := exec.WaitForProcedure(ctx, p); err != nil {
		return model.Status{}, err
	}
	return model.Status{
		UUID:   p.UUID().String(),
		Steps:  p.Status(),
		Result: p.Result(),
	}, nil
}

// procedureStatusTemplate is part of the external CLI contract; do not
// reformat.
var procedureStatusTemplate = strings.Join([]string{
	"Procedure :",
	"{ uuid        = %v,",
	"  finished    = %v,",
	"  success     = %v,",
	"  return      = %v,",
	"  activities  = %v",
	"}",
}, "\n")

// RenderProcedureStatus transforms a status reported by
// WaitForProcedures into the block consumed by the command-line
// interface. A bare uuid (non-blocking dispatch) renders with every
// other field blank. For the full triple, completeness and success are
// judged from the last step of the history; on failure the rendered
// return value is the summary line of the diagnosis trace, and details
// selects between the step descriptions and the full trace for the
// activity log.
func RenderProcedureStatus(status model.Status, details bool) string {
	if len(status.Steps) == 0 {
		return fmt.Sprintf(procedureStatusTemplate, status.UUID, "", "", "", "")
	}

	last := status.Steps[len(status.Steps)-1]
	complete := last.State == model.JobStateComplete
	success := last.Success == model.JobSuccessSuccess

	var returned any
	var activities string
	if success {
		returned = status.Result
		if details {
			descriptions := make([]string, len(status.Steps))
			for i, step := range status.Steps {
				descriptions[i] = step.Description
			}
			activities = strings.Join(descriptions, "\n  ")
		}
	} else {
		trace := last.Diagnosis
		if n := len(trace); n >= 2 {
			// The summary line precedes the blank trailer.
			returned = trace[n-2]
		} else if n == 1 {
			returned = trace[0]
		}
		if details {
			activities = strings.Join(trace, "\n")
		}
	}

	return fmt.Sprintf(procedureStatusTemplate, status.UUID, complete, success, returned, activities)
}
