package command

import (
	"context"
	"fmt"

	"github.com/me/herd/internal/executor"
	"github.com/me/herd/pkg/model"
)

// ServerDispatch is the server-side entry point for remote invocations.
// It instantiates the named command, binds it to a server context, and
// runs it: procedure commands are scheduled on the executor under the
// lock keys their resolver computes, plain executables run inline in
// the calling request.
func ServerDispatch(ctx context.Context, reg *Registry, rt *Runtime, group, name string, args Args, synchronous string) (model.Status, error) {
	factory, err := reg.Lookup(group, name)
	if err != nil {
		return model.Status{}, err
	}
	cmd := factory()
	if err := cmd.Bind(&ServerContext{Runtime: rt}); err != nil {
		return model.Status{}, err
	}

	switch c := cmd.(type) {
	case ProcedureCommand:
		return dispatchProcedure(ctx, rt, c, args, synchronous)
	case Executable:
		return dispatchExecutable(ctx, rt, c, args)
	default:
		return model.Status{}, fmt.Errorf("command %s.%s has no server-side entry point", group, name)
	}
}

func dispatchProcedure(ctx context.Context, rt *Runtime, cmd ProcedureCommand, args Args, synchronous string) (model.Status, error) {
	resolution, err := cmd.LockResolver().Resolve(ctx, rt, args)
	if err != nil {
		return model.Status{}, fmt.Errorf("resolve lock scope for %s.%s: %w", cmd.Group(), cmd.Name(), err)
	}
	if resolution.Warning != nil {
		rt.Logger.Warn("lock scope resolved with warning",
			"group", cmd.Group(), "name", cmd.Name(), "warning", resolution.Warning)
	}

	description := fmt.Sprintf("Executing %s.%s", cmd.Group(), cmd.Name())
	p, err := rt.Executor.Schedule(description, func(jobCtx context.Context, jc *executor.JobContext) (any, error) {
		rt.Logger.Debug("started command", "group", cmd.Group(), "name", cmd.Name())
		result, execErr := cmd.Execute(jobCtx, jc, args)
		rt.Logger.Debug("finished command", "group", cmd.Group(), "name", cmd.Name())
		return result, execErr
	}, resolution.Keys)
	if err != nil {
		return model.Status{}, err
	}

	return WaitForProcedures(ctx, rt.Executor, []*executor.Procedure{p}, synchronous)
}

func dispatchExecutable(ctx context.Context, rt *Runtime, cmd Executable, args Args) (model.Status, error) {
	rt.Logger.Debug("started command", "group", cmd.Group(), "name", cmd.Name())
	result, err := cmd.Execute(ctx, args)
	rt.Logger.Debug("finished command", "group", cmd.Group(), "name", cmd.Name())
	if err != nil {
		return model.Status{}, err
	}
	return model.Status{Result: result}, nil
}
