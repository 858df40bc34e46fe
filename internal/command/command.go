package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/herd/internal/config"
	"github.com/me/herd/internal/executor"
	"github.com/me/herd/internal/store"
	"github.com/me/herd/pkg/model"
)

// ErrAlreadyBound is returned when a command is bound to an execution
// context twice. Binding is a setup-time programming error, not a
// runtime condition.
var ErrAlreadyBound = errors.New("command already bound to an execution context")

// Args carries the named argument values a command's Execute entry
// point receives. Lock-scope resolution reads the same map, so locks
// are always computed from the values the in-flight invocation will
// actually see.
type Args map[string]any

// Options holds parsed command-line options handed to a command at
// setup time.
type Options map[string]string

// Transport is the client-side collaborator Dispatch forwards to. The
// returned Status is either a bare uuid (asynchronous dispatch) or the
// full uuid/steps/result triple (synchronous dispatch); this shape is
// the wire contract with the server.
type Transport interface {
	RemoteDispatch(ctx context.Context, group, name string, args Args, synchronous string) (model.Status, error)
}

// Runtime is the server-side environment commands execute against.
type Runtime struct {
	Store    store.Store
	Executor *executor.Executor
	Logger   *slog.Logger
}

// ExecutionContext is the environment a command instance is bound to:
// either a client context or a server context, never both. The sum
// type makes the exclusivity a compile-time property; Bind enforces
// the set-exactly-once rule.
type ExecutionContext interface {
	executionContext()
}

// ClientContext is the client-side execution context.
type ClientContext struct {
	Client  Transport
	Options Options
	Config  config.ClientConfig
}

func (*ClientContext) executionContext() {}

// ServerContext is the server-side execution context.
type ServerContext struct {
	Runtime *Runtime
	Options Options
	Config  config.ServerConfig
}

func (*ServerContext) executionContext() {}

// Command is the base behavior every fleet command implements.
type Command interface {
	Group() string
	Name() string

	// Bind attaches the execution context. It fails with
	// ErrAlreadyBound if a context is already set.
	Bind(ec ExecutionContext) error

	// Dispatch runs on the client side: it forwards the call to the
	// transport's remote-dispatch entry point and returns a rendered
	// status string.
	Dispatch(ctx context.Context, args Args, synchronous string) (string, error)
}

// Executable is a command that runs synchronously on the server, inside
// the dispatching request rather than as a scheduled procedure.
type Executable interface {
	Command
	Execute(ctx context.Context, args Args) (any, error)
}

// Base provides the common command behavior. Concrete commands embed it
// and supply their group and name through NewBase.
type Base struct {
	group string
	name  string
	ec    ExecutionContext
}

// NewBase creates the embedded base for a command identified by
// (group, name).
func NewBase(group, name string) Base {
	return Base{group: group, name: name}
}

// Group returns the command group.
func (b *Base) Group() string { return b.group }

// Name returns the command name within its group.
func (b *Base) Name() string { return b.name }

// Bind attaches the execution context, exactly once.
func (b *Base) Bind(ec ExecutionContext) error {
	if b.ec != nil {
		return ErrAlreadyBound
	}
	if ec == nil {
		return errors.New("nil execution context")
	}
	b.ec = ec
	return nil
}

// ClientContext returns the bound client context, if any.
func (b *Base) ClientContext() (*ClientContext, bool) {
	cc, ok := b.ec.(*ClientContext)
	return cc, ok
}

// ServerContext returns the bound server context, if any.
func (b *Base) ServerContext() (*ServerContext, bool) {
	sc, ok := b.ec.(*ServerContext)
	return sc, ok
}

// Runtime returns the server runtime the command is bound to.
func (b *Base) Runtime() (*Runtime, error) {
	sc, ok := b.ServerContext()
	if !ok {
		return nil, fmt.Errorf("command %s.%s is not bound to a server context", b.group, b.name)
	}
	return sc.Runtime, nil
}

// Dispatch forwards the call, unmodified, to the transport and renders
// the generic status template. Procedure commands shadow this with
// procedure-specific rendering.
func (b *Base) Dispatch(ctx context.Context, args Args, synchronous string) (string, error) {
	cc, ok := b.ClientContext()
	if !ok {
		return "", fmt.Errorf("command %s.%s is not bound to a client context", b.group, b.name)
	}
	status, err := cc.Client.RemoteDispatch(ctx, b.group, b.name, args, synchronous)
	if err != nil {
		return "", err
	}
	return RenderStatus(status.Result), nil
}

// commandStatusTemplate is part of the external CLI contract; do not
// reformat.
const commandStatusTemplate = "Command :\n{ return = %v\n}"

// RenderStatus presents the result reported by a command in the
// fixed-format status block consumed by CLIs.
func RenderStatus(v any) string {
	return fmt.Sprintf(commandStatusTemplate, v)
}
