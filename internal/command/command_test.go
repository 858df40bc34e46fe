package command

import (
	"context"
	"errors"
	"testing"

	"github.com/me/herd/pkg/model"
)

// fakeTransport records the last remote dispatch and replies with a
// canned status.
type fakeTransport struct {
	group       string
	name        string
	args        Args
	synchronous string

	status model.Status
	err    error
}

func (f *fakeTransport) RemoteDispatch(ctx context.Context, group, name string, args Args, synchronous string) (model.Status, error) {
	f.group, f.name, f.args, f.synchronous = group, name, args, synchronous
	return f.status, f.err
}

func TestBindExactlyOnce(t *testing.T) {
	cmd := &noopCommand{Base: NewBase("group", "promote")}

	if err := cmd.Bind(&ClientContext{}); err != nil {
		t.Fatalf("first Bind: %v", err)
	}
	if err := cmd.Bind(&ClientContext{}); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("second Bind = %v, want ErrAlreadyBound", err)
	}
	if err := (&noopCommand{Base: NewBase("group", "promote")}).Bind(nil); err == nil {
		t.Error("Bind(nil) should fail")
	}
}

func TestContextAccessors(t *testing.T) {
	client := &noopCommand{Base: NewBase("group", "promote")}
	if err := client.Bind(&ClientContext{}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, ok := client.ClientContext(); !ok {
		t.Error("ClientContext not visible after client bind")
	}
	if _, ok := client.ServerContext(); ok {
		t.Error("ServerContext visible after client bind")
	}
	if _, err := client.Runtime(); err == nil {
		t.Error("Runtime should fail for a client-bound command")
	}

	server := &noopCommand{Base: NewBase("group", "promote")}
	if err := server.Bind(&ServerContext{Runtime: &Runtime{}}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, err := server.Runtime(); err != nil {
		t.Errorf("Runtime: %v", err)
	}
}

func TestGenericDispatchRendersStatus(t *testing.T) {
	transport := &fakeTransport{status: model.Status{Result: "pong"}}
	cmd := &noopCommand{Base: NewBase("manage", "ping")}
	if err := cmd.Bind(&ClientContext{Client: transport}); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	out, err := cmd.Dispatch(context.Background(), Args{"n": 1}, "true")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	want := "Command :\n{ return = pong\n}"
	if out != want {
		t.Errorf("Dispatch output = %q, want %q", out, want)
	}

	if transport.group != "manage" || transport.name != "ping" {
		t.Errorf("transport saw %s.%s, want manage.ping", transport.group, transport.name)
	}
	if transport.synchronous != "true" {
		t.Errorf("transport saw synchronous=%q, want true", transport.synchronous)
	}
	if got := transport.args["n"]; got != 1 {
		t.Errorf("transport saw args[n]=%v, want 1", got)
	}
}

func TestDispatchUnbound(t *testing.T) {
	cmd := &noopCommand{Base: NewBase("manage", "ping")}
	if _, err := cmd.Dispatch(context.Background(), nil, "true"); err == nil {
		t.Error("Dispatch on an unbound command should fail")
	}
}

func TestDispatchTransportError(t *testing.T) {
	transport := &fakeTransport{err: errors.New("connection refused")}
	cmd := &noopCommand{Base: NewBase("manage", "ping")}
	if err := cmd.Bind(&ClientContext{Client: transport}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, err := cmd.Dispatch(context.Background(), nil, "true"); err == nil {
		t.Error("transport error should propagate")
	}
}
