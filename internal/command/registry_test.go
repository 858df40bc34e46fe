package command

import (
	"testing"

	"github.com/me/herd/internal/logging"
	"github.com/me/herd/pkg/model"
)

type noopCommand struct {
	Base
}

func noopFactory(group, name string) Factory {
	return func() Command {
		return &noopCommand{Base: NewBase(group, name)}
	}
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry(logging.Discard())
	r.Register("group", "promote", noopFactory("group", "promote"))

	factory, err := r.Lookup("group", "promote")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	cmd := factory()
	if cmd.Group() != "group" || cmd.Name() != "promote" {
		t.Errorf("factory built %s.%s, want group.promote", cmd.Group(), cmd.Name())
	}

	if _, err := r.Lookup("group", "absent"); !model.IsNotFound(err) {
		t.Errorf("Lookup absent command = %v, want NOT_FOUND", err)
	}
	if _, err := r.Lookup("absent", "promote"); !model.IsNotFound(err) {
		t.Errorf("Lookup absent group = %v, want NOT_FOUND", err)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry(logging.Discard())

	first := noopFactory("group", "promote")
	second := func() Command {
		return &noopCommand{Base: NewBase("group", "promote2")}
	}
	r.Register("group", "promote", first)
	r.Register("group", "promote", second)

	factory, err := r.Lookup("group", "promote")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := factory().Name(); got != "promote2" {
		t.Errorf("lookup after overwrite built %q, want the later registration", got)
	}
}

func TestRegistrySkipsInvalidNames(t *testing.T) {
	r := NewRegistry(logging.Discard())

	for _, name := range []string{"1promote", "_promote", "pro-mote", "p", ""} {
		r.Register("group", name, noopFactory("group", name))
		if _, err := r.Lookup("group", name); !model.IsNotFound(err) {
			t.Errorf("invalid name %q was registered", name)
		}
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry(logging.Discard())
	r.Register("group", "promote", noopFactory("group", "promote"))
	r.Register("group", "demote", noopFactory("group", "demote"))

	if err := r.Unregister("group", "promote"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if _, err := r.Lookup("group", "promote"); !model.IsNotFound(err) {
		t.Error("command still present after Unregister")
	}

	// Removing the last command removes the group itself.
	if err := r.Unregister("group", "demote"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if got := r.ListGroups(); len(got) != 0 {
		t.Errorf("ListGroups = %v, want empty after last command removed", got)
	}

	if err := r.Unregister("group", "demote"); !model.IsNotFound(err) {
		t.Errorf("Unregister on absent group = %v, want NOT_FOUND", err)
	}
}

func TestRegistryListing(t *testing.T) {
	r := NewRegistry(logging.Discard())
	r.Register("sharding", "move_shard", noopFactory("sharding", "move_shard"))
	r.Register("group", "promote", noopFactory("group", "promote"))
	r.Register("group", "create", noopFactory("group", "create"))

	groups := r.ListGroups()
	if len(groups) != 2 || groups[0] != "group" || groups[1] != "sharding" {
		t.Errorf("ListGroups = %v, want [group sharding]", groups)
	}

	names, err := r.ListCommands("group")
	if err != nil {
		t.Fatalf("ListCommands: %v", err)
	}
	if len(names) != 2 || names[0] != "create" || names[1] != "promote" {
		t.Errorf("ListCommands = %v, want [create promote]", names)
	}

	if _, err := r.ListCommands("absent"); !model.IsNotFound(err) {
		t.Errorf("ListCommands on absent group = %v, want NOT_FOUND", err)
	}
}
