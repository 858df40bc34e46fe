package command

import (
	"log/slog"
	"regexp"
	"sort"

	"github.com/me/herd/pkg/model"
)

// Factory builds a fresh, unbound command instance.
type Factory func() Command

// namePattern is the validity check applied to command names at
// registration time.
var namePattern = regexp.MustCompile(`^[A-Za-z]\w+$`)

// Registry maps (group, name) pairs to command factories. It is
// populated once at process start by an explicit bootstrap step and
// treated as read-only afterwards, so no mutex is needed.
type Registry struct {
	groups map[string]map[string]Factory
	logger *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		groups: make(map[string]map[string]Factory),
		logger: logger.With("component", "command-registry"),
	}
}

// Register inserts or overwrites the mapping for (group, name). Names
// failing the validity check are skipped without error; see DESIGN.md
// for why this tolerance is kept.
func (r *Registry) Register(group, name string, factory Factory) {
	if !namePattern.MatchString(name) {
		r.logger.Debug("skipping command with invalid name", "group", group, "name", name)
		return
	}
	commands, ok := r.groups[group]
	if !ok {
		commands = make(map[string]Factory)
		r.groups[group] = commands
	}
	commands[name] = factory
	r.logger.Debug("command registered", "group", group, "name", name)
}

// Unregister removes the mapping for (group, name) and, if the group
// becomes empty, removes the group entry too.
func (r *Registry) Unregister(group, name string) error {
	commands, ok := r.groups[group]
	if !ok {
		return model.NewNotFoundError("command group", group)
	}
	if _, ok := commands[name]; !ok {
		return model.NewNotFoundError("command", group+"."+name)
	}
	delete(commands, name)
	if len(commands) == 0 {
		delete(r.groups, group)
	}
	return nil
}

// ListGroups returns the registered command groups in sorted order.
func (r *Registry) ListGroups() []string {
	groups := make([]string, 0, len(r.groups))
	for g := range r.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// ListCommands returns the command names within a group in sorted
// order, failing if the group does not exist.
func (r *Registry) ListCommands(group string) ([]string, error) {
	commands, ok := r.groups[group]
	if !ok {
		return nil, model.NewNotFoundError("command group", group)
	}
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Lookup returns the factory registered for (group, name).
func (r *Registry) Lookup(group, name string) (Factory, error) {
	commands, ok := r.groups[group]
	if !ok {
		return nil, model.NewNotFoundError("command group", group)
	}
	factory, ok := commands[name]
	if !ok {
		return nil, model.NewNotFoundError("command", group+"."+name)
	}
	return factory, nil
}
