package command

import (
	"context"
	"fmt"

	"github.com/me/herd/internal/store"
	"github.com/me/herd/pkg/model"
)

// Resolution is the outcome of lock-scope resolution: the key set the
// procedure must hold, plus an optional non-fatal warning. A warning is
// set when the metadata transaction's commit failed after every lookup
// succeeded; the computed set is still valid and the procedure is still
// scheduled.
type Resolution struct {
	Keys    model.LockSet
	Warning error
}

// Resolver computes the minimal set of resource keys a procedure must
// hold exclusively for its whole execution. args is the name-to-value
// map of the pending Execute call, built by the dispatcher immediately
// before resolution.
type Resolver interface {
	Resolve(ctx context.Context, rt *Runtime, args Args) (Resolution, error)
}

// DefaultScope is the strategy for commands declaring no specific
// resource: the single sentinel key, so unclassified procedures still
// serialize against each other rather than racing unsafely.
type DefaultScope struct{}

func (DefaultScope) Resolve(ctx context.Context, rt *Runtime, args Args) (Resolution, error) {
	return Resolution{Keys: model.NewLockSet(model.LockDefault)}, nil
}

// GroupScope locks the single group named by one argument of the
// in-flight invocation (default "group_id"). If the argument is absent
// from the call, it falls back to the sentinel.
type GroupScope struct {
	Variable string
}

func (g GroupScope) Resolve(ctx context.Context, rt *Runtime, args Args) (Resolution, error) {
	variable := g.Variable
	if variable == "" {
		variable = "group_id"
	}

	keys := model.NewLockSet()
	if value, ok := args[variable]; ok {
		keys.Add(model.LockKey(fmt.Sprint(value)))
	}
	if len(keys) == 0 {
		keys.Add(model.LockDefault)
	}
	return Resolution{Keys: keys}, nil
}

// defaultShardVariables are the argument names shard-scoped resolution
// considers when none are configured.
var defaultShardVariables = []string{"group_id", "table_name", "shard_mapping_id", "shard_id"}

// ShardScope locks every group that currently owns the shards or tables
// named by the invocation's arguments. A "group_id" argument is added
// directly; every other resolved argument is looked up against both the
// local and the global shard mapping, inside one metadata transaction,
// so the lock set is computed from a consistent snapshot.
type ShardScope struct {
	Variables []string
}

func (s ShardScope) Resolve(ctx context.Context, rt *Runtime, args Args) (Resolution, error) {
	variables := s.Variables
	if len(variables) == 0 {
		variables = defaultShardVariables
	}

	tx, err := rt.Store.Begin(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("begin lock-scope transaction: %w", err)
	}

	keys := model.NewLockSet()
	for _, variable := range variables {
		value, ok := args[variable]
		if !ok {
			continue
		}
		if variable == "group_id" {
			// Already a group identifier; no lookup needed.
			keys.Add(model.LockKey(fmt.Sprint(value)))
			continue
		}
		for _, scope := range []store.Scope{store.ScopeLocal, store.ScopeGlobal} {
			groups, lookupErr := tx.GroupsForShardKey(ctx, scope, variable, value)
			if lookupErr != nil {
				// The command must never be scheduled with a partially
				// computed lock set: roll back and re-raise.
				rt.Logger.Error("lock-scope lookup failed",
					"variable", variable, "scope", scope, "error", lookupErr)
				if rbErr := tx.Rollback(); rbErr != nil {
					rt.Logger.Error("lock-scope rollback failed", "error", rbErr)
				}
				return Resolution{}, lookupErr
			}
			for _, group := range groups {
				keys.Add(model.LockKey(group))
			}
		}
	}

	if len(keys) == 0 {
		keys.Add(model.LockDefault)
	}

	resolution := Resolution{Keys: keys}
	if commitErr := tx.Commit(); commitErr != nil {
		// A commit failure after successful lookups does not abort
		// resolution: the already-computed lock set is returned, with
		// the failure surfaced as a warning.
		rt.Logger.Error("lock-scope commit failed", "error", commitErr)
		resolution.Warning = commitErr
	}
	return resolution, nil
}
