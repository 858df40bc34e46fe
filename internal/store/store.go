package store

import (
	"context"

	"github.com/me/herd/pkg/model"
)

// Scope selects which shard-mapping relation a metadata lookup reads.
type Scope string

const (
	// ScopeLocal resolves the groups owning the shards themselves.
	ScopeLocal Scope = "local"
	// ScopeGlobal resolves the global group of the owning mapping.
	ScopeGlobal Scope = "global"
)

// Store defines the persistence layer for herd fleet metadata.
type Store interface {
	// Group CRUD
	CreateGroup(ctx context.Context, g *model.Group) error
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
	UpdateGroupPrimary(ctx context.Context, groupID, serverID string) error
	DeleteGroup(ctx context.Context, id string) error

	// Server operations
	AddServer(ctx context.Context, srv *model.Server) error
	RemoveServer(ctx context.Context, serverID string) error
	GetServer(ctx context.Context, serverID string) (*model.Server, error)
	ListServers(ctx context.Context, groupID string) ([]*model.Server, error)
	UpdateServerStatus(ctx context.Context, serverID string, status model.ServerStatus) error

	// Shard-mapping metadata
	CreateShardMapping(ctx context.Context, m *model.ShardMapping) (int64, error)
	GetShardMapping(ctx context.Context, id int64) (*model.ShardMapping, error)
	AddShard(ctx context.Context, sh *model.Shard) (int64, error)
	GetShard(ctx context.Context, id int64) (*model.Shard, error)
	ListShards(ctx context.Context, mappingID int64) ([]*model.Shard, error)
	UpdateShardGroup(ctx context.Context, shardID int64, groupID string) error

	// Begin opens a metadata transaction for consistent-snapshot reads
	// during lock-scope resolution.
	Begin(ctx context.Context) (Tx, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// Tx is a metadata transaction. It must be released (Commit or
// Rollback) on every exit path before the resolving goroutine returns
// control.
type Tx interface {
	// GroupsForShardKey returns the identifiers of the groups owning
	// the shard/table named by (keyName, keyValue) in the given scope.
	// Zero rows is not an error.
	GroupsForShardKey(ctx context.Context, scope Scope, keyName string, keyValue any) ([]string, error)

	Commit() error
	Rollback() error
}
