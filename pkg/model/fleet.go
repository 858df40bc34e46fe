package model

import "time"

// ServerStatus describes a server's role within its group.
type ServerStatus string

const (
	ServerStatusPrimary   ServerStatus = "PRIMARY"
	ServerStatusSecondary ServerStatus = "SECONDARY"
	ServerStatusSpare     ServerStatus = "SPARE"
)

// Group is a managed set of database servers forming one replica set
// with one primary.
type Group struct {
	ID            string    `json:"group_id"`
	Description   string    `json:"description,omitempty"`
	PrimaryServer string    `json:"primary_server,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Server is one database server belonging to a group.
type Server struct {
	ID        string       `json:"server_id"`
	GroupID   string       `json:"group_id"`
	Address   string       `json:"address"`
	Status    ServerStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// ShardMappingType describes how rows map onto shards.
type ShardMappingType string

const (
	ShardMappingRange ShardMappingType = "RANGE"
	ShardMappingHash  ShardMappingType = "HASH"
)

// ShardMapping associates a sharded table with its global group and,
// through its shards, the groups owning each partition.
type ShardMapping struct {
	ID          int64            `json:"shard_mapping_id"`
	TableName   string           `json:"table_name"`
	ColumnName  string           `json:"column_name"`
	Type        ShardMappingType `json:"type"`
	GlobalGroup string           `json:"global_group"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ShardState describes whether a shard accepts traffic.
type ShardState string

const (
	ShardStateEnabled  ShardState = "ENABLED"
	ShardStateDisabled ShardState = "DISABLED"
)

// Shard is one horizontal partition of a sharded table, owned by
// exactly one group at a time.
type Shard struct {
	ID         int64      `json:"shard_id"`
	MappingID  int64      `json:"shard_mapping_id"`
	GroupID    string     `json:"group_id"`
	LowerBound string     `json:"lower_bound,omitempty"`
	State      ShardState `json:"state"`
	CreatedAt  time.Time  `json:"created_at"`
}
