package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schema contains the DDL for all herd tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		group_id       TEXT PRIMARY KEY,
		description    TEXT NOT NULL DEFAULT '',
		primary_server TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS servers (
		server_id  TEXT PRIMARY KEY,
		group_id   TEXT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
		address    TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'SECONDARY',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shard_mappings (
		shard_mapping_id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_name       TEXT NOT NULL UNIQUE,
		column_name      TEXT NOT NULL,
		type             TEXT NOT NULL DEFAULT 'RANGE',
		global_group     TEXT NOT NULL,
		created_at       TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shards (
		shard_id         INTEGER PRIMARY KEY AUTOINCREMENT,
		shard_mapping_id INTEGER NOT NULL REFERENCES shard_mappings(shard_mapping_id) ON DELETE CASCADE,
		group_id         TEXT NOT NULL,
		lower_bound      TEXT NOT NULL DEFAULT '',
		state            TEXT NOT NULL DEFAULT 'ENABLED',
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_servers_group_id ON servers(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_shards_mapping_id ON shards(shard_mapping_id)`,
	`CREATE INDEX IF NOT EXISTS idx_shards_group_id ON shards(group_id)`,
}

// migrate applies the schema statements in order.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// Include the first line of the statement for context.
			first := strings.SplitN(strings.TrimSpace(stmt), "\n", 2)[0]
			return fmt.Errorf("migrate: %s: %w", first, err)
		}
	}
	return nil
}
