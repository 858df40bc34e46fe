package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/herd/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Group CRUD ---

func (s *SQLiteStore) CreateGroup(ctx context.Context, g *model.Group) error {
	s.logger.Debug("sql", "op", "insert", "table", "groups", "id", g.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (group_id, description, primary_server, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Description, g.PrimaryServer,
		g.CreatedAt.Format(time.RFC3339Nano), g.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	s.logger.Debug("sql", "op", "select", "table", "groups", "id", id)

	var g model.Group
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT group_id, description, primary_server, created_at, updated_at
		 FROM groups WHERE group_id = ?`, id,
	).Scan(&g.ID, &g.Description, &g.PrimaryServer, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	g.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &g, nil
}

func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*model.Group, error) {
	s.logger.Debug("sql", "op", "select", "table", "groups")

	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, description, primary_server, created_at, updated_at
		 FROM groups ORDER BY group_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*model.Group
	for rows.Next() {
		var g model.Group
		var createdAt, updatedAt string
		if err := rows.Scan(&g.ID, &g.Description, &g.PrimaryServer, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		g.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		g.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (s *SQLiteStore) UpdateGroupPrimary(ctx context.Context, groupID, serverID string) error {
	s.logger.Debug("sql", "op", "update", "table", "groups", "id", groupID, "primary", serverID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET primary_server = ?, updated_at = ? WHERE group_id = ?`,
		serverID, time.Now().UTC().Format(time.RFC3339Nano), groupID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError("group", groupID)
	}
	return nil
}

func (s *SQLiteStore) DeleteGroup(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "groups", "id", id)

	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE group_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError("group", id)
	}
	return nil
}

// --- Server operations ---

func (s *SQLiteStore) AddServer(ctx context.Context, srv *model.Server) error {
	s.logger.Debug("sql", "op", "insert", "table", "servers", "id", srv.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO servers (server_id, group_id, address, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		srv.ID, srv.GroupID, srv.Address, srv.Status,
		srv.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) RemoveServer(ctx context.Context, serverID string) error {
	s.logger.Debug("sql", "op", "delete", "table", "servers", "id", serverID)

	res, err := s.db.ExecContext(ctx, `DELETE FROM servers WHERE server_id = ?`, serverID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError("server", serverID)
	}
	return nil
}

func (s *SQLiteStore) GetServer(ctx context.Context, serverID string) (*model.Server, error) {
	s.logger.Debug("sql", "op", "select", "table", "servers", "id", serverID)

	var srv model.Server
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT server_id, group_id, address, status, created_at
		 FROM servers WHERE server_id = ?`, serverID,
	).Scan(&srv.ID, &srv.GroupID, &srv.Address, &srv.Status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	srv.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &srv, nil
}

func (s *SQLiteStore) ListServers(ctx context.Context, groupID string) ([]*model.Server, error) {
	s.logger.Debug("sql", "op", "select", "table", "servers", "group_id", groupID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT server_id, group_id, address, status, created_at
		 FROM servers WHERE group_id = ? ORDER BY server_id`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []*model.Server
	for rows.Next() {
		var srv model.Server
		var createdAt string
		if err := rows.Scan(&srv.ID, &srv.GroupID, &srv.Address, &srv.Status, &createdAt); err != nil {
			return nil, err
		}
		srv.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		servers = append(servers, &srv)
	}
	return servers, rows.Err()
}

func (s *SQLiteStore) UpdateServerStatus(ctx context.Context, serverID string, status model.ServerStatus) error {
	s.logger.Debug("sql", "op", "update", "table", "servers", "id", serverID, "status", status)

	res, err := s.db.ExecContext(ctx,
		`UPDATE servers SET status = ? WHERE server_id = ?`, status, serverID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError("server", serverID)
	}
	return nil
}

// --- Shard-mapping metadata ---

func (s *SQLiteStore) CreateShardMapping(ctx context.Context, m *model.ShardMapping) (int64, error) {
	s.logger.Debug("sql", "op", "insert", "table", "shard_mappings", "table_name", m.TableName)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shard_mappings (table_name, column_name, type, global_group, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.TableName, m.ColumnName, m.Type, m.GlobalGroup,
		m.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

func (s *SQLiteStore) GetShardMapping(ctx context.Context, id int64) (*model.ShardMapping, error) {
	s.logger.Debug("sql", "op", "select", "table", "shard_mappings", "id", id)

	var m model.ShardMapping
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT shard_mapping_id, table_name, column_name, type, global_group, created_at
		 FROM shard_mappings WHERE shard_mapping_id = ?`, id,
	).Scan(&m.ID, &m.TableName, &m.ColumnName, &m.Type, &m.GlobalGroup, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &m, nil
}

func (s *SQLiteStore) AddShard(ctx context.Context, sh *model.Shard) (int64, error) {
	s.logger.Debug("sql", "op", "insert", "table", "shards", "mapping_id", sh.MappingID, "group_id", sh.GroupID)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO shards (shard_mapping_id, group_id, lower_bound, state, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sh.MappingID, sh.GroupID, sh.LowerBound, sh.State,
		sh.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	sh.ID = id
	return id, nil
}

func (s *SQLiteStore) GetShard(ctx context.Context, id int64) (*model.Shard, error) {
	s.logger.Debug("sql", "op", "select", "table", "shards", "id", id)

	var sh model.Shard
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT shard_id, shard_mapping_id, group_id, lower_bound, state, created_at
		 FROM shards WHERE shard_id = ?`, id,
	).Scan(&sh.ID, &sh.MappingID, &sh.GroupID, &sh.LowerBound, &sh.State, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sh.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &sh, nil
}

func (s *SQLiteStore) ListShards(ctx context.Context, mappingID int64) ([]*model.Shard, error) {
	s.logger.Debug("sql", "op", "select", "table", "shards", "mapping_id", mappingID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT shard_id, shard_mapping_id, group_id, lower_bound, state, created_at
		 FROM shards WHERE shard_mapping_id = ? ORDER BY shard_id`, mappingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shards []*model.Shard
	for rows.Next() {
		var sh model.Shard
		var createdAt string
		if err := rows.Scan(&sh.ID, &sh.MappingID, &sh.GroupID, &sh.LowerBound, &sh.State, &createdAt); err != nil {
			return nil, err
		}
		sh.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		shards = append(shards, &sh)
	}
	return shards, rows.Err()
}

func (s *SQLiteStore) UpdateShardGroup(ctx context.Context, shardID int64, groupID string) error {
	s.logger.Debug("sql", "op", "update", "table", "shards", "id", shardID, "group_id", groupID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE shards SET group_id = ? WHERE shard_id = ?`, groupID, shardID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NewNotFoundError("shard", fmt.Sprint(shardID))
	}
	return nil
}

// --- Metadata transactions ---

// Begin opens a read transaction used by shard-scoped lock resolution.
func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	s.logger.Debug("sql", "op", "begin")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &sqliteTx{tx: tx, logger: s.logger}, nil
}

type sqliteTx struct {
	tx     *sql.Tx
	logger *slog.Logger
}

// shardKeyQueries maps (scope, keyName) to the lookup returning the
// owning group identifiers. The first column of every query is a group
// identifier.
var shardKeyQueries = map[Scope]map[string]string{
	ScopeLocal: {
		"shard_id": `SELECT DISTINCT group_id FROM shards WHERE shard_id = ?`,
		"shard_mapping_id": `SELECT DISTINCT group_id FROM shards
			WHERE shard_mapping_id = ?`,
		"table_name": `SELECT DISTINCT s.group_id FROM shards s
			JOIN shard_mappings m ON s.shard_mapping_id = m.shard_mapping_id
			WHERE m.table_name = ?`,
	},
	ScopeGlobal: {
		"shard_id": `SELECT DISTINCT m.global_group FROM shard_mappings m
			JOIN shards s ON s.shard_mapping_id = m.shard_mapping_id
			WHERE s.shard_id = ?`,
		"shard_mapping_id": `SELECT DISTINCT global_group FROM shard_mappings
			WHERE shard_mapping_id = ?`,
		"table_name": `SELECT DISTINCT global_group FROM shard_mappings
			WHERE table_name = ?`,
	},
}

func (t *sqliteTx) GroupsForShardKey(ctx context.Context, scope Scope, keyName string, keyValue any) ([]string, error) {
	t.logger.Debug("sql", "op", "shard_key_lookup", "scope", scope, "key", keyName, "value", keyValue)

	queries, ok := shardKeyQueries[scope]
	if !ok {
		return nil, fmt.Errorf("unknown shard-mapping scope %q", scope)
	}
	query, ok := queries[keyName]
	if !ok {
		return nil, fmt.Errorf("unknown shard key %q", keyName)
	}

	rows, err := t.tx.QueryContext(ctx, query, keyValue)
	if err != nil {
		return nil, fmt.Errorf("lookup %s/%s: %w", scope, keyName, err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (t *sqliteTx) Commit() error {
	t.logger.Debug("sql", "op", "commit")
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	t.logger.Debug("sql", "op", "rollback")
	return t.tx.Rollback()
}
