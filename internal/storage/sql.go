package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// kvTable is the table SQL stores snapshots in.
const kvTable = "kv_store"

const (
	createKVTable = `CREATE TABLE IF NOT EXISTS ` + kvTable + ` (
    name VARCHAR(191) NOT NULL PRIMARY KEY,
    value LONGBLOB NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`
	selectKV = `SELECT value FROM ` + kvTable + ` WHERE name = ?`
	upsertKV = `INSERT INTO ` + kvTable + ` (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)`
)

// SQL is a KV backend over a database/sql handle.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps an open database. Call Migrate before first use on a new database.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// OpenMySQL connects to MySQL with dsn, checks the connection and creates
// the kv_store table if it is missing.
func OpenMySQL(ctx context.Context, dsn string) (*SQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql %s: %w", cfg.Addr, err)
	}

	s := NewSQL(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the kv_store table if it does not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createKVTable); err != nil {
		return fmt.Errorf("create %s: %w", kvTable, err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, selectKV, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertKV, key, value); err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
