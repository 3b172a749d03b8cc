package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know as a ? driver
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS storage_slots (
		slot_key   TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS storage_slots (
		slot_key   TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// SQLSlotStore keeps slots in a storage_slots table
type SQLSlotStore struct {
	db *sqlx.DB
}

// NewPostgresSlotStore connects to PostgreSQL and creates the slot table
func NewPostgresSlotStore(dsn string, maxConn, maxIdleConn int) (*SQLSlotStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return newSQLSlotStore(db, postgresSchema)
}

// NewSQLiteSlotStore opens (or creates) a SQLite database file
func NewSQLiteSlotStore(path string) (*SQLSlotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent saves
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return newSQLSlotStore(db, sqliteSchema)
}

func newSQLSlotStore(db *sqlx.DB, schema string) (*SQLSlotStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &SQLSlotStore{db: db}, nil
}

// Close closes the database connection
func (r *SQLSlotStore) Close() error {
	return r.db.Close()
}

// Get implements SlotStore
func (r *SQLSlotStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := r.db.Rebind(`SELECT value FROM storage_slots WHERE slot_key = ?`)
	err := r.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read slot %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements SlotStore
func (r *SQLSlotStore) Set(ctx context.Context, key, value string) error {
	query := r.db.Rebind(`
		INSERT INTO storage_slots (slot_key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot_key) DO UPDATE
		SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}
	return nil
}
