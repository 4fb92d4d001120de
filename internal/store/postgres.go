package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Telebots-07/Pk-s-bot/internal/logger"
)

// PostgresStore keeps each setting as one row of a settings table, so Set
// only touches the named key and Get is a point read. This is the document
// backend; transient failures go through the shared retry policy.
type PostgresStore struct {
	conn *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres DSN")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{conn: conn}
	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	logger.InfoMsg("Postgres settings store ready")
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *PostgresStore) initTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		name VARCHAR(255) PRIMARY KEY,
		value TEXT NOT NULL DEFAULT 'null',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	_, err := s.conn.Exec(query)
	return err
}

var _ SettingsStore = (*PostgresStore)(nil)

func (s *PostgresStore) Get(ctx context.Context, key string, out interface{}) bool {
	var raw string
	found := false
	err := withRetry(ctx, "postgres.get", func() error {
		row := s.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = $1`, key)
		switch err := row.Scan(&raw); err {
		case nil:
			found = true
			return nil
		case sql.ErrNoRows:
			// Absent key, nothing to retry.
			return nil
		default:
			return err
		}
	})
	if err != nil {
		logger.Error("Failed to read setting from postgres", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	if !found {
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Error("Failed to decode setting", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (s *PostgresStore) Set(ctx context.Context, key string, value interface{}) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to encode setting", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}

	err = withRetry(ctx, "postgres.set", func() error {
		_, execErr := s.conn.ExecContext(ctx, `
			INSERT INTO settings (name, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (name) DO UPDATE SET value = $2, updated_at = NOW()`,
			key, string(raw))
		return execErr
	})
	if err != nil {
		logger.Error("Failed to write setting to postgres", logger.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}
