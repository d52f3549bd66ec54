package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/invoflow/invoflow/internal/logger"
)

// SQLiteStore persists interaction artifacts in a SQLite database so dumps
// survive the process. Values are stored JSON-encoded.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (creating if needed) a SQLite-backed store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
id TEXT PRIMARY KEY,
created_at TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
interaction_id TEXT NOT NULL,
key TEXT NOT NULL,
value TEXT NOT NULL,
created_at TIMESTAMP NOT NULL,
PRIMARY KEY (interaction_id, key),
FOREIGN KEY (interaction_id) REFERENCES interactions(id) ON DELETE CASCADE
)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_interaction ON artifacts(interaction_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Init(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, created_at) VALUES (?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to initialize interaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, id, key string, value any) error {
	var known int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions WHERE id = ?`, id).Scan(&known)
	if err != nil {
		return fmt.Errorf("failed to check interaction: %w", err)
	}
	if known == 0 {
		logger.Warn("interaction not initialized, dropping artifact",
			"interaction_id", id, "key", key)
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (interaction_id, key, value, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(interaction_id, key) DO UPDATE SET value = excluded.value`,
		id, key, string(encoded), time.Now())
	if err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id, key string) (any, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM artifacts WHERE interaction_id = ? AND key = ?`,
		id, key).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	var value any
	if err := json.Unmarshal([]byte(encoded), &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) Dump(ctx context.Context) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM interactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out[id] = make(map[string]any)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT interaction_id, key, value FROM artifacts ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var id, key, encoded string
		if err := arows.Scan(&id, &key, &encoded); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		var value any
		if err := json.Unmarshal([]byte(encoded), &value); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
		}
		if _, ok := out[id]; !ok {
			out[id] = make(map[string]any)
		}
		out[id][key] = value
	}
	return out, arows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
