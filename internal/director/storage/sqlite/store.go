// Package sqlite implements the narrative stores on a single SQLite file.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/dramaturge/internal/director/storage/sqlite/migrations"
	"github.com/louisbranch/dramaturge/internal/platform/storage/sqlitemigrate"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable DB columns.
func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// fromNullMillis maps nullable SQL timestamps back into optional domain time values.
func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// toJSON serializes id sets and string maps into a TEXT column. Nil slices
// and maps collapse to their empty literal so scans never see SQL NULL.
func toJSON(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	encoded := string(raw)
	if encoded == "null" {
		switch value.(type) {
		case map[string]string:
			return "{}", nil
		default:
			return "[]", nil
		}
	}
	return encoded, nil
}

// fromJSON restores a TEXT column into the provided destination.
func fromJSON(raw string, dest any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}

const defaultListLimit = 100

// boundedLimit applies the store default when callers pass zero.
func boundedLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// Store provides a SQLite-backed store implementing every narrative storage
// interface.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the narrative store at the provided path and applies embedded
// migrations before handing the store to higher layers.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
