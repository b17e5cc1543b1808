package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/dramaturge/internal/director/notify"
	"github.com/louisbranch/dramaturge/internal/director/storage"
)

// GetIntentByDedupeKey returns the stored intent for a league and dedupe key.
func (s *Store) GetIntentByDedupeKey(ctx context.Context, leagueID, dedupeKey string) (notify.Intent, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, league_id, topic, payload_json, dedupe_key, created_at
FROM notification_intents WHERE league_id = ? AND dedupe_key = ?`, leagueID, dedupeKey)
	return scanIntent(row)
}

// PutIntent persists one notification intent.
func (s *Store) PutIntent(ctx context.Context, intent notify.Intent) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO notification_intents (id, league_id, topic, payload_json, dedupe_key, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		intent.ID, intent.LeagueID, intent.Topic, intent.PayloadJSON,
		intent.DedupeKey, toMillis(intent.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert notification intent: %w", err)
	}
	return nil
}

// ListIntentsByLeague returns a league's intents, newest first.
func (s *Store) ListIntentsByLeague(ctx context.Context, leagueID string, limit int) ([]notify.Intent, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, league_id, topic, payload_json, dedupe_key, created_at
FROM notification_intents WHERE league_id = ? ORDER BY created_at DESC LIMIT ?`,
		leagueID, boundedLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list notification intents: %w", err)
	}
	defer rows.Close()

	var intents []notify.Intent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, rows.Err()
}

func scanIntent(row rowScanner) (notify.Intent, error) {
	var intent notify.Intent
	var createdAt int64

	err := row.Scan(&intent.ID, &intent.LeagueID, &intent.Topic,
		&intent.PayloadJSON, &intent.DedupeKey, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return notify.Intent{}, storage.ErrNotFound
	}
	if err != nil {
		return notify.Intent{}, fmt.Errorf("scan notification intent: %w", err)
	}

	intent.CreatedAt = fromMillis(createdAt)
	return intent, nil
}
