package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

const actionColumns = `id, league_id, action_type, description, automated, initiated_by,
status, status_message, created_at, executed_at, completed_at,
related_stall_id, related_arc_id, target_player_ids, parameters, results, version`

// CreateAction inserts a new curator action at version 1.
func (s *Store) CreateAction(ctx context.Context, action narrative.Action) (storage.ActionRecord, error) {
	targets, err := toJSON(action.TargetPlayerIDs)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	parameters, err := toJSON(action.Parameters)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	results, err := toJSON(action.Results)
	if err != nil {
		return storage.ActionRecord{}, err
	}

	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO actions (`+actionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		string(action.ID), action.LeagueID, string(action.Type), action.Description,
		action.Automated, action.InitiatedBy,
		string(action.Status), action.StatusMessage, toMillis(action.CreatedAt),
		toNullMillis(action.ExecutedAt), toNullMillis(action.CompletedAt),
		string(action.RelatedStallID), string(action.RelatedArcID),
		targets, parameters, results)
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("insert action: %w", err)
	}

	return storage.ActionRecord{Action: action, Version: 1}, nil
}

// GetAction loads a curator action by id.
func (s *Store) GetAction(ctx context.Context, id narrative.ActionID) (storage.ActionRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE id = ?`, string(id))
	return scanAction(row)
}

// UpdateAction writes back a mutated record guarded by its version.
func (s *Store) UpdateAction(ctx context.Context, record storage.ActionRecord) (storage.ActionRecord, error) {
	targets, err := toJSON(record.TargetPlayerIDs)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	parameters, err := toJSON(record.Parameters)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	results, err := toJSON(record.Results)
	if err != nil {
		return storage.ActionRecord{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE actions SET
description = ?, status = ?, status_message = ?,
executed_at = ?, completed_at = ?,
target_player_ids = ?, parameters = ?, results = ?, version = version + 1
WHERE id = ? AND version = ?`,
		record.Description, string(record.Status), record.StatusMessage,
		toNullMillis(record.ExecutedAt), toNullMillis(record.CompletedAt),
		targets, parameters, results,
		string(record.ID), record.Version)
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("update action: %w", err)
	}

	if err := checkVersionedWrite(result, func() (bool, error) {
		return s.rowExists(ctx, "actions", string(record.ID))
	}); err != nil {
		return storage.ActionRecord{}, err
	}

	record.Version++
	return record, nil
}

// ListActionsByLeague returns a league's actions, newest first.
func (s *Store) ListActionsByLeague(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.ActionRecord, error) {
	return s.listActions(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE league_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		leagueID, boundedLimit(opts.Limit), opts.Offset)
}

// ListActionsByStatus returns actions in a given status, oldest first, so the
// scheduler drains the queue fairly.
func (s *Store) ListActionsByStatus(ctx context.Context, status narrative.ActionStatus, opts storage.ListOptions) ([]storage.ActionRecord, error) {
	return s.listActions(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE status = ? ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		string(status), boundedLimit(opts.Limit), opts.Offset)
}

func (s *Store) listActions(ctx context.Context, query string, args ...any) ([]storage.ActionRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var records []storage.ActionRecord
	for rows.Next() {
		record, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanAction(row rowScanner) (storage.ActionRecord, error) {
	var record storage.ActionRecord
	var targets, parameters, results string
	var createdAt int64
	var executedAt, completedAt sql.NullInt64

	err := row.Scan(
		&record.ID, &record.LeagueID, &record.Type, &record.Description,
		&record.Automated, &record.InitiatedBy, &record.Status, &record.StatusMessage,
		&createdAt, &executedAt, &completedAt,
		&record.RelatedStallID, &record.RelatedArcID,
		&targets, &parameters, &results, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ActionRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ActionRecord{}, fmt.Errorf("scan action: %w", err)
	}

	record.CreatedAt = fromMillis(createdAt)
	record.ExecutedAt = fromNullMillis(executedAt)
	record.CompletedAt = fromNullMillis(completedAt)
	if err := fromJSON(targets, &record.TargetPlayerIDs); err != nil {
		return storage.ActionRecord{}, err
	}
	if err := fromJSON(parameters, &record.Parameters); err != nil {
		return storage.ActionRecord{}, err
	}
	if err := fromJSON(results, &record.Results); err != nil {
		return storage.ActionRecord{}, err
	}
	return record, nil
}
