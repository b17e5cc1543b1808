package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

const directorColumns = `id, league_id, phase, tension_score, tension_level, status,
automation_enabled, active_arc_id, open_stall_ids, pending_action_ids,
stall_threshold_hours, tension_target, auto_generate_beats, auto_resolve_stalls,
beats_generated, stalls_detected, actions_executed,
created_at, updated_at, last_activity_at, version`

// CreateDirector inserts a new director at version 1. A second director for
// the same league violates the unique constraint and maps to a domain error.
func (s *Store) CreateDirector(ctx context.Context, director narrative.Director) (storage.DirectorRecord, error) {
	openStalls, err := toJSON(director.OpenStallIDs)
	if err != nil {
		return storage.DirectorRecord{}, err
	}
	pendingActions, err := toJSON(director.PendingActionIDs)
	if err != nil {
		return storage.DirectorRecord{}, err
	}

	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO directors (`+directorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		string(director.ID), director.LeagueID, string(director.Phase),
		director.TensionScore, string(director.TensionLevel), string(director.Status),
		director.AutomationEnabled, string(director.ActiveArcID), openStalls, pendingActions,
		director.StallThresholdHours, director.TensionTarget,
		director.AutoGenerateBeats, director.AutoResolveStalls,
		director.BeatsGenerated, director.StallsDetected, director.ActionsExecuted,
		toMillis(director.CreatedAt), toMillis(director.UpdatedAt), toMillis(director.LastActivityAt))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.DirectorRecord{}, apperrors.WithMetadata(apperrors.CodeAlreadyExists,
				"league already has a director",
				map[string]string{"league_id": director.LeagueID})
		}
		return storage.DirectorRecord{}, fmt.Errorf("insert director: %w", err)
	}

	return storage.DirectorRecord{Director: director, Version: 1}, nil
}

// GetDirector loads a director by id.
func (s *Store) GetDirector(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+directorColumns+` FROM directors WHERE id = ?`, string(id))
	return scanDirector(row)
}

// GetDirectorByLeague loads the director governing a league.
func (s *Store) GetDirectorByLeague(ctx context.Context, leagueID string) (storage.DirectorRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+directorColumns+` FROM directors WHERE league_id = ?`, leagueID)
	return scanDirector(row)
}

// UpdateDirector writes back a mutated record guarded by its version.
func (s *Store) UpdateDirector(ctx context.Context, record storage.DirectorRecord) (storage.DirectorRecord, error) {
	openStalls, err := toJSON(record.OpenStallIDs)
	if err != nil {
		return storage.DirectorRecord{}, err
	}
	pendingActions, err := toJSON(record.PendingActionIDs)
	if err != nil {
		return storage.DirectorRecord{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE directors SET
phase = ?, tension_score = ?, tension_level = ?, status = ?,
automation_enabled = ?, active_arc_id = ?, open_stall_ids = ?, pending_action_ids = ?,
stall_threshold_hours = ?, tension_target = ?, auto_generate_beats = ?, auto_resolve_stalls = ?,
beats_generated = ?, stalls_detected = ?, actions_executed = ?,
updated_at = ?, last_activity_at = ?, version = version + 1
WHERE id = ? AND version = ?`,
		string(record.Phase), record.TensionScore, string(record.TensionLevel), string(record.Status),
		record.AutomationEnabled, string(record.ActiveArcID), openStalls, pendingActions,
		record.StallThresholdHours, record.TensionTarget,
		record.AutoGenerateBeats, record.AutoResolveStalls,
		record.BeatsGenerated, record.StallsDetected, record.ActionsExecuted,
		toMillis(record.UpdatedAt), toMillis(record.LastActivityAt),
		string(record.ID), record.Version)
	if err != nil {
		return storage.DirectorRecord{}, fmt.Errorf("update director: %w", err)
	}

	if err := checkVersionedWrite(result, func() (bool, error) {
		return s.rowExists(ctx, "directors", string(record.ID))
	}); err != nil {
		return storage.DirectorRecord{}, err
	}

	record.Version++
	return record, nil
}

// ListDirectors returns every director, oldest first.
func (s *Store) ListDirectors(ctx context.Context, opts storage.ListOptions) ([]storage.DirectorRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+directorColumns+` FROM directors ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		boundedLimit(opts.Limit), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list directors: %w", err)
	}
	defer rows.Close()

	var records []storage.DirectorRecord
	for rows.Next() {
		record, err := scanDirector(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDirector(row rowScanner) (storage.DirectorRecord, error) {
	var record storage.DirectorRecord
	var openStalls, pendingActions string
	var createdAt, updatedAt, lastActivityAt int64

	err := row.Scan(
		&record.ID, &record.LeagueID, &record.Phase, &record.TensionScore,
		&record.TensionLevel, &record.Status, &record.AutomationEnabled,
		&record.ActiveArcID, &openStalls, &pendingActions,
		&record.StallThresholdHours, &record.TensionTarget,
		&record.AutoGenerateBeats, &record.AutoResolveStalls,
		&record.BeatsGenerated, &record.StallsDetected, &record.ActionsExecuted,
		&createdAt, &updatedAt, &lastActivityAt, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.DirectorRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.DirectorRecord{}, fmt.Errorf("scan director: %w", err)
	}

	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	record.LastActivityAt = fromMillis(lastActivityAt)
	if err := fromJSON(openStalls, &record.OpenStallIDs); err != nil {
		return storage.DirectorRecord{}, err
	}
	if err := fromJSON(pendingActions, &record.PendingActionIDs); err != nil {
		return storage.DirectorRecord{}, err
	}
	return record, nil
}

// checkVersionedWrite distinguishes a stale version from a missing row after
// an UPDATE guarded by both id and version matched nothing.
func checkVersionedWrite(result sql.Result, exists func() (bool, error)) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	found, err := exists()
	if err != nil {
		return err
	}
	if !found {
		return storage.ErrNotFound
	}
	return storage.ErrVersionConflict
}

func (s *Store) rowExists(ctx context.Context, table, id string) (bool, error) {
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE id = ?", table), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check %s existence: %w", table, err)
	}
	return count > 0, nil
}

// isUniqueViolation matches the driver's UNIQUE constraint failure text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
