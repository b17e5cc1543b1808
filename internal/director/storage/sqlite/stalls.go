package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

const stallColumns = `id, league_id, stall_type, description, severity,
detected_at, stall_started_at, duration_hours, affected_player_ids, diagnostics,
status, resolved_at, resolution_action, resolution_notes, version`

// CreateStall inserts a new stall condition at version 1.
func (s *Store) CreateStall(ctx context.Context, stall narrative.Stall) (storage.StallRecord, error) {
	players, err := toJSON(stall.AffectedPlayerIDs)
	if err != nil {
		return storage.StallRecord{}, err
	}
	diagnostics, err := toJSON(stall.Diagnostics)
	if err != nil {
		return storage.StallRecord{}, err
	}

	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO stalls (`+stallColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		string(stall.ID), stall.LeagueID, string(stall.Type), stall.Description,
		string(stall.Severity), toMillis(stall.DetectedAt), toMillis(stall.StallStartedAt),
		stall.DurationHours, players, diagnostics,
		string(stall.Status), toNullMillis(stall.ResolvedAt),
		string(stall.ResolutionAction), stall.ResolutionNotes)
	if err != nil {
		return storage.StallRecord{}, fmt.Errorf("insert stall: %w", err)
	}

	return storage.StallRecord{Stall: stall, Version: 1}, nil
}

// GetStall loads a stall condition by id.
func (s *Store) GetStall(ctx context.Context, id narrative.StallID) (storage.StallRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+stallColumns+` FROM stalls WHERE id = ?`, string(id))
	return scanStall(row)
}

// UpdateStall writes back a mutated record guarded by its version.
func (s *Store) UpdateStall(ctx context.Context, record storage.StallRecord) (storage.StallRecord, error) {
	players, err := toJSON(record.AffectedPlayerIDs)
	if err != nil {
		return storage.StallRecord{}, err
	}
	diagnostics, err := toJSON(record.Diagnostics)
	if err != nil {
		return storage.StallRecord{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE stalls SET
description = ?, severity = ?, duration_hours = ?,
affected_player_ids = ?, diagnostics = ?, status = ?, resolved_at = ?,
resolution_action = ?, resolution_notes = ?, version = version + 1
WHERE id = ? AND version = ?`,
		record.Description, string(record.Severity), record.DurationHours,
		players, diagnostics, string(record.Status), toNullMillis(record.ResolvedAt),
		string(record.ResolutionAction), record.ResolutionNotes,
		string(record.ID), record.Version)
	if err != nil {
		return storage.StallRecord{}, fmt.Errorf("update stall: %w", err)
	}

	if err := checkVersionedWrite(result, func() (bool, error) {
		return s.rowExists(ctx, "stalls", string(record.ID))
	}); err != nil {
		return storage.StallRecord{}, err
	}

	record.Version++
	return record, nil
}

// ListStallsByLeague returns a league's stalls, newest first. A translated
// filter narrows the result set.
func (s *Store) ListStallsByLeague(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.StallRecord, error) {
	query := `SELECT ` + stallColumns + ` FROM stalls WHERE league_id = ?`
	args := []any{leagueID}
	if opts.Filter.Clause != "" {
		query += " AND " + opts.Filter.Clause
		args = append(args, opts.Filter.Params...)
	}
	query += ` ORDER BY detected_at DESC LIMIT ? OFFSET ?`
	args = append(args, boundedLimit(opts.Limit), opts.Offset)
	return s.listStalls(ctx, query, args...)
}

// ListOpenStalls returns unresolved stalls across leagues, oldest first so
// the longest-running conditions surface first.
func (s *Store) ListOpenStalls(ctx context.Context, opts storage.ListOptions) ([]storage.StallRecord, error) {
	return s.listStalls(ctx,
		`SELECT `+stallColumns+` FROM stalls WHERE status = ? ORDER BY detected_at ASC LIMIT ? OFFSET ?`,
		string(narrative.StallOpen), boundedLimit(opts.Limit), opts.Offset)
}

func (s *Store) listStalls(ctx context.Context, query string, args ...any) ([]storage.StallRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stalls: %w", err)
	}
	defer rows.Close()

	var records []storage.StallRecord
	for rows.Next() {
		record, err := scanStall(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanStall(row rowScanner) (storage.StallRecord, error) {
	var record storage.StallRecord
	var players, diagnostics string
	var detectedAt, stallStartedAt int64
	var resolvedAt sql.NullInt64

	err := row.Scan(
		&record.ID, &record.LeagueID, &record.Type, &record.Description,
		&record.Severity, &detectedAt, &stallStartedAt, &record.DurationHours,
		&players, &diagnostics, &record.Status, &resolvedAt,
		&record.ResolutionAction, &record.ResolutionNotes, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.StallRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.StallRecord{}, fmt.Errorf("scan stall: %w", err)
	}

	record.DetectedAt = fromMillis(detectedAt)
	record.StallStartedAt = fromMillis(stallStartedAt)
	record.ResolvedAt = fromNullMillis(resolvedAt)
	if err := fromJSON(players, &record.AffectedPlayerIDs); err != nil {
		return storage.StallRecord{}, err
	}
	if err := fromJSON(diagnostics, &record.Diagnostics); err != nil {
		return storage.StallRecord{}, err
	}
	return record, nil
}
