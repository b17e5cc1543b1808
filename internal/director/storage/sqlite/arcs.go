package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

const arcColumns = `id, league_id, title, description, status, phase,
beat_ids, root_beat_id, involved_player_ids, peak_tension,
created_at, updated_at, completed_at, version`

// CreateArc inserts a new arc at version 1.
func (s *Store) CreateArc(ctx context.Context, arc narrative.Arc) (storage.ArcRecord, error) {
	beatIDs, err := toJSON(arc.BeatIDs)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	players, err := toJSON(arc.InvolvedPlayerIDs)
	if err != nil {
		return storage.ArcRecord{}, err
	}

	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO arcs (`+arcColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		string(arc.ID), arc.LeagueID, arc.Title, arc.Description,
		string(arc.Status), string(arc.Phase),
		beatIDs, string(arc.RootBeatID), players, arc.PeakTension,
		toMillis(arc.CreatedAt), toMillis(arc.UpdatedAt), toNullMillis(arc.CompletedAt))
	if err != nil {
		return storage.ArcRecord{}, fmt.Errorf("insert arc: %w", err)
	}

	return storage.ArcRecord{Arc: arc, Version: 1}, nil
}

// GetArc loads an arc by id.
func (s *Store) GetArc(ctx context.Context, id narrative.ArcID) (storage.ArcRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+arcColumns+` FROM arcs WHERE id = ?`, string(id))
	return scanArc(row)
}

// UpdateArc writes back a mutated record guarded by its version.
func (s *Store) UpdateArc(ctx context.Context, record storage.ArcRecord) (storage.ArcRecord, error) {
	beatIDs, err := toJSON(record.BeatIDs)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	players, err := toJSON(record.InvolvedPlayerIDs)
	if err != nil {
		return storage.ArcRecord{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE arcs SET
title = ?, description = ?, status = ?, phase = ?,
beat_ids = ?, root_beat_id = ?, involved_player_ids = ?, peak_tension = ?,
updated_at = ?, completed_at = ?, version = version + 1
WHERE id = ? AND version = ?`,
		record.Title, record.Description, string(record.Status), string(record.Phase),
		beatIDs, string(record.RootBeatID), players, record.PeakTension,
		toMillis(record.UpdatedAt), toNullMillis(record.CompletedAt),
		string(record.ID), record.Version)
	if err != nil {
		return storage.ArcRecord{}, fmt.Errorf("update arc: %w", err)
	}

	if err := checkVersionedWrite(result, func() (bool, error) {
		return s.rowExists(ctx, "arcs", string(record.ID))
	}); err != nil {
		return storage.ArcRecord{}, err
	}

	record.Version++
	return record, nil
}

// ListArcsByLeague returns a league's arcs, newest first.
func (s *Store) ListArcsByLeague(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.ArcRecord, error) {
	return s.listArcs(ctx,
		`SELECT `+arcColumns+` FROM arcs WHERE league_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		leagueID, boundedLimit(opts.Limit), opts.Offset)
}

// ListArcsByStatus returns arcs in a given status across leagues.
func (s *Store) ListArcsByStatus(ctx context.Context, status narrative.ArcStatus, opts storage.ListOptions) ([]storage.ArcRecord, error) {
	return s.listArcs(ctx,
		`SELECT `+arcColumns+` FROM arcs WHERE status = ? ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		string(status), boundedLimit(opts.Limit), opts.Offset)
}

func (s *Store) listArcs(ctx context.Context, query string, args ...any) ([]storage.ArcRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list arcs: %w", err)
	}
	defer rows.Close()

	var records []storage.ArcRecord
	for rows.Next() {
		record, err := scanArc(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanArc(row rowScanner) (storage.ArcRecord, error) {
	var record storage.ArcRecord
	var beatIDs, players string
	var createdAt, updatedAt int64
	var completedAt sql.NullInt64

	err := row.Scan(
		&record.ID, &record.LeagueID, &record.Title, &record.Description,
		&record.Status, &record.Phase, &beatIDs, &record.RootBeatID,
		&players, &record.PeakTension,
		&createdAt, &updatedAt, &completedAt, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ArcRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ArcRecord{}, fmt.Errorf("scan arc: %w", err)
	}

	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	record.CompletedAt = fromNullMillis(completedAt)
	if err := fromJSON(beatIDs, &record.BeatIDs); err != nil {
		return storage.ArcRecord{}, err
	}
	if err := fromJSON(players, &record.InvolvedPlayerIDs); err != nil {
		return storage.ArcRecord{}, err
	}
	return record, nil
}
