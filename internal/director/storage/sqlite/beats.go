package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

const beatColumns = `id, league_id, beat_type, title, description, phase,
tension_impact, occurred_at, created_at, parent_beat_ids, child_beat_ids,
arc_id, week_number, involved_player_ids, metadata, status, published_at, version`

// CreateBeat inserts a new beat at version 1.
func (s *Store) CreateBeat(ctx context.Context, beat narrative.Beat) (storage.BeatRecord, error) {
	parents, err := toJSON(beat.ParentBeatIDs)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	children, err := toJSON(beat.ChildBeatIDs)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	players, err := toJSON(beat.InvolvedPlayerIDs)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	metadata, err := toJSON(beat.Metadata)
	if err != nil {
		return storage.BeatRecord{}, err
	}

	_, err = s.sqlDB.ExecContext(ctx, `INSERT INTO beats (`+beatColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		string(beat.ID), beat.LeagueID, string(beat.Type), beat.Title, beat.Description,
		string(beat.Phase), beat.TensionImpact,
		toMillis(beat.OccurredAt), toMillis(beat.CreatedAt),
		parents, children, string(beat.ArcID), beat.WeekNumber,
		players, metadata, string(beat.Status), toNullMillis(beat.PublishedAt))
	if err != nil {
		return storage.BeatRecord{}, fmt.Errorf("insert beat: %w", err)
	}

	return storage.BeatRecord{Beat: beat, Version: 1}, nil
}

// GetBeat loads a beat by id.
func (s *Store) GetBeat(ctx context.Context, id narrative.BeatID) (storage.BeatRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+beatColumns+` FROM beats WHERE id = ?`, string(id))
	return scanBeat(row)
}

// UpdateBeat writes back a mutated record guarded by its version.
func (s *Store) UpdateBeat(ctx context.Context, record storage.BeatRecord) (storage.BeatRecord, error) {
	parents, err := toJSON(record.ParentBeatIDs)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	children, err := toJSON(record.ChildBeatIDs)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	players, err := toJSON(record.InvolvedPlayerIDs)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	metadata, err := toJSON(record.Metadata)
	if err != nil {
		return storage.BeatRecord{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `UPDATE beats SET
title = ?, description = ?, phase = ?, tension_impact = ?, occurred_at = ?,
parent_beat_ids = ?, child_beat_ids = ?, arc_id = ?, week_number = ?,
involved_player_ids = ?, metadata = ?, status = ?, published_at = ?, version = version + 1
WHERE id = ? AND version = ?`,
		record.Title, record.Description, string(record.Phase),
		record.TensionImpact, toMillis(record.OccurredAt),
		parents, children, string(record.ArcID), record.WeekNumber,
		players, metadata, string(record.Status), toNullMillis(record.PublishedAt),
		string(record.ID), record.Version)
	if err != nil {
		return storage.BeatRecord{}, fmt.Errorf("update beat: %w", err)
	}

	if err := checkVersionedWrite(result, func() (bool, error) {
		return s.rowExists(ctx, "beats", string(record.ID))
	}); err != nil {
		return storage.BeatRecord{}, err
	}

	record.Version++
	return record, nil
}

// ListBeatsByLeague returns a league's beats, newest first. A translated
// filter narrows the result set.
func (s *Store) ListBeatsByLeague(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.BeatRecord, error) {
	query := `SELECT ` + beatColumns + ` FROM beats WHERE league_id = ?`
	args := []any{leagueID}
	if opts.Filter.Clause != "" {
		query += " AND " + opts.Filter.Clause
		args = append(args, opts.Filter.Params...)
	}
	query += ` ORDER BY occurred_at DESC LIMIT ? OFFSET ?`
	args = append(args, boundedLimit(opts.Limit), opts.Offset)
	return s.listBeats(ctx, query, args...)
}

// ListBeatsByArc returns an arc's beats in occurrence order.
func (s *Store) ListBeatsByArc(ctx context.Context, arcID narrative.ArcID) ([]storage.BeatRecord, error) {
	return s.listBeats(ctx,
		`SELECT `+beatColumns+` FROM beats WHERE arc_id = ? ORDER BY occurred_at ASC`,
		string(arcID))
}

// LatestBeatTime reports the most recent occurrence millis for a league.
func (s *Store) LatestBeatTime(ctx context.Context, leagueID string) (int64, bool, error) {
	var latest sql.NullInt64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT MAX(occurred_at) FROM beats WHERE league_id = ?`, leagueID).Scan(&latest)
	if err != nil {
		return 0, false, fmt.Errorf("latest beat time: %w", err)
	}
	if !latest.Valid {
		return 0, false, nil
	}
	return latest.Int64, true, nil
}

func (s *Store) listBeats(ctx context.Context, query string, args ...any) ([]storage.BeatRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list beats: %w", err)
	}
	defer rows.Close()

	var records []storage.BeatRecord
	for rows.Next() {
		record, err := scanBeat(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanBeat(row rowScanner) (storage.BeatRecord, error) {
	var record storage.BeatRecord
	var parents, children, players, metadata string
	var occurredAt, createdAt int64
	var publishedAt sql.NullInt64

	err := row.Scan(
		&record.ID, &record.LeagueID, &record.Type, &record.Title, &record.Description,
		&record.Phase, &record.TensionImpact, &occurredAt, &createdAt,
		&parents, &children, &record.ArcID, &record.WeekNumber,
		&players, &metadata, &record.Status, &publishedAt, &record.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.BeatRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.BeatRecord{}, fmt.Errorf("scan beat: %w", err)
	}

	record.OccurredAt = fromMillis(occurredAt)
	record.CreatedAt = fromMillis(createdAt)
	record.PublishedAt = fromNullMillis(publishedAt)
	if err := fromJSON(parents, &record.ParentBeatIDs); err != nil {
		return storage.BeatRecord{}, err
	}
	if err := fromJSON(children, &record.ChildBeatIDs); err != nil {
		return storage.BeatRecord{}, err
	}
	if err := fromJSON(players, &record.InvolvedPlayerIDs); err != nil {
		return storage.BeatRecord{}, err
	}
	if err := fromJSON(metadata, &record.Metadata); err != nil {
		return storage.BeatRecord{}, err
	}
	return record, nil
}
