// Package storage defines the persistence contracts for narrative state.
package storage

import (
	"context"

	"github.com/louisbranch/dramaturge/internal/director/filter"
	"github.com/louisbranch/dramaturge/internal/narrative"
	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrVersionConflict indicates a concurrent write invalidated the update.
var ErrVersionConflict = apperrors.New(apperrors.CodeVersionConflict, "record version conflict")

// DirectorRecord is a persisted director with its optimistic lock version.
type DirectorRecord struct {
	narrative.Director
	Version int64
}

// ArcRecord is a persisted story arc with its optimistic lock version.
type ArcRecord struct {
	narrative.Arc
	Version int64
}

// BeatRecord is a persisted story beat with its optimistic lock version.
type BeatRecord struct {
	narrative.Beat
	Version int64
}

// StallRecord is a persisted stall condition with its optimistic lock version.
type StallRecord struct {
	narrative.Stall
	Version int64
}

// ActionRecord is a persisted curator action with its optimistic lock version.
type ActionRecord struct {
	narrative.Action
	Version int64
}

// ListOptions bounds and filters list queries.
type ListOptions struct {
	// Filter is an optional AIP-160 expression already translated to SQL.
	Filter filter.SQLCondition
	// Limit caps the result size. Zero means the store default.
	Limit int
	// Offset skips rows for pagination.
	Offset int
}

// DirectorStore persists AI director aggregates.
type DirectorStore interface {
	// CreateDirector inserts a new director at version 1.
	// Returns ErrAlreadyExists semantics via a domain error when the
	// league already has a director.
	CreateDirector(ctx context.Context, director narrative.Director) (DirectorRecord, error)
	// GetDirector loads a director by id.
	GetDirector(ctx context.Context, id narrative.DirectorID) (DirectorRecord, error)
	// GetDirectorByLeague loads the director governing a league.
	GetDirectorByLeague(ctx context.Context, leagueID string) (DirectorRecord, error)
	// UpdateDirector writes back a mutated record. The stored version must
	// match record.Version or ErrVersionConflict is returned.
	UpdateDirector(ctx context.Context, record DirectorRecord) (DirectorRecord, error)
	// ListDirectors returns every director, oldest first.
	ListDirectors(ctx context.Context, opts ListOptions) ([]DirectorRecord, error)
}

// ArcStore persists story arcs.
type ArcStore interface {
	CreateArc(ctx context.Context, arc narrative.Arc) (ArcRecord, error)
	GetArc(ctx context.Context, id narrative.ArcID) (ArcRecord, error)
	UpdateArc(ctx context.Context, record ArcRecord) (ArcRecord, error)
	// ListArcsByLeague returns a league's arcs, newest first.
	ListArcsByLeague(ctx context.Context, leagueID string, opts ListOptions) ([]ArcRecord, error)
	// ListArcsByStatus returns arcs in a given status across leagues.
	ListArcsByStatus(ctx context.Context, status narrative.ArcStatus, opts ListOptions) ([]ArcRecord, error)
}

// BeatStore persists story beats.
type BeatStore interface {
	CreateBeat(ctx context.Context, beat narrative.Beat) (BeatRecord, error)
	GetBeat(ctx context.Context, id narrative.BeatID) (BeatRecord, error)
	UpdateBeat(ctx context.Context, record BeatRecord) (BeatRecord, error)
	// ListBeatsByLeague returns a league's beats ordered by occurrence,
	// newest first. Options may carry a translated beat filter.
	ListBeatsByLeague(ctx context.Context, leagueID string, opts ListOptions) ([]BeatRecord, error)
	// ListBeatsByArc returns an arc's beats in occurrence order.
	ListBeatsByArc(ctx context.Context, arcID narrative.ArcID) ([]BeatRecord, error)
	// LatestBeatTime reports the most recent occurrence time for a league.
	// The bool is false when the league has no beats.
	LatestBeatTime(ctx context.Context, leagueID string) (int64, bool, error)
}

// StallStore persists stall conditions.
type StallStore interface {
	CreateStall(ctx context.Context, stall narrative.Stall) (StallRecord, error)
	GetStall(ctx context.Context, id narrative.StallID) (StallRecord, error)
	UpdateStall(ctx context.Context, record StallRecord) (StallRecord, error)
	// ListStallsByLeague returns a league's stalls, newest first. Options
	// may carry a translated stall filter.
	ListStallsByLeague(ctx context.Context, leagueID string, opts ListOptions) ([]StallRecord, error)
	// ListOpenStalls returns unresolved stalls across leagues, oldest first.
	ListOpenStalls(ctx context.Context, opts ListOptions) ([]StallRecord, error)
}

// ActionStore persists curator actions.
type ActionStore interface {
	CreateAction(ctx context.Context, action narrative.Action) (ActionRecord, error)
	GetAction(ctx context.Context, id narrative.ActionID) (ActionRecord, error)
	UpdateAction(ctx context.Context, record ActionRecord) (ActionRecord, error)
	ListActionsByLeague(ctx context.Context, leagueID string, opts ListOptions) ([]ActionRecord, error)
	// ListActionsByStatus returns actions in a given status, oldest first,
	// so schedulers drain the queue fairly.
	ListActionsByStatus(ctx context.Context, status narrative.ActionStatus, opts ListOptions) ([]ActionRecord, error)
}

// Store aggregates every narrative store behind one handle.
type Store interface {
	DirectorStore
	ArcStore
	BeatStore
	StallStore
	ActionStore

	// Close releases the underlying resources.
	Close() error
}
