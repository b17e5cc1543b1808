package service

import (
	"context"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

// CreateDirector provisions the single director for a league.
func (s *Service) CreateDirector(ctx context.Context, leagueID string) (storage.DirectorRecord, error) {
	director, err := narrative.NewDirector(leagueID, s.now, s.newID)
	if err != nil {
		return storage.DirectorRecord{}, err
	}
	return s.store.CreateDirector(ctx, director)
}

// GetDirector loads a director by id.
func (s *Service) GetDirector(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	return s.store.GetDirector(ctx, id)
}

// GetDirectorByLeague loads the director governing a league.
func (s *Service) GetDirectorByLeague(ctx context.Context, leagueID string) (storage.DirectorRecord, error) {
	return s.store.GetDirectorByLeague(ctx, leagueID)
}

// mutateDirector funnels every director write through one load-mutate-update
// path so the version guard cannot be skipped.
func (s *Service) mutateDirector(ctx context.Context, id narrative.DirectorID, mutate func(*narrative.Director, time.Time) error) (storage.DirectorRecord, error) {
	record, err := s.store.GetDirector(ctx, id)
	if err != nil {
		return storage.DirectorRecord{}, err
	}
	if err := mutate(&record.Director, s.now()); err != nil {
		return storage.DirectorRecord{}, err
	}
	return s.store.UpdateDirector(ctx, record)
}

// PauseDirector halts automated orchestration for the league.
func (s *Service) PauseDirector(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.Pause(now)
	})
}

// ResumeDirector restarts a paused director.
func (s *Service) ResumeDirector(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.Resume(now)
	})
}

// SuspendDirector halts the director from any state and disables automation.
func (s *Service) SuspendDirector(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		d.Suspend(now)
		return nil
	})
}

// ReactivateDirector restores a suspended director; automation stays off.
func (s *Service) ReactivateDirector(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.Reactivate(now)
	})
}

// SetAutomation toggles automated action issuing.
func (s *Service) SetAutomation(ctx context.Context, id narrative.DirectorID, enabled bool) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		if enabled {
			d.EnableAutomation(now)
		} else {
			d.DisableAutomation(now)
		}
		return nil
	})
}

// SetStallDetectionThreshold tunes the inactivity window in hours.
func (s *Service) SetStallDetectionThreshold(ctx context.Context, id narrative.DirectorID, hours int) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.SetStallDetectionThreshold(hours, now)
	})
}

// SetTensionTarget tunes the score automation converges on.
func (s *Service) SetTensionTarget(ctx context.Context, id narrative.DirectorID, score int) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.SetTensionTarget(score, now)
	})
}

// SetAutoGenerateBeats toggles automated beat generation.
func (s *Service) SetAutoGenerateBeats(ctx context.Context, id narrative.DirectorID, enabled bool) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		d.SetAutoGenerateBeats(enabled, now)
		return nil
	})
}

// SetAutoResolveStalls toggles automated stall resolution.
func (s *Service) SetAutoResolveStalls(ctx context.Context, id narrative.DirectorID, enabled bool) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		d.SetAutoResolveStalls(enabled, now)
		return nil
	})
}

// AdvanceDirectorPhase moves the league narrative one phase forward.
func (s *Service) AdvanceDirectorPhase(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.AdvancePhase(now)
	})
}

// OverrideDirectorPhase sets the phase directly, the curator escape hatch.
func (s *Service) OverrideDirectorPhase(ctx context.Context, id narrative.DirectorID, phase narrative.Phase) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		return d.OverridePhase(phase, now)
	})
}

// ApplyTensionImpact applies a phase-scaled tension change to the league.
func (s *Service) ApplyTensionImpact(ctx context.Context, id narrative.DirectorID, impact int) (storage.DirectorRecord, error) {
	return s.mutateDirector(ctx, id, func(d *narrative.Director, now time.Time) error {
		d.ApplyTensionImpact(impact, now)
		return nil
	})
}
