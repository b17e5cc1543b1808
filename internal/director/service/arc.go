package service

import (
	"context"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

// StartArc creates a new arc for the director's league and makes it the
// active arc.
func (s *Service) StartArc(ctx context.Context, directorID narrative.DirectorID, input narrative.ArcInput) (storage.ArcRecord, error) {
	director, err := s.store.GetDirector(ctx, directorID)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	input.LeagueID = director.LeagueID

	arc, err := narrative.NewArc(input, s.now, s.newID)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	record, err := s.store.CreateArc(ctx, arc)
	if err != nil {
		return storage.ArcRecord{}, err
	}

	if err := director.SetActiveArc(arc.ID, s.now()); err != nil {
		return storage.ArcRecord{}, err
	}
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return storage.ArcRecord{}, err
	}
	return record, nil
}

// GetArc loads an arc by id.
func (s *Service) GetArc(ctx context.Context, id narrative.ArcID) (storage.ArcRecord, error) {
	return s.store.GetArc(ctx, id)
}

// ListArcs returns a league's arcs, newest first.
func (s *Service) ListArcs(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.ArcRecord, error) {
	return s.store.ListArcsByLeague(ctx, leagueID, opts)
}

// AppendBeat builds a beat inside an arc, chains it to the arc's previous
// beat, and feeds its tension impact into the league director.
func (s *Service) AppendBeat(ctx context.Context, arcID narrative.ArcID, input narrative.BeatInput) (storage.BeatRecord, error) {
	arc, err := s.store.GetArc(ctx, arcID)
	if err != nil {
		return storage.BeatRecord{}, err
	}

	input.LeagueID = arc.LeagueID
	input.ArcID = arc.ID
	if input.Phase == "" {
		input.Phase = arc.Phase
	}
	beat, err := narrative.NewBeat(input, s.now, s.newID)
	if err != nil {
		return storage.BeatRecord{}, err
	}

	// Chain the new beat after the arc's latest beat so the DAG mirrors the
	// narrative order. The edges are staged in memory only; the previous
	// beat's row is not touched until the arc has accepted the new beat, so a
	// refused append leaves no dangling child edge behind.
	var previous storage.BeatRecord
	chained := false
	if count := arc.BeatCount(); count > 0 {
		previousID := arc.BeatIDs[count-1]
		previous, err = s.store.GetBeat(ctx, previousID)
		if err != nil {
			return storage.BeatRecord{}, err
		}
		if err := beat.AddParent(previous.ID); err != nil {
			return storage.BeatRecord{}, err
		}
		if err := previous.AddChild(beat.ID); err != nil {
			return storage.BeatRecord{}, err
		}
		chained = true
	}

	if err := arc.AddBeat(beat, s.now()); err != nil {
		return storage.BeatRecord{}, err
	}

	record, err := s.store.CreateBeat(ctx, beat)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	if chained {
		if _, err := s.store.UpdateBeat(ctx, previous); err != nil {
			return storage.BeatRecord{}, err
		}
	}
	if _, err := s.store.UpdateArc(ctx, arc); err != nil {
		return storage.BeatRecord{}, err
	}

	director, err := s.store.GetDirectorByLeague(ctx, arc.LeagueID)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	now := s.now()
	director.ApplyTensionImpact(beat.TensionImpact, now)
	director.RecordBeatGenerated(now)
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return storage.BeatRecord{}, err
	}

	return record, nil
}

// GetBeat loads a beat by id.
func (s *Service) GetBeat(ctx context.Context, id narrative.BeatID) (storage.BeatRecord, error) {
	return s.store.GetBeat(ctx, id)
}

// ListBeats returns a league's beats, newest first. Options may carry a
// translated AIP-160 filter.
func (s *Service) ListBeats(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.BeatRecord, error) {
	return s.store.ListBeatsByLeague(ctx, leagueID, opts)
}

// PublishBeat releases a draft beat and raises a notification intent.
func (s *Service) PublishBeat(ctx context.Context, id narrative.BeatID) (storage.BeatRecord, error) {
	record, err := s.store.GetBeat(ctx, id)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	if err := record.Publish(s.now()); err != nil {
		return storage.BeatRecord{}, err
	}
	record, err = s.store.UpdateBeat(ctx, record)
	if err != nil {
		return storage.BeatRecord{}, err
	}
	if err := s.notifyBeatPublished(ctx, record.Beat); err != nil {
		return storage.BeatRecord{}, err
	}
	return record, nil
}

// CompleteArc closes the arc and clears it from the director when active.
func (s *Service) CompleteArc(ctx context.Context, id narrative.ArcID) (storage.ArcRecord, error) {
	return s.closeArc(ctx, id, func(arc *narrative.Arc, now time.Time) error {
		return arc.Complete(now)
	})
}

// ArchiveArc retires a completed arc.
func (s *Service) ArchiveArc(ctx context.Context, id narrative.ArcID) (storage.ArcRecord, error) {
	record, err := s.store.GetArc(ctx, id)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	if err := record.Archive(s.now()); err != nil {
		return storage.ArcRecord{}, err
	}
	return s.store.UpdateArc(ctx, record)
}

// PauseArc suspends an active arc.
func (s *Service) PauseArc(ctx context.Context, id narrative.ArcID) (storage.ArcRecord, error) {
	record, err := s.store.GetArc(ctx, id)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	if err := record.Pause(s.now()); err != nil {
		return storage.ArcRecord{}, err
	}
	return s.store.UpdateArc(ctx, record)
}

// ResumeArc reactivates a paused arc.
func (s *Service) ResumeArc(ctx context.Context, id narrative.ArcID) (storage.ArcRecord, error) {
	record, err := s.store.GetArc(ctx, id)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	if err := record.Resume(s.now()); err != nil {
		return storage.ArcRecord{}, err
	}
	return s.store.UpdateArc(ctx, record)
}

func (s *Service) closeArc(ctx context.Context, id narrative.ArcID, close func(*narrative.Arc, time.Time) error) (storage.ArcRecord, error) {
	record, err := s.store.GetArc(ctx, id)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	if err := close(&record.Arc, s.now()); err != nil {
		return storage.ArcRecord{}, err
	}
	record, err = s.store.UpdateArc(ctx, record)
	if err != nil {
		return storage.ArcRecord{}, err
	}

	director, err := s.store.GetDirectorByLeague(ctx, record.LeagueID)
	if err != nil {
		return storage.ArcRecord{}, err
	}
	if director.ActiveArcID == record.ID {
		director.ClearActiveArc(s.now())
		if _, err := s.store.UpdateDirector(ctx, director); err != nil {
			return storage.ArcRecord{}, err
		}
	}
	return record, nil
}
