package service

import (
	"context"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

// DetectStalls runs the standing stagnation checks for one director and
// returns the stalls it raised. Paused and suspended directors are skipped.
func (s *Service) DetectStalls(ctx context.Context, directorID narrative.DirectorID) ([]storage.StallRecord, error) {
	director, err := s.store.GetDirector(ctx, directorID)
	if err != nil {
		return nil, err
	}
	if !director.IsOperational() {
		return nil, nil
	}
	now := s.now().UTC()

	open, err := s.openStallTypes(ctx, director.LeagueID)
	if err != nil {
		return nil, err
	}

	var raised []storage.StallRecord

	// Narrative gap: no beat has landed inside the detection window.
	if !open[narrative.StallNarrativeGap] {
		lastBeat := director.CreatedAt
		if latest, ok, err := s.store.LatestBeatTime(ctx, director.LeagueID); err != nil {
			return nil, err
		} else if ok {
			lastBeat = time.UnixMilli(latest).UTC()
		}
		if int(now.Sub(lastBeat).Hours()) >= director.StallThresholdHours {
			record, err := s.raiseStall(ctx, &director, narrative.StallNarrativeGap, lastBeat, "")
			if err != nil {
				return nil, err
			}
			raised = append(raised, record)
		}
	}

	// Engagement drop: tension sits in a stall-risk band while the league
	// has gone quiet.
	if !open[narrative.StallEngagementDrop] && director.IsTensionLow() && director.IsInactive(now) {
		record, err := s.raiseStall(ctx, &director, narrative.StallEngagementDrop, director.LastActivityAt, "")
		if err != nil {
			return nil, err
		}
		raised = append(raised, record)
	}

	if len(raised) == 0 {
		return nil, nil
	}
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return nil, err
	}
	return raised, nil
}

// DetectSpecificStall raises one stall of the given type for the director's
// league and registers it.
func (s *Service) DetectSpecificStall(ctx context.Context, directorID narrative.DirectorID, typ narrative.StallType, startedAt time.Time, description string) (storage.StallRecord, error) {
	director, err := s.store.GetDirector(ctx, directorID)
	if err != nil {
		return storage.StallRecord{}, err
	}
	record, err := s.raiseStall(ctx, &director, typ, startedAt, description)
	if err != nil {
		return storage.StallRecord{}, err
	}
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return storage.StallRecord{}, err
	}
	return record, nil
}

// raiseStall creates and registers one stall, notifies when urgent, and
// queues the recommended action when automation allows. The director record
// is mutated in place; the caller persists it.
func (s *Service) raiseStall(ctx context.Context, director *storage.DirectorRecord, typ narrative.StallType, startedAt time.Time, description string) (storage.StallRecord, error) {
	stall, err := narrative.DetectStall(director.LeagueID, typ, startedAt, description, s.now, s.newID)
	if err != nil {
		return storage.StallRecord{}, err
	}
	record, err := s.store.CreateStall(ctx, stall)
	if err != nil {
		return storage.StallRecord{}, err
	}
	if err := director.RegisterStall(stall.ID, s.now()); err != nil {
		return storage.StallRecord{}, err
	}

	if record.RequiresImmediateAttention() {
		if err := s.notifyStallUrgent(ctx, record.Stall); err != nil {
			return storage.StallRecord{}, err
		}
	}

	if director.CanRunAutomation() && director.AutoResolveStalls {
		recommended := typ.RecommendedAction()
		if recommended.IsAutomatable() {
			action, err := narrative.NewAutomatedAction(narrative.ActionInput{
				LeagueID:       director.LeagueID,
				Type:           recommended,
				Description:    "Recommended response to " + string(typ) + " stall",
				RelatedStallID: stall.ID,
			}, s.now, s.newID)
			if err != nil {
				return storage.StallRecord{}, err
			}
			if _, err := s.store.CreateAction(ctx, action); err != nil {
				return storage.StallRecord{}, err
			}
			if err := director.QueueAction(action.ID, s.now()); err != nil {
				return storage.StallRecord{}, err
			}
		}
	}

	return record, nil
}

// ResolveStall closes a stall and releases it from the league director.
func (s *Service) ResolveStall(ctx context.Context, id narrative.StallID, action narrative.ActionType, notes string) (storage.StallRecord, error) {
	record, err := s.store.GetStall(ctx, id)
	if err != nil {
		return storage.StallRecord{}, err
	}
	if err := record.Resolve(action, notes, s.now()); err != nil {
		return storage.StallRecord{}, err
	}
	record, err = s.store.UpdateStall(ctx, record)
	if err != nil {
		return storage.StallRecord{}, err
	}

	director, err := s.store.GetDirectorByLeague(ctx, record.LeagueID)
	if err != nil {
		return storage.StallRecord{}, err
	}
	if err := director.ResolveStall(record.ID, s.now()); err != nil {
		return storage.StallRecord{}, err
	}
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return storage.StallRecord{}, err
	}
	return record, nil
}

// GetStall loads a stall by id.
func (s *Service) GetStall(ctx context.Context, id narrative.StallID) (storage.StallRecord, error) {
	return s.store.GetStall(ctx, id)
}

// ListStalls returns a league's stalls, newest first. Options may carry a
// translated AIP-160 filter.
func (s *Service) ListStalls(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.StallRecord, error) {
	return s.store.ListStallsByLeague(ctx, leagueID, opts)
}

// ListOpenStalls returns unresolved stalls across leagues, oldest first.
func (s *Service) ListOpenStalls(ctx context.Context, opts storage.ListOptions) ([]storage.StallRecord, error) {
	return s.store.ListOpenStalls(ctx, opts)
}

// RefreshStallDuration recomputes an open stall's elapsed hours.
func (s *Service) RefreshStallDuration(ctx context.Context, id narrative.StallID) (storage.StallRecord, error) {
	record, err := s.store.GetStall(ctx, id)
	if err != nil {
		return storage.StallRecord{}, err
	}
	if err := record.UpdateDuration(s.now()); err != nil {
		return storage.StallRecord{}, err
	}
	return s.store.UpdateStall(ctx, record)
}

// openStallTypes indexes the league's currently open stall types so the
// standing checks do not raise duplicates.
func (s *Service) openStallTypes(ctx context.Context, leagueID string) (map[narrative.StallType]bool, error) {
	stalls, err := s.store.ListStallsByLeague(ctx, leagueID, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	open := make(map[narrative.StallType]bool)
	for _, stall := range stalls {
		if !stall.IsResolved() {
			open[stall.Type] = true
		}
	}
	return open, nil
}
