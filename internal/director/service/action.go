package service

import (
	"context"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

// CreateAction builds a curator action for the director's league and queues
// it. A blank initiator produces an automated action.
func (s *Service) CreateAction(ctx context.Context, directorID narrative.DirectorID, input narrative.ActionInput, initiatedBy string) (storage.ActionRecord, error) {
	director, err := s.store.GetDirector(ctx, directorID)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	input.LeagueID = director.LeagueID

	var action narrative.Action
	if initiatedBy == "" {
		action, err = narrative.NewAutomatedAction(input, s.now, s.newID)
	} else {
		action, err = narrative.NewManualAction(input, initiatedBy, s.now, s.newID)
	}
	if err != nil {
		return storage.ActionRecord{}, err
	}

	record, err := s.store.CreateAction(ctx, action)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if err := director.QueueAction(action.ID, s.now()); err != nil {
		return storage.ActionRecord{}, err
	}
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return storage.ActionRecord{}, err
	}
	return record, nil
}

// GetAction loads a curator action by id.
func (s *Service) GetAction(ctx context.Context, id narrative.ActionID) (storage.ActionRecord, error) {
	return s.store.GetAction(ctx, id)
}

// ListActions returns a league's actions, newest first.
func (s *Service) ListActions(ctx context.Context, leagueID string, opts storage.ListOptions) ([]storage.ActionRecord, error) {
	return s.store.ListActionsByLeague(ctx, leagueID, opts)
}

// ListPendingActions returns the cross-league execution queue, oldest first.
func (s *Service) ListPendingActions(ctx context.Context, opts storage.ListOptions) ([]storage.ActionRecord, error) {
	return s.store.ListActionsByStatus(ctx, narrative.ActionPending, opts)
}

// StartAction moves a pending action into execution.
func (s *Service) StartAction(ctx context.Context, id narrative.ActionID) (storage.ActionRecord, error) {
	record, err := s.store.GetAction(ctx, id)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if err := record.StartExecution(s.now()); err != nil {
		return storage.ActionRecord{}, err
	}
	return s.store.UpdateAction(ctx, record)
}

// CompleteAction finishes an in-progress action, releases its pending slot on
// the director, and raises a notification intent.
func (s *Service) CompleteAction(ctx context.Context, id narrative.ActionID, results map[string]string) (storage.ActionRecord, error) {
	record, err := s.finishAction(ctx, id, func(action *narrative.Action) error {
		return action.Complete(results, s.now())
	})
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if err := s.notifyActionCompleted(ctx, record.Action); err != nil {
		return storage.ActionRecord{}, err
	}
	return record, nil
}

// FailAction marks the action failed and releases its pending slot.
func (s *Service) FailAction(ctx context.Context, id narrative.ActionID, reason string) (storage.ActionRecord, error) {
	return s.finishAction(ctx, id, func(action *narrative.Action) error {
		return action.Fail(reason, s.now())
	})
}

// CancelAction withdraws a pending action and releases its pending slot.
func (s *Service) CancelAction(ctx context.Context, id narrative.ActionID, reason string) (storage.ActionRecord, error) {
	return s.finishAction(ctx, id, func(action *narrative.Action) error {
		return action.Cancel(reason, s.now())
	})
}

// finishAction applies a terminal transition and releases the director's
// pending slot. Failures and cancellations release the slot the same way a
// completion does.
func (s *Service) finishAction(ctx context.Context, id narrative.ActionID, finish func(*narrative.Action) error) (storage.ActionRecord, error) {
	record, err := s.store.GetAction(ctx, id)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if err := finish(&record.Action); err != nil {
		return storage.ActionRecord{}, err
	}
	record, err = s.store.UpdateAction(ctx, record)
	if err != nil {
		return storage.ActionRecord{}, err
	}

	director, err := s.store.GetDirectorByLeague(ctx, record.LeagueID)
	if err != nil {
		return storage.ActionRecord{}, err
	}
	if err := director.CompleteAction(record.ID, s.now()); err != nil {
		return storage.ActionRecord{}, err
	}
	if _, err := s.store.UpdateDirector(ctx, director); err != nil {
		return storage.ActionRecord{}, err
	}
	return record, nil
}

// ListDirectors returns every stored director, oldest first.
func (s *Service) ListDirectors(ctx context.Context, opts storage.ListOptions) ([]storage.DirectorRecord, error) {
	return s.store.ListDirectors(ctx, opts)
}

// AdjustTensionTowardsTarget nudges a director one point toward its target.
func (s *Service) AdjustTensionTowardsTarget(ctx context.Context, id narrative.DirectorID) (storage.DirectorRecord, error) {
	record, err := s.store.GetDirector(ctx, id)
	if err != nil {
		return storage.DirectorRecord{}, err
	}
	if record.TensionScore == record.TensionTarget {
		return record, nil
	}
	record.AdjustTensionTowardsTarget(s.now())
	return s.store.UpdateDirector(ctx, record)
}
