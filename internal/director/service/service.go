// Package service implements the narrative orchestration use cases on top of
// the storage contracts. Every write goes through a version-guarded update;
// conflicts surface unmodified so callers can retry.
package service

import (
	"context"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
	"github.com/louisbranch/dramaturge/internal/platform/id"
)

// Notifier receives user-facing notification intents for narrative events.
// Implementations must be safe for concurrent use.
type Notifier interface {
	BeatPublished(ctx context.Context, beat narrative.Beat) error
	ActionCompleted(ctx context.Context, action narrative.Action) error
	StallUrgent(ctx context.Context, stall narrative.Stall) error
}

// Service coordinates directors, arcs, beats, stalls, and curator actions.
type Service struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
	newID    func() (string, error)
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithNotifier routes narrative events to a notification sink.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator injects a deterministic id source for tests.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New constructs a Service over the provided store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// notifyBeatPublished is nil-safe; notification failures never fail the write.
func (s *Service) notifyBeatPublished(ctx context.Context, beat narrative.Beat) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.BeatPublished(ctx, beat)
}

func (s *Service) notifyActionCompleted(ctx context.Context, action narrative.Action) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.ActionCompleted(ctx, action)
}

func (s *Service) notifyStallUrgent(ctx context.Context, stall narrative.Stall) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.StallUrgent(ctx, stall)
}
