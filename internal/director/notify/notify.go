// Package notify turns narrative events into stored notification intents,
// de-duplicated per league so retried writes never double-notify.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
	"github.com/louisbranch/dramaturge/internal/platform/id"
)

// Notification topics produced by the narrative core.
const (
	TopicBeatPublished   = "narrative.beat.published"
	TopicActionCompleted = "narrative.action.completed"
	TopicStallUrgent     = "narrative.stall.urgent"
)

// Intent is one league-targeted notification awaiting delivery.
type Intent struct {
	ID          string
	LeagueID    string
	Topic       string
	PayloadJSON string
	DedupeKey   string
	CreatedAt   time.Time
}

// Store is the persistence boundary for notification intents.
type Store interface {
	// GetIntentByDedupeKey returns the stored intent for a league and dedupe
	// key, or storage.ErrNotFound.
	GetIntentByDedupeKey(ctx context.Context, leagueID, dedupeKey string) (Intent, error)
	// PutIntent persists one intent.
	PutIntent(ctx context.Context, intent Intent) error
	// ListIntentsByLeague returns a league's intents, newest first.
	ListIntentsByLeague(ctx context.Context, leagueID string, limit int) ([]Intent, error)
}

// Service creates notification intents. It satisfies the orchestration
// layer's Notifier contract.
type Service struct {
	store Store
	now   func() time.Time
	newID func() (string, error)
}

// NewService constructs the intent producer. Nil clock and id generator fall
// back to the defaults.
func NewService(store Store, now func() time.Time, newID func() (string, error)) *Service {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{store: store, now: now, newID: newID}
}

type beatPayload struct {
	BeatID   string `json:"beat_id"`
	Title    string `json:"title"`
	BeatType string `json:"beat_type"`
	ArcID    string `json:"arc_id,omitempty"`
}

type actionPayload struct {
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
	Automated  bool   `json:"automated"`
	Message    string `json:"message,omitempty"`
}

type stallPayload struct {
	StallID       string `json:"stall_id"`
	StallType     string `json:"stall_type"`
	Severity      string `json:"severity"`
	DurationHours int    `json:"duration_hours"`
}

// BeatPublished raises one intent per published beat.
func (s *Service) BeatPublished(ctx context.Context, beat narrative.Beat) error {
	_, err := s.CreateIntent(ctx, beat.LeagueID, TopicBeatPublished,
		TopicBeatPublished+":"+string(beat.ID),
		beatPayload{
			BeatID:   string(beat.ID),
			Title:    beat.Title,
			BeatType: string(beat.Type),
			ArcID:    string(beat.ArcID),
		})
	return err
}

// ActionCompleted raises one intent per completed curator action.
func (s *Service) ActionCompleted(ctx context.Context, action narrative.Action) error {
	_, err := s.CreateIntent(ctx, action.LeagueID, TopicActionCompleted,
		TopicActionCompleted+":"+string(action.ID),
		actionPayload{
			ActionID:   string(action.ID),
			ActionType: string(action.Type),
			Automated:  action.Automated,
			Message:    action.StatusMessage,
		})
	return err
}

// StallUrgent raises one intent per stall demanding curator attention.
func (s *Service) StallUrgent(ctx context.Context, stall narrative.Stall) error {
	_, err := s.CreateIntent(ctx, stall.LeagueID, TopicStallUrgent,
		TopicStallUrgent+":"+string(stall.ID),
		stallPayload{
			StallID:       string(stall.ID),
			StallType:     string(stall.Type),
			Severity:      string(stall.Severity),
			DurationHours: stall.DurationHours,
		})
	return err
}

// CreateIntent stores one intent, returning the existing one when the dedupe
// key has already been seen for the league.
func (s *Service) CreateIntent(ctx context.Context, leagueID, topic, dedupeKey string, payload any) (Intent, error) {
	existing, err := s.store.GetIntentByDedupeKey(ctx, leagueID, dedupeKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return Intent{}, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, fmt.Errorf("marshal intent payload: %w", err)
	}
	newID, err := s.newID()
	if err != nil {
		return Intent{}, err
	}

	intent := Intent{
		ID:          newID,
		LeagueID:    leagueID,
		Topic:       topic,
		PayloadJSON: string(raw),
		DedupeKey:   dedupeKey,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.PutIntent(ctx, intent); err != nil {
		return Intent{}, err
	}
	return intent, nil
}

// ListIntents returns a league's intents, newest first.
func (s *Service) ListIntents(ctx context.Context, leagueID string, limit int) ([]Intent, error) {
	return s.store.ListIntentsByLeague(ctx, leagueID, limit)
}
