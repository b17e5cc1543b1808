package narrative

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// ArcID identifies a story arc.
type ArcID string

// ArcStatus is the arc's lifecycle state.
type ArcStatus string

const (
	ArcActive    ArcStatus = "active"
	ArcPaused    ArcStatus = "paused"
	ArcCompleted ArcStatus = "completed"
	ArcArchived  ArcStatus = "archived"
)

// CanAddBeats reports whether the status accepts new beats.
func (s ArcStatus) CanAddBeats() bool {
	return s == ArcActive
}

// IsOngoing reports whether the arc is still being told.
func (s ArcStatus) IsOngoing() bool {
	return s == ArcActive || s == ArcPaused
}

// isArcTransitionAllowed is the arc status machine:
// ACTIVE <-> PAUSED -> COMPLETED -> ARCHIVED, ARCHIVED terminal.
func isArcTransitionAllowed(from, to ArcStatus) bool {
	switch from {
	case ArcActive:
		return to == ArcPaused || to == ArcCompleted
	case ArcPaused:
		return to == ArcActive || to == ArcCompleted
	case ArcCompleted:
		return to == ArcArchived
	default:
		return false
	}
}

// Arc is an ordered thread of story beats sharing a theme. It tracks beat
// ids in narrative order; the beats themselves hold the DAG edges.
type Arc struct {
	ID                ArcID
	LeagueID          string
	Title             string
	Description       string
	Status            ArcStatus
	Phase             Phase
	BeatIDs           []BeatID
	RootBeatID        BeatID
	InvolvedPlayerIDs []string
	PeakTension       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       *time.Time
}

// ArcInput carries the caller-supplied fields for NewArc.
type ArcInput struct {
	LeagueID    string
	Title       string
	Description string
}

// NewArc validates input and constructs an active arc in SETUP.
func NewArc(input ArcInput, now func() time.Time, idGenerator func() (string, error)) (Arc, error) {
	now, idGenerator = normalizeDeps(now, idGenerator)
	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	if input.LeagueID == "" {
		return Arc{}, apperrors.New(apperrors.CodeArcEmptyLeagueID, "arc league id is required")
	}
	if input.Title == "" {
		return Arc{}, apperrors.New(apperrors.CodeArcEmptyTitle, "arc title is required")
	}

	id, err := idGenerator()
	if err != nil {
		return Arc{}, err
	}

	createdAt := now().UTC()
	return Arc{
		ID:          ArcID(id),
		LeagueID:    input.LeagueID,
		Title:       input.Title,
		Description: input.Description,
		Status:      ArcActive,
		Phase:       PhaseSetup,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

func (a *Arc) touch(now time.Time) {
	a.UpdatedAt = now.UTC()
}

// AddBeat appends a beat to the narrative order. The first beat becomes the
// root; involved players merge into the arc's set; peak tension runs as a
// clamped accumulator of beat impacts, matching the historic contract rather
// than a true maximum over time.
func (a *Arc) AddBeat(beat Beat, now time.Time) error {
	if !a.Status.CanAddBeats() {
		return apperrors.WithMetadata(apperrors.CodeArcStatusDisallowsBeats,
			"arc status does not allow adding beats",
			map[string]string{"arc_id": string(a.ID), "status": string(a.Status)})
	}
	if beat.ID == "" {
		return apperrors.New(apperrors.CodeArcEmptyBeatID, "beat id is required")
	}
	if len(a.BeatIDs) == 0 {
		a.RootBeatID = beat.ID
	}
	a.BeatIDs = append(a.BeatIDs, beat.ID)
	for _, playerID := range beat.InvolvedPlayerIDs {
		a.AddInvolvedPlayer(playerID)
	}
	a.PeakTension = clampScore(a.PeakTension + beat.TensionImpact)
	a.touch(now)
	return nil
}

// AdvancePhase moves the arc one phase forward. Only ongoing arcs may move,
// and RESOLUTION has nowhere further to go.
func (a *Arc) AdvancePhase(now time.Time) error {
	if !a.Status.IsOngoing() {
		return apperrors.WithMetadata(apperrors.CodeArcStatusDisallowsPhase,
			"arc status does not allow phase changes",
			map[string]string{"arc_id": string(a.ID), "status": string(a.Status)})
	}
	next, ok := a.Phase.Next()
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeArcNoNextPhase,
			"arc is already at the final phase",
			map[string]string{"arc_id": string(a.ID), "phase": string(a.Phase)})
	}
	a.Phase = next
	a.touch(now)
	return nil
}

// SetPhase overrides the arc's phase directly, with the same status
// precondition as AdvancePhase.
func (a *Arc) SetPhase(phase Phase, now time.Time) error {
	if !a.Status.IsOngoing() {
		return apperrors.WithMetadata(apperrors.CodeArcStatusDisallowsPhase,
			"arc status does not allow phase changes",
			map[string]string{"arc_id": string(a.ID), "status": string(a.Status)})
	}
	if _, err := ParsePhase(string(phase)); err != nil {
		return err
	}
	a.Phase = phase
	a.touch(now)
	return nil
}

// UpdateTitle replaces the arc title. Blank titles are rejected.
func (a *Arc) UpdateTitle(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperrors.New(apperrors.CodeArcEmptyTitle, "arc title is required")
	}
	a.Title = title
	a.touch(now)
	return nil
}

// UpdateDescription replaces the arc description.
func (a *Arc) UpdateDescription(description string, now time.Time) {
	a.Description = strings.TrimSpace(description)
	a.touch(now)
}

// AddInvolvedPlayer records a participant across the whole arc.
func (a *Arc) AddInvolvedPlayer(playerID string) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return
	}
	for _, existing := range a.InvolvedPlayerIDs {
		if existing == playerID {
			return
		}
	}
	a.InvolvedPlayerIDs = append(a.InvolvedPlayerIDs, playerID)
}

func (a *Arc) transition(to ArcStatus, now time.Time) error {
	if !isArcTransitionAllowed(a.Status, to) {
		return apperrors.WithMetadata(apperrors.CodeArcInvalidTransition,
			"arc status transition is not allowed",
			map[string]string{"arc_id": string(a.ID), "from": string(a.Status), "to": string(to)})
	}
	a.Status = to
	a.touch(now)
	return nil
}

// Pause suspends an active arc.
func (a *Arc) Pause(now time.Time) error {
	return a.transition(ArcPaused, now)
}

// Resume reactivates a paused arc.
func (a *Arc) Resume(now time.Time) error {
	return a.transition(ArcActive, now)
}

// Complete closes the arc and stamps the completion time. Allowed from
// ACTIVE or PAUSED.
func (a *Arc) Complete(now time.Time) error {
	if err := a.transition(ArcCompleted, now); err != nil {
		return err
	}
	completedAt := now.UTC()
	a.CompletedAt = &completedAt
	return nil
}

// Archive retires a completed arc. Archival is terminal.
func (a *Arc) Archive(now time.Time) error {
	return a.transition(ArcArchived, now)
}

// InvolvesPlayer reports whether the player appears anywhere in the arc.
func (a *Arc) InvolvesPlayer(playerID string) bool {
	for _, existing := range a.InvolvedPlayerIDs {
		if existing == playerID {
			return true
		}
	}
	return false
}

// HasBeats reports whether any beat has been added.
func (a *Arc) HasBeats() bool {
	return len(a.BeatIDs) > 0
}

// BeatCount returns the number of beats in narrative order.
func (a *Arc) BeatCount() int {
	return len(a.BeatIDs)
}

// PeakTensionLevel classifies the accumulated peak tension.
func (a *Arc) PeakTensionLevel() TensionLevel {
	return TensionFromScore(a.PeakTension)
}

// DurationHours measures creation to completion, or to now while ongoing.
func (a *Arc) DurationHours(now time.Time) int {
	end := now.UTC()
	if a.CompletedAt != nil {
		end = *a.CompletedAt
	}
	hours := int(end.Sub(a.CreatedAt).Hours())
	if hours < 0 {
		return 0
	}
	return hours
}
