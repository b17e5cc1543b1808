package narrative

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// StallID identifies a stall condition.
type StallID string

// StallStatus is the condition's one-way resolution state.
type StallStatus string

const (
	StallOpen     StallStatus = "open"
	StallResolved StallStatus = "resolved"
)

// Stall records one detected period of stagnation. Severity is copied from
// the type at detection; duration runs from the stall start and freezes on
// resolution.
type Stall struct {
	ID                StallID
	LeagueID          string
	Type              StallType
	Description       string
	Severity          Severity
	DetectedAt        time.Time
	StallStartedAt    time.Time
	DurationHours     int
	AffectedPlayerIDs []string
	Diagnostics       map[string]string
	Status            StallStatus
	ResolvedAt        *time.Time
	ResolutionAction  ActionType
	ResolutionNotes   string
}

// StallInput carries the caller-supplied fields for NewStall.
type StallInput struct {
	LeagueID       string
	Type           StallType
	StallStartedAt time.Time

	// Description defaults to the type's description when blank.
	Description string

	AffectedPlayerIDs []string
	Diagnostics       map[string]string
}

// NewStall validates input and constructs an open condition.
func NewStall(input StallInput, now func() time.Time, idGenerator func() (string, error)) (Stall, error) {
	now, idGenerator = normalizeDeps(now, idGenerator)
	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.Description = strings.TrimSpace(input.Description)

	if input.LeagueID == "" {
		return Stall{}, apperrors.New(apperrors.CodeStallEmptyLeagueID, "stall league id is required")
	}
	if input.Type == "" {
		return Stall{}, apperrors.New(apperrors.CodeStallMissingType, "stall type is required")
	}
	if _, err := ParseStallType(string(input.Type)); err != nil {
		return Stall{}, err
	}
	if input.StallStartedAt.IsZero() {
		return Stall{}, apperrors.New(apperrors.CodeStallMissingStart, "stall start time is required")
	}

	id, err := idGenerator()
	if err != nil {
		return Stall{}, err
	}

	detectedAt := now().UTC()
	description := input.Description
	if description == "" {
		description = input.Type.Description()
	}

	stall := Stall{
		ID:             StallID(id),
		LeagueID:       input.LeagueID,
		Type:           input.Type,
		Description:    description,
		Severity:       input.Type.DefaultSeverity(),
		DetectedAt:     detectedAt,
		StallStartedAt: input.StallStartedAt.UTC(),
		DurationHours:  elapsedHours(input.StallStartedAt, detectedAt),
		Diagnostics:    map[string]string{},
		Status:         StallOpen,
	}
	for _, playerID := range input.AffectedPlayerIDs {
		stall.AddAffectedPlayer(playerID)
	}
	for key, value := range input.Diagnostics {
		stall.Diagnostics[key] = value
	}
	return stall, nil
}

// DetectStall is the convenience factory the scheduler uses.
func DetectStall(leagueID string, typ StallType, stallStartedAt time.Time, description string, now func() time.Time, idGenerator func() (string, error)) (Stall, error) {
	return NewStall(StallInput{
		LeagueID:       leagueID,
		Type:           typ,
		StallStartedAt: stallStartedAt,
		Description:    description,
	}, now, idGenerator)
}

// Resolve closes the condition. The duration freezes at its last computed
// value; resolving twice is an invalid-state fault.
func (s *Stall) Resolve(action ActionType, notes string, now time.Time) error {
	if s.Status == StallResolved {
		return apperrors.WithMetadata(apperrors.CodeStallAlreadyResolved,
			"stall condition is already resolved", map[string]string{"stall_id": string(s.ID)})
	}
	resolvedAt := now.UTC()
	s.Status = StallResolved
	s.ResolvedAt = &resolvedAt
	s.ResolutionAction = action
	s.ResolutionNotes = strings.TrimSpace(notes)
	return nil
}

// UpdateDuration recomputes elapsed hours from the stall start. Only open
// conditions may be refreshed.
func (s *Stall) UpdateDuration(now time.Time) error {
	if s.Status == StallResolved {
		return apperrors.WithMetadata(apperrors.CodeStallAlreadyResolved,
			"stall condition is already resolved", map[string]string{"stall_id": string(s.ID)})
	}
	s.DurationHours = elapsedHours(s.StallStartedAt, now)
	return nil
}

// IsResolved reports whether the condition has been closed.
func (s *Stall) IsResolved() bool {
	return s.Status == StallResolved
}

// ExceedsThreshold reports whether the stall has outlived its type's
// default threshold.
func (s *Stall) ExceedsThreshold() bool {
	return s.DurationHours >= s.Type.DefaultThresholdHours()
}

// RequiresImmediateAttention is true when the type demands it or the
// threshold has been exceeded.
func (s *Stall) RequiresImmediateAttention() bool {
	return s.Type.RequiresImmediateAttention() || s.ExceedsThreshold()
}

// RecommendedAction returns the policy-paired curator action type.
func (s *Stall) RecommendedAction() ActionType {
	return s.Type.RecommendedAction()
}

// HoursUntilThreshold returns how long before the stall becomes overdue,
// floored at zero.
func (s *Stall) HoursUntilThreshold() int {
	remaining := s.Type.DefaultThresholdHours() - s.DurationHours
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AddAffectedPlayer records a player hit by the stall. Duplicates collapse.
func (s *Stall) AddAffectedPlayer(playerID string) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return
	}
	for _, existing := range s.AffectedPlayerIDs {
		if existing == playerID {
			return
		}
	}
	s.AffectedPlayerIDs = append(s.AffectedPlayerIDs, playerID)
}

// AddDiagnostic attaches a free-form key/value pair for later triage.
func (s *Stall) AddDiagnostic(key, value string) {
	if s.Diagnostics == nil {
		s.Diagnostics = map[string]string{}
	}
	s.Diagnostics[key] = value
}

// elapsedHours floors the span between two instants to whole hours.
func elapsedHours(from, to time.Time) int {
	hours := int(to.Sub(from).Hours())
	if hours < 0 {
		return 0
	}
	return hours
}
