package narrative

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// DirectorID identifies a director.
type DirectorID string

// DirectorStatus is the director's lifecycle state.
type DirectorStatus string

const (
	DirectorActive    DirectorStatus = "active"
	DirectorPaused    DirectorStatus = "paused"
	DirectorSuspended DirectorStatus = "suspended"
)

// Defaults applied when a director is created.
const (
	defaultTensionScore       = 50
	defaultStallThresholdHrs  = 24
	defaultTensionTargetScore = 60
)

// Director is the per-league aggregate root coordinating phase, tension,
// stalls, and curator actions. It references other aggregates by id only;
// cross-aggregate consistency is eventual and mediated by the caller.
type Director struct {
	ID                DirectorID
	LeagueID          string
	Phase             Phase
	TensionScore      int
	TensionLevel      TensionLevel
	Status            DirectorStatus
	AutomationEnabled bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastActivityAt    time.Time
	ActiveArcID       ArcID
	OpenStallIDs      []StallID
	PendingActionIDs  []ActionID

	// Tunable configuration.
	StallThresholdHours int
	TensionTarget       int
	AutoGenerateBeats   bool
	AutoResolveStalls   bool

	// All-time counters.
	BeatsGenerated  int
	StallsDetected  int
	ActionsExecuted int
}

// NewDirector constructs the single director for a league with moderate
// tension and automation enabled.
func NewDirector(leagueID string, now func() time.Time, idGenerator func() (string, error)) (Director, error) {
	now, idGenerator = normalizeDeps(now, idGenerator)
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return Director{}, apperrors.New(apperrors.CodeDirectorEmptyLeagueID, "director league id is required")
	}

	id, err := idGenerator()
	if err != nil {
		return Director{}, err
	}

	createdAt := now().UTC()
	return Director{
		ID:                  DirectorID(id),
		LeagueID:            leagueID,
		Phase:               PhaseSetup,
		TensionScore:        defaultTensionScore,
		TensionLevel:        TensionFromScore(defaultTensionScore),
		Status:              DirectorActive,
		AutomationEnabled:   true,
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
		LastActivityAt:      createdAt,
		StallThresholdHours: defaultStallThresholdHrs,
		TensionTarget:       defaultTensionTargetScore,
		AutoGenerateBeats:   true,
		AutoResolveStalls:   true,
	}, nil
}

// touch stamps UpdatedAt; every mutator funnels through it so the stamp
// cannot drift.
func (d *Director) touch(now time.Time) {
	d.UpdatedAt = now.UTC()
}

// recordActivity additionally stamps LastActivityAt, the basis for
// inactivity detection.
func (d *Director) recordActivity(now time.Time) {
	d.touch(now)
	d.LastActivityAt = now.UTC()
}

// Tension operations

// UpdateTension clamps the score into [0,100] and keeps the level in sync.
func (d *Director) UpdateTension(score int, now time.Time) {
	d.TensionScore = clampScore(score)
	d.TensionLevel = TensionFromScore(d.TensionScore)
	d.touch(now)
}

// ApplyTensionImpact scales an impact by the current phase's multiplier
// before applying it. The scaled value truncates toward zero.
func (d *Director) ApplyTensionImpact(impact int, now time.Time) {
	scaled := int(float64(impact) * d.Phase.TensionMultiplier())
	d.UpdateTension(d.TensionScore+scaled, now)
}

// AdjustTensionTowardsTarget nudges the score one point toward the target.
// One step per call keeps convergence gradual; callers invoke it repeatedly.
func (d *Director) AdjustTensionTowardsTarget(now time.Time) {
	switch {
	case d.TensionScore < d.TensionTarget:
		d.UpdateTension(d.TensionScore+1, now)
	case d.TensionScore > d.TensionTarget:
		d.UpdateTension(d.TensionScore-1, now)
	}
}

// IsTensionCritical reports whether tension sits in the top band.
func (d *Director) IsTensionCritical() bool {
	return d.TensionLevel == TensionCritical
}

// IsTensionLow reports whether tension is a stall risk.
func (d *Director) IsTensionLow() bool {
	return d.TensionLevel.IsStallRisk()
}

// Phase operations

// AdvancePhase moves one phase forward. The director must be operational
// and not already at RESOLUTION.
func (d *Director) AdvancePhase(now time.Time) error {
	if !d.IsOperational() {
		return apperrors.WithMetadata(apperrors.CodeDirectorInvalidTransition,
			"director is not operational",
			map[string]string{"director_id": string(d.ID), "status": string(d.Status)})
	}
	next, ok := d.Phase.Next()
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeDirectorNoNextPhase,
			"director is already at the final phase",
			map[string]string{"director_id": string(d.ID), "phase": string(d.Phase)})
	}
	d.Phase = next
	d.recordActivity(now)
	return nil
}

// OverridePhase sets the phase directly, the curator escape hatch. No
// operational precondition applies.
func (d *Director) OverridePhase(phase Phase, now time.Time) error {
	if phase == "" {
		return apperrors.New(apperrors.CodeDirectorMissingPhase, "director phase is required")
	}
	if _, err := ParsePhase(string(phase)); err != nil {
		return err
	}
	d.Phase = phase
	d.recordActivity(now)
	return nil
}

// Active arc operations

// SetActiveArc points the director at the arc currently being told.
func (d *Director) SetActiveArc(id ArcID, now time.Time) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.CodeDirectorEmptyArcID, "arc id is required")
	}
	d.ActiveArcID = id
	d.recordActivity(now)
	return nil
}

// ClearActiveArc drops the active arc reference. Clearing does not count as
// narrative activity.
func (d *Director) ClearActiveArc(now time.Time) {
	d.ActiveArcID = ""
	d.touch(now)
}

// HasActiveArc reports whether an arc is currently being told.
func (d *Director) HasActiveArc() bool {
	return d.ActiveArcID != ""
}

// RecordBeatGenerated bumps the beat counter and stamps activity.
func (d *Director) RecordBeatGenerated(now time.Time) {
	d.BeatsGenerated++
	d.recordActivity(now)
}

// Stall operations

// RegisterStall adds a stall id to the open set and bumps the all-time
// counter. The set collapses duplicates but the counter does not; repeat
// registrations of the same id still count, a documented asymmetry kept for
// compatibility. Registration is not activity.
func (d *Director) RegisterStall(id StallID, now time.Time) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.CodeDirectorEmptyStallID, "stall id is required")
	}
	present := false
	for _, existing := range d.OpenStallIDs {
		if existing == id {
			present = true
			break
		}
	}
	if !present {
		d.OpenStallIDs = append(d.OpenStallIDs, id)
	}
	d.StallsDetected++
	d.touch(now)
	return nil
}

// ResolveStall removes a stall id from the open set and stamps activity.
func (d *Director) ResolveStall(id StallID, now time.Time) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.CodeDirectorEmptyStallID, "stall id is required")
	}
	for i, existing := range d.OpenStallIDs {
		if existing == id {
			d.OpenStallIDs = append(d.OpenStallIDs[:i], d.OpenStallIDs[i+1:]...)
			break
		}
	}
	d.recordActivity(now)
	return nil
}

// HasActiveStalls reports whether any stall is open.
func (d *Director) HasActiveStalls() bool {
	return len(d.OpenStallIDs) > 0
}

// ActiveStallCount returns the number of open stalls.
func (d *Director) ActiveStallCount() int {
	return len(d.OpenStallIDs)
}

// Action operations

// QueueAction adds an action id to the pending set. Queueing is not
// activity; only completion is.
func (d *Director) QueueAction(id ActionID, now time.Time) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.CodeDirectorEmptyActionID, "action id is required")
	}
	for _, existing := range d.PendingActionIDs {
		if existing == id {
			d.touch(now)
			return nil
		}
	}
	d.PendingActionIDs = append(d.PendingActionIDs, id)
	d.touch(now)
	return nil
}

// CompleteAction releases the pending slot, bumps the executed counter, and
// stamps activity. Terminal failures and cancellations release the slot the
// same way.
func (d *Director) CompleteAction(id ActionID, now time.Time) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.CodeDirectorEmptyActionID, "action id is required")
	}
	for i, existing := range d.PendingActionIDs {
		if existing == id {
			d.PendingActionIDs = append(d.PendingActionIDs[:i], d.PendingActionIDs[i+1:]...)
			break
		}
	}
	d.ActionsExecuted++
	d.recordActivity(now)
	return nil
}

// HasPendingActions reports whether any action awaits execution.
func (d *Director) HasPendingActions() bool {
	return len(d.PendingActionIDs) > 0
}

// PendingActionCount returns the number of queued actions.
func (d *Director) PendingActionCount() int {
	return len(d.PendingActionIDs)
}

// Lifecycle controls

func (d *Director) transitionFault(to DirectorStatus) error {
	return apperrors.WithMetadata(apperrors.CodeDirectorInvalidTransition,
		"director status transition is not allowed",
		map[string]string{"director_id": string(d.ID), "from": string(d.Status), "to": string(to)})
}

// Pause stops automated orchestration. Only an active director may pause.
func (d *Director) Pause(now time.Time) error {
	if d.Status != DirectorActive {
		return d.transitionFault(DirectorPaused)
	}
	d.Status = DirectorPaused
	d.touch(now)
	return nil
}

// Resume restarts a paused director and stamps activity.
func (d *Director) Resume(now time.Time) error {
	if d.Status != DirectorPaused {
		return d.transitionFault(DirectorActive)
	}
	d.Status = DirectorActive
	d.recordActivity(now)
	return nil
}

// Suspend halts the director from any state and forces automation off.
// Reactivation requires an explicit operator decision.
func (d *Director) Suspend(now time.Time) {
	d.Status = DirectorSuspended
	d.AutomationEnabled = false
	d.touch(now)
}

// Reactivate restores a suspended director to active and stamps activity.
// Automation stays off until explicitly re-enabled.
func (d *Director) Reactivate(now time.Time) error {
	if d.Status != DirectorSuspended {
		return d.transitionFault(DirectorActive)
	}
	d.Status = DirectorActive
	d.recordActivity(now)
	return nil
}

// EnableAutomation allows the director to issue automated actions.
func (d *Director) EnableAutomation(now time.Time) {
	d.AutomationEnabled = true
	d.touch(now)
}

// DisableAutomation stops automated actions without pausing the director.
func (d *Director) DisableAutomation(now time.Time) {
	d.AutomationEnabled = false
	d.touch(now)
}

// IsOperational reports whether the director is active.
func (d *Director) IsOperational() bool {
	return d.Status == DirectorActive
}

// CanRunAutomation requires both an operational director and automation
// enabled.
func (d *Director) CanRunAutomation() bool {
	return d.IsOperational() && d.AutomationEnabled
}

// Configuration

// SetStallDetectionThreshold sets the inactivity window in hours. Values
// below one hour are rejected.
func (d *Director) SetStallDetectionThreshold(hours int, now time.Time) error {
	if hours < 1 {
		return apperrors.WithMetadata(apperrors.CodeDirectorInvalidThreshold,
			"stall detection threshold must be at least one hour",
			map[string]string{"director_id": string(d.ID)})
	}
	d.StallThresholdHours = hours
	d.touch(now)
	return nil
}

// SetTensionTarget sets the score AdjustTensionTowardsTarget converges on.
func (d *Director) SetTensionTarget(score int, now time.Time) error {
	if score < 0 || score > 100 {
		return apperrors.WithMetadata(apperrors.CodeDirectorInvalidTarget,
			"tension target must be between 0 and 100",
			map[string]string{"director_id": string(d.ID)})
	}
	d.TensionTarget = score
	d.touch(now)
	return nil
}

// SetAutoGenerateBeats toggles automated beat generation.
func (d *Director) SetAutoGenerateBeats(enabled bool, now time.Time) {
	d.AutoGenerateBeats = enabled
	d.touch(now)
}

// SetAutoResolveStalls toggles automated stall resolution.
func (d *Director) SetAutoResolveStalls(enabled bool, now time.Time) {
	d.AutoResolveStalls = enabled
	d.touch(now)
}

// Inactivity

// HoursSinceLastActivity floors the elapsed span to whole hours.
func (d *Director) HoursSinceLastActivity(now time.Time) int {
	return elapsedHours(d.LastActivityAt, now)
}

// IsInactive reports whether the league has been quiet for at least the
// configured threshold. The scheduler, not the director, acts on this.
func (d *Director) IsInactive(now time.Time) bool {
	return d.HoursSinceLastActivity(now) >= d.StallThresholdHours
}
