package narrative

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// ActionID identifies a curator action.
type ActionID string

// ActionStatus is the action's execution lifecycle state.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
	ActionCancelled  ActionStatus = "cancelled"
)

// isActionTransitionAllowed is the action status machine:
// PENDING -> IN_PROGRESS -> {COMPLETED, FAILED}, PENDING -> {FAILED, CANCELLED}.
func isActionTransitionAllowed(from, to ActionStatus) bool {
	switch from {
	case ActionPending:
		return to == ActionInProgress || to == ActionFailed || to == ActionCancelled
	case ActionInProgress:
		return to == ActionCompleted || to == ActionFailed
	default:
		return false
	}
}

// Action is one curator intervention, automated or human-initiated.
type Action struct {
	ID              ActionID
	LeagueID        string
	Type            ActionType
	Description     string
	Automated       bool
	InitiatedBy     string // empty for automated actions
	Status          ActionStatus
	StatusMessage   string
	CreatedAt       time.Time
	ExecutedAt      *time.Time
	CompletedAt     *time.Time
	RelatedStallID  StallID
	RelatedArcID    ArcID
	TargetPlayerIDs []string
	Parameters      map[string]string
	Results         map[string]string
}

// ActionInput carries the caller-supplied fields for newAction.
type ActionInput struct {
	LeagueID        string
	Type            ActionType
	Description     string
	Automated       bool
	InitiatedBy     string
	RelatedStallID  StallID
	RelatedArcID    ArcID
	TargetPlayerIDs []string
	Parameters      map[string]string
}

func newAction(input ActionInput, now func() time.Time, idGenerator func() (string, error)) (Action, error) {
	now, idGenerator = normalizeDeps(now, idGenerator)
	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.Description = strings.TrimSpace(input.Description)
	input.InitiatedBy = strings.TrimSpace(input.InitiatedBy)

	if input.LeagueID == "" {
		return Action{}, apperrors.New(apperrors.CodeActionEmptyLeagueID, "action league id is required")
	}
	if input.Type == "" {
		return Action{}, apperrors.New(apperrors.CodeActionMissingType, "action type is required")
	}
	if _, err := ParseActionType(string(input.Type)); err != nil {
		return Action{}, err
	}
	if input.Description == "" {
		return Action{}, apperrors.New(apperrors.CodeActionEmptyDescription, "action description is required")
	}

	id, err := idGenerator()
	if err != nil {
		return Action{}, err
	}

	action := Action{
		ID:             ActionID(id),
		LeagueID:       input.LeagueID,
		Type:           input.Type,
		Description:    input.Description,
		Automated:      input.Automated,
		InitiatedBy:    input.InitiatedBy,
		Status:         ActionPending,
		CreatedAt:      now().UTC(),
		RelatedStallID: input.RelatedStallID,
		RelatedArcID:   input.RelatedArcID,
		Parameters:     map[string]string{},
		Results:        map[string]string{},
	}
	for _, playerID := range input.TargetPlayerIDs {
		action.AddTargetPlayer(playerID)
	}
	for key, value := range input.Parameters {
		action.Parameters[key] = value
	}
	return action, nil
}

// NewAutomatedAction constructs a director-issued action with no initiator.
func NewAutomatedAction(input ActionInput, now func() time.Time, idGenerator func() (string, error)) (Action, error) {
	input.Automated = true
	input.InitiatedBy = ""
	return newAction(input, now, idGenerator)
}

// NewManualAction constructs a human-issued action.
func NewManualAction(input ActionInput, initiatedBy string, now func() time.Time, idGenerator func() (string, error)) (Action, error) {
	input.Automated = false
	input.InitiatedBy = initiatedBy
	return newAction(input, now, idGenerator)
}

func (a *Action) transition(to ActionStatus) error {
	if !isActionTransitionAllowed(a.Status, to) {
		return apperrors.WithMetadata(apperrors.CodeActionInvalidTransition,
			"action status transition is not allowed",
			map[string]string{"action_id": string(a.ID), "from": string(a.Status), "to": string(to)})
	}
	a.Status = to
	return nil
}

// StartExecution moves a pending action into IN_PROGRESS and stamps the
// execution time.
func (a *Action) StartExecution(now time.Time) error {
	if err := a.transition(ActionInProgress); err != nil {
		return err
	}
	executedAt := now.UTC()
	a.ExecutedAt = &executedAt
	return nil
}

// Complete finishes an in-progress action, snapshotting its results.
func (a *Action) Complete(results map[string]string, now time.Time) error {
	if err := a.transition(ActionCompleted); err != nil {
		return err
	}
	completedAt := now.UTC()
	a.CompletedAt = &completedAt
	a.StatusMessage = "Action completed successfully"
	if a.Results == nil {
		a.Results = map[string]string{}
	}
	for key, value := range results {
		a.Results[key] = value
	}
	return nil
}

// Fail marks the action failed, from either PENDING or IN_PROGRESS.
func (a *Action) Fail(reason string, now time.Time) error {
	if err := a.transition(ActionFailed); err != nil {
		return err
	}
	completedAt := now.UTC()
	a.CompletedAt = &completedAt
	a.StatusMessage = strings.TrimSpace(reason)
	return nil
}

// Cancel withdraws a pending action. In-progress actions cannot be
// cancelled, only completed or failed.
func (a *Action) Cancel(reason string, now time.Time) error {
	if err := a.transition(ActionCancelled); err != nil {
		return err
	}
	completedAt := now.UTC()
	a.CompletedAt = &completedAt
	a.StatusMessage = strings.TrimSpace(reason)
	return nil
}

// AddResult records one execution outcome entry.
func (a *Action) AddResult(key, value string) {
	if a.Results == nil {
		a.Results = map[string]string{}
	}
	a.Results[key] = value
}

// AddTargetPlayer records a player the action aims at. Duplicates collapse.
func (a *Action) AddTargetPlayer(playerID string) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return
	}
	for _, existing := range a.TargetPlayerIDs {
		if existing == playerID {
			return
		}
	}
	a.TargetPlayerIDs = append(a.TargetPlayerIDs, playerID)
}

// IsTerminal reports whether the action reached a final state.
func (a *Action) IsTerminal() bool {
	return a.Status == ActionCompleted || a.Status == ActionFailed || a.Status == ActionCancelled
}

// IsSuccessful reports whether the action completed.
func (a *Action) IsSuccessful() bool {
	return a.Status == ActionCompleted
}

// RequiresConfirmation is true when the type demands approval and the
// action was not issued by automation.
func (a *Action) RequiresConfirmation() bool {
	return a.Type.RequiresConfirmation() && !a.Automated
}

// HasTargetPlayers reports whether the action aims at specific players.
func (a *Action) HasTargetPlayers() bool {
	return len(a.TargetPlayerIDs) > 0
}

// ExecutionDuration returns elapsed execution time. The second result is
// false unless both execution and completion stamps exist.
func (a *Action) ExecutionDuration() (time.Duration, bool) {
	if a.ExecutedAt == nil || a.CompletedAt == nil {
		return 0, false
	}
	return a.CompletedAt.Sub(*a.ExecutedAt), true
}
