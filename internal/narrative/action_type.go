package narrative

import (
	"strings"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// ActionCategory groups curator action types by intent.
type ActionCategory string

const (
	CategoryNotification   ActionCategory = "notification"
	CategoryStory          ActionCategory = "story"
	CategoryEngagement     ActionCategory = "engagement"
	CategoryModeration     ActionCategory = "moderation"
	CategoryAdministrative ActionCategory = "administrative"
)

// ActionType identifies one kind of curator intervention.
type ActionType string

const (
	ActionSendNudge          ActionType = "send_nudge"
	ActionPublishRecap       ActionType = "publish_recap"
	ActionGenerateStoryBeat  ActionType = "generate_story_beat"
	ActionStartStoryArc      ActionType = "start_story_arc"
	ActionCompleteStoryArc   ActionType = "complete_story_arc"
	ActionBoostTension       ActionType = "boost_tension"
	ActionCalmTension        ActionType = "calm_tension"
	ActionSpotlightMatchup   ActionType = "spotlight_matchup"
	ActionIssueChallenge     ActionType = "issue_challenge"
	ActionAdjustPacing       ActionType = "adjust_pacing"
	ActionEscalateToOperator ActionType = "escalate_to_operator"
	ActionSuspendAutomation  ActionType = "suspend_automation"
)

type actionTypeSpec struct {
	priority             int // 1 (lowest) to 10 (highest)
	requiresConfirmation bool
	automatable          bool
	reversible           bool
	category             ActionCategory
}

// actionTypeOrder doubles as the catalog; every member must have a spec row.
var actionTypeOrder = [...]ActionType{
	ActionSendNudge,
	ActionPublishRecap,
	ActionGenerateStoryBeat,
	ActionStartStoryArc,
	ActionCompleteStoryArc,
	ActionBoostTension,
	ActionCalmTension,
	ActionSpotlightMatchup,
	ActionIssueChallenge,
	ActionAdjustPacing,
	ActionEscalateToOperator,
	ActionSuspendAutomation,
}

var actionTypeSpecs = map[ActionType]actionTypeSpec{
	ActionSendNudge:          {priority: 3, automatable: true, reversible: true, category: CategoryNotification},
	ActionPublishRecap:       {priority: 4, automatable: true, reversible: true, category: CategoryNotification},
	ActionGenerateStoryBeat:  {priority: 5, automatable: true, category: CategoryStory},
	ActionStartStoryArc:      {priority: 6, automatable: true, category: CategoryStory},
	ActionCompleteStoryArc:   {priority: 6, requiresConfirmation: true, automatable: true, category: CategoryStory},
	ActionBoostTension:       {priority: 5, automatable: true, reversible: true, category: CategoryEngagement},
	ActionCalmTension:        {priority: 5, automatable: true, reversible: true, category: CategoryEngagement},
	ActionSpotlightMatchup:   {priority: 4, automatable: true, reversible: true, category: CategoryEngagement},
	ActionIssueChallenge:     {priority: 4, automatable: true, reversible: true, category: CategoryEngagement},
	ActionAdjustPacing:       {priority: 7, requiresConfirmation: true, reversible: true, category: CategoryModeration},
	ActionEscalateToOperator: {priority: 9, requiresConfirmation: true, category: CategoryAdministrative},
	ActionSuspendAutomation:  {priority: 10, requiresConfirmation: true, reversible: true, category: CategoryAdministrative},
}

// ActionTypes returns the full catalog in declaration order.
func ActionTypes() []ActionType {
	out := make([]ActionType, len(actionTypeOrder))
	copy(out, actionTypeOrder[:])
	return out
}

// ParseActionType resolves an action type from its wire code.
func ParseActionType(code string) (ActionType, error) {
	normalized := ActionType(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := actionTypeSpecs[normalized]; ok {
		return normalized, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeActionTypeUnknown,
		"unknown curator action type code", map[string]string{"code": code})
}

func (t ActionType) String() string {
	return string(t)
}

// Priority returns the scheduling priority, 1 lowest to 10 highest.
func (t ActionType) Priority() int {
	return actionTypeSpecs[t].priority
}

// RequiresConfirmation reports whether a human must approve the action type
// before execution.
func (t ActionType) RequiresConfirmation() bool {
	return actionTypeSpecs[t].requiresConfirmation
}

// IsAutomatable reports whether the director may issue the action without a
// curator.
func (t ActionType) IsAutomatable() bool {
	return actionTypeSpecs[t].automatable
}

// IsReversible reports whether the action's effect can be undone.
func (t ActionType) IsReversible() bool {
	return actionTypeSpecs[t].reversible
}

// Category returns the action type's grouping.
func (t ActionType) Category() ActionCategory {
	return actionTypeSpecs[t].category
}
