package narrative

import (
	"strings"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// Severity ranks how badly a stall hurts the league.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityOrder = [...]Severity{
	SeverityLow,
	SeverityModerate,
	SeverityHigh,
	SeverityCritical,
}

// ParseSeverity resolves a severity from its wire code.
func ParseSeverity(code string) (Severity, error) {
	normalized := Severity(strings.ToLower(strings.TrimSpace(code)))
	for _, severity := range severityOrder {
		if severity == normalized {
			return severity, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeSeverityUnknown,
		"unknown severity level code", map[string]string{"code": code})
}

func (s Severity) String() string {
	return string(s)
}

// AtLeast reports whether the severity is equal to or above the given floor.
func (s Severity) AtLeast(floor Severity) bool {
	rank := func(severity Severity) int {
		for i, entry := range severityOrder {
			if entry == severity {
				return i
			}
		}
		return -1
	}
	return rank(s) >= rank(floor)
}

// StallType identifies one kind of detected stagnation.
type StallType string

const (
	StallNarrativeGap     StallType = "narrative_gap"
	StallEngagementDrop   StallType = "engagement_drop"
	StallTensionPlateau   StallType = "tension_plateau"
	StallArcAbandoned     StallType = "arc_abandoned"
	StallPlayerInactivity StallType = "player_inactivity"
	StallRivalryCooldown  StallType = "rivalry_cooldown"
)

type stallTypeSpec struct {
	severity       Severity
	description    string
	thresholdHours int
	recommended    ActionType
	immediate      bool
}

var stallTypeOrder = [...]StallType{
	StallNarrativeGap,
	StallEngagementDrop,
	StallTensionPlateau,
	StallArcAbandoned,
	StallPlayerInactivity,
	StallRivalryCooldown,
}

var stallTypeSpecs = map[StallType]stallTypeSpec{
	StallNarrativeGap: {
		severity:       SeverityModerate,
		description:    "No story beats have been generated recently",
		thresholdHours: 24,
		recommended:    ActionGenerateStoryBeat,
	},
	StallEngagementDrop: {
		severity:       SeverityHigh,
		description:    "Tension is low and the league has gone quiet",
		thresholdHours: 12,
		recommended:    ActionSendNudge,
		immediate:      true,
	},
	StallTensionPlateau: {
		severity:       SeverityLow,
		description:    "Tension has been flat for an extended period",
		thresholdHours: 48,
		recommended:    ActionBoostTension,
	},
	StallArcAbandoned: {
		severity:       SeverityModerate,
		description:    "The active story arc has stopped receiving beats",
		thresholdHours: 72,
		recommended:    ActionCompleteStoryArc,
	},
	StallPlayerInactivity: {
		severity:       SeverityModerate,
		description:    "Key players have stopped engaging with the league",
		thresholdHours: 48,
		recommended:    ActionIssueChallenge,
	},
	StallRivalryCooldown: {
		severity:       SeverityLow,
		description:    "Established rivalries have gone cold",
		thresholdHours: 96,
		recommended:    ActionSpotlightMatchup,
	},
}

// StallTypes returns the full catalog in declaration order.
func StallTypes() []StallType {
	out := make([]StallType, len(stallTypeOrder))
	copy(out, stallTypeOrder[:])
	return out
}

// ParseStallType resolves a stall type from its wire code.
func ParseStallType(code string) (StallType, error) {
	normalized := StallType(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := stallTypeSpecs[normalized]; ok {
		return normalized, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeStallTypeUnknown,
		"unknown stall condition type code", map[string]string{"code": code})
}

func (t StallType) String() string {
	return string(t)
}

// DefaultSeverity returns the severity stamped onto new conditions.
func (t StallType) DefaultSeverity() Severity {
	return stallTypeSpecs[t].severity
}

// Description returns the human summary of the stall type.
func (t StallType) Description() string {
	return stallTypeSpecs[t].description
}

// DefaultThresholdHours returns how long the stall may run before it is
// considered overdue.
func (t StallType) DefaultThresholdHours() int {
	return stallTypeSpecs[t].thresholdHours
}

// RecommendedAction returns the curator action type policy pairs with the
// stall type.
func (t StallType) RecommendedAction() ActionType {
	return stallTypeSpecs[t].recommended
}

// RequiresImmediateAttention reports whether the type demands attention
// before its threshold is reached.
func (t StallType) RequiresImmediateAttention() bool {
	return stallTypeSpecs[t].immediate
}
