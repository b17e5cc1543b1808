package narrative

import (
	"strings"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// TensionLevel bands the 0-100 tension score into five named levels.
type TensionLevel string

const (
	TensionMinimal  TensionLevel = "minimal"
	TensionLow      TensionLevel = "low"
	TensionModerate TensionLevel = "moderate"
	TensionHigh     TensionLevel = "high"
	TensionCritical TensionLevel = "critical"
)

// tensionOrder fixes the banding. Bands are half-open [min, next.min)
// except the last, which closes at 100.
var tensionOrder = [...]struct {
	level TensionLevel
	min   int
}{
	{TensionMinimal, 0},
	{TensionLow, 20},
	{TensionModerate, 40},
	{TensionHigh, 60},
	{TensionCritical, 80},
}

// TensionLevels returns every level from calmest to most intense.
func TensionLevels() []TensionLevel {
	out := make([]TensionLevel, len(tensionOrder))
	for i, entry := range tensionOrder {
		out[i] = entry.level
	}
	return out
}

// ParseTensionLevel resolves a level from its wire code.
func ParseTensionLevel(code string) (TensionLevel, error) {
	normalized := TensionLevel(strings.ToLower(strings.TrimSpace(code)))
	for _, entry := range tensionOrder {
		if entry.level == normalized {
			return entry.level, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeTensionUnknown,
		"unknown tension level code", map[string]string{"code": code})
}

// clampScore forces a tension score into [0, 100].
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TensionFromScore classifies a score after clamping it into range, so every
// integer input maps to exactly one level.
func TensionFromScore(score int) TensionLevel {
	score = clampScore(score)
	level := tensionOrder[0].level
	for _, entry := range tensionOrder {
		if score >= entry.min {
			level = entry.level
		}
	}
	return level
}

func (l TensionLevel) String() string {
	return string(l)
}

func (l TensionLevel) index() int {
	for i, entry := range tensionOrder {
		if entry.level == l {
			return i
		}
	}
	return -1
}

// MinScore returns the inclusive lower bound of the level's band.
func (l TensionLevel) MinScore() int {
	if i := l.index(); i >= 0 {
		return tensionOrder[i].min
	}
	return 0
}

// MaxScore returns the inclusive upper bound of the level's band.
func (l TensionLevel) MaxScore() int {
	i := l.index()
	if i < 0 {
		return 0
	}
	if i+1 < len(tensionOrder) {
		return tensionOrder[i+1].min - 1
	}
	return 100
}

// Escalate moves one band up, saturating at CRITICAL.
func (l TensionLevel) Escalate() TensionLevel {
	i := l.index()
	if i < 0 || i+1 >= len(tensionOrder) {
		return l
	}
	return tensionOrder[i+1].level
}

// Deescalate moves one band down, saturating at MINIMAL.
func (l TensionLevel) Deescalate() TensionLevel {
	i := l.index()
	if i <= 0 {
		return l
	}
	return tensionOrder[i-1].level
}

// RequiresAttention reports whether the league is running hot enough for a
// curator to keep watch.
func (l TensionLevel) RequiresAttention() bool {
	return l == TensionHigh || l == TensionCritical
}

// IsStallRisk reports whether tension is low enough to threaten engagement.
func (l TensionLevel) IsStallRisk() bool {
	return l == TensionMinimal || l == TensionLow
}

// RecommendsCuratorIntervention reports whether either extreme warrants a
// corrective action.
func (l TensionLevel) RecommendsCuratorIntervention() bool {
	return l == TensionMinimal || l == TensionCritical
}
