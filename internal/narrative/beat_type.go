package narrative

import (
	"strings"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// BeatType identifies one kind of narrative moment.
type BeatType string

const (
	BeatUpsetVictory       BeatType = "upset_victory"
	BeatBlowoutLoss        BeatType = "blowout_loss"
	BeatComeback           BeatType = "comeback"
	BeatRivalryClash       BeatType = "rivalry_clash"
	BeatMilestone          BeatType = "milestone"
	BeatElimination        BeatType = "elimination"
	BeatStreakExtended     BeatType = "streak_extended"
	BeatStreakBroken       BeatType = "streak_broken"
	BeatInjuryReport       BeatType = "injury_report"
	BeatRosterShakeup      BeatType = "roster_shakeup"
	BeatUnderdogRise       BeatType = "underdog_rise"
	BeatChampionshipClinch BeatType = "championship_clinch"
	BeatSeasonOpener       BeatType = "season_opener"
	BeatSeasonFinale       BeatType = "season_finale"
)

type beatTypeSpec struct {
	impact    int // default tension impact, may be negative
	major     bool
	system    bool // produced by league mechanics rather than play
	player    bool // centered on specific players
	rivalry   bool
	startsArc bool
	endsArc   bool
}

var beatTypeOrder = [...]BeatType{
	BeatUpsetVictory,
	BeatBlowoutLoss,
	BeatComeback,
	BeatRivalryClash,
	BeatMilestone,
	BeatElimination,
	BeatStreakExtended,
	BeatStreakBroken,
	BeatInjuryReport,
	BeatRosterShakeup,
	BeatUnderdogRise,
	BeatChampionshipClinch,
	BeatSeasonOpener,
	BeatSeasonFinale,
}

var beatTypeSpecs = map[BeatType]beatTypeSpec{
	BeatUpsetVictory:       {impact: 15, major: true, player: true, startsArc: true},
	BeatBlowoutLoss:        {impact: 10, major: true, player: true},
	BeatComeback:           {impact: 20, major: true, player: true, startsArc: true},
	BeatRivalryClash:       {impact: 18, major: true, player: true, rivalry: true},
	BeatMilestone:          {impact: 8, player: true},
	BeatElimination:        {impact: 25, major: true, player: true, endsArc: true},
	BeatStreakExtended:     {impact: 6, player: true},
	BeatStreakBroken:       {impact: 12, player: true, rivalry: true},
	BeatInjuryReport:       {impact: 10, system: true, player: true},
	BeatRosterShakeup:      {impact: 8, system: true},
	BeatUnderdogRise:       {impact: 15, major: true, player: true, startsArc: true},
	BeatChampionshipClinch: {impact: 30, major: true, player: true, endsArc: true},
	BeatSeasonOpener:       {impact: 5, system: true, startsArc: true},
	BeatSeasonFinale:       {impact: 20, major: true, system: true, endsArc: true},
}

// BeatTypes returns the full catalog in declaration order.
func BeatTypes() []BeatType {
	out := make([]BeatType, len(beatTypeOrder))
	copy(out, beatTypeOrder[:])
	return out
}

// ParseBeatType resolves a beat type from its wire code.
func ParseBeatType(code string) (BeatType, error) {
	normalized := BeatType(strings.ToLower(strings.TrimSpace(code)))
	if _, ok := beatTypeSpecs[normalized]; ok {
		return normalized, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeBeatTypeUnknown,
		"unknown story beat type code", map[string]string{"code": code})
}

func (t BeatType) String() string {
	return string(t)
}

// DefaultTensionImpact returns the tension delta applied when a beat of this
// type carries no explicit override.
func (t BeatType) DefaultTensionImpact() int {
	return beatTypeSpecs[t].impact
}

// IsMajorEvent reports whether the type marks a headline moment.
func (t BeatType) IsMajorEvent() bool {
	return beatTypeSpecs[t].major
}

// IsSystemEvent reports whether league mechanics produce the type.
func (t BeatType) IsSystemEvent() bool {
	return beatTypeSpecs[t].system
}

// IsPlayerEvent reports whether the type centers on specific players.
func (t BeatType) IsPlayerEvent() bool {
	return beatTypeSpecs[t].player
}

// IsRivalryEvent reports whether the type feeds a rivalry thread.
func (t BeatType) IsRivalryEvent() bool {
	return beatTypeSpecs[t].rivalry
}

// CanStartArc reports whether the type commonly opens a story arc.
func (t BeatType) CanStartArc() bool {
	return beatTypeSpecs[t].startsArc
}

// CanEndArc reports whether the type commonly closes a story arc.
func (t BeatType) CanEndArc() bool {
	return beatTypeSpecs[t].endsArc
}
