package narrative

import (
	"strings"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// Phase identifies where a league sits in its dramatic structure.
type Phase string

const (
	PhaseSetup         Phase = "setup"
	PhaseRisingAction  Phase = "rising_action"
	PhaseClimax        Phase = "climax"
	PhaseFallingAction Phase = "falling_action"
	PhaseResolution    Phase = "resolution"
)

// phaseOrder fixes the dramatic progression. Next and Previous walk this
// slice, so a new phase only needs to be inserted here.
var phaseOrder = [...]Phase{
	PhaseSetup,
	PhaseRisingAction,
	PhaseClimax,
	PhaseFallingAction,
	PhaseResolution,
}

// Phases returns every phase in dramatic order.
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder[:])
	return out
}

// ParsePhase resolves a phase from its wire code. Unknown codes are an
// invalid-argument fault; callers must not guess a default.
func ParsePhase(code string) (Phase, error) {
	normalized := Phase(strings.ToLower(strings.TrimSpace(code)))
	for _, phase := range phaseOrder {
		if phase == normalized {
			return phase, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodePhaseUnknown,
		"unknown narrative phase code", map[string]string{"code": code})
}

func (p Phase) String() string {
	return string(p)
}

// index returns the position in phaseOrder, or -1 for unknown phases.
func (p Phase) index() int {
	for i, phase := range phaseOrder {
		if phase == p {
			return i
		}
	}
	return -1
}

// TensionMultiplier scales raw tension impacts applied during this phase.
func (p Phase) TensionMultiplier() float64 {
	switch p {
	case PhaseSetup:
		return 0.5
	case PhaseRisingAction:
		return 1.0
	case PhaseClimax:
		return 1.5
	case PhaseFallingAction:
		return 1.2
	case PhaseResolution:
		return 0.8
	default:
		return 0
	}
}

// Next returns the following phase. The second result is false at
// RESOLUTION, which has no successor.
func (p Phase) Next() (Phase, bool) {
	i := p.index()
	if i < 0 || i+1 >= len(phaseOrder) {
		return "", false
	}
	return phaseOrder[i+1], true
}

// Previous returns the preceding phase. The second result is false at SETUP,
// which has no predecessor.
func (p Phase) Previous() (Phase, bool) {
	i := p.index()
	if i <= 0 {
		return "", false
	}
	return phaseOrder[i-1], true
}

// IsEarly reports whether the phase belongs to the build-up half.
func (p Phase) IsEarly() bool {
	return p == PhaseSetup || p == PhaseRisingAction
}

// IsPeak reports whether the phase is the dramatic high point.
func (p Phase) IsPeak() bool {
	return p == PhaseClimax
}

// IsConcluding reports whether the phase winds the narrative down.
func (p Phase) IsConcluding() bool {
	return p == PhaseFallingAction || p == PhaseResolution
}

// AllowsMajorEvents reports whether major story beats fit this phase.
// Only RESOLUTION closes the door on them.
func (p Phase) AllowsMajorEvents() bool {
	return p != PhaseResolution
}
