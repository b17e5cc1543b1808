package narrative

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

func TestDetectStallDefaults(t *testing.T) {
	detected := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	started := detected.Add(-30 * time.Hour)

	stall, err := DetectStall("league-1", StallNarrativeGap, started, "", fixedClock(detected), staticID("stall-1"))
	if err != nil {
		t.Fatalf("detect stall: %v", err)
	}

	if stall.Severity != StallNarrativeGap.DefaultSeverity() {
		t.Fatalf("severity = %v, want type default", stall.Severity)
	}
	if stall.Description != StallNarrativeGap.Description() {
		t.Fatalf("expected type description, got %q", stall.Description)
	}
	if stall.DurationHours != 30 {
		t.Fatalf("duration = %d, want 30", stall.DurationHours)
	}
	if stall.Status != StallOpen || stall.IsResolved() {
		t.Fatal("expected open condition")
	}
	if !stall.DetectedAt.Equal(detected) {
		t.Fatalf("detected at = %v", stall.DetectedAt)
	}
}

func TestNewStallValidation(t *testing.T) {
	started := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input StallInput
		code  apperrors.Code
	}{
		{"blank league", StallInput{LeagueID: " ", Type: StallNarrativeGap, StallStartedAt: started}, apperrors.CodeStallEmptyLeagueID},
		{"missing type", StallInput{LeagueID: "league-1", StallStartedAt: started}, apperrors.CodeStallMissingType},
		{"unknown type", StallInput{LeagueID: "league-1", Type: "doldrums", StallStartedAt: started}, apperrors.CodeStallTypeUnknown},
		{"missing start", StallInput{LeagueID: "league-1", Type: StallNarrativeGap}, apperrors.CodeStallMissingStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStall(tt.input, nil, nil)
			var domainErr *apperrors.Error
			if !errors.As(err, &domainErr) {
				t.Fatalf("expected domain error, got %v", err)
			}
			if domainErr.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, domainErr.Code)
			}
		})
	}
}

func TestStallResolveFreezesDuration(t *testing.T) {
	detected := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	started := detected.Add(-6 * time.Hour)

	stall, err := DetectStall("league-1", StallEngagementDrop, started, "quiet week", fixedClock(detected), staticID("stall-2"))
	if err != nil {
		t.Fatalf("detect stall: %v", err)
	}
	if stall.Description != "quiet week" {
		t.Fatalf("description = %q", stall.Description)
	}

	resolveTime := detected.Add(2 * time.Hour)
	if err := stall.Resolve(ActionSendNudge, "nudged the league", resolveTime); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !stall.IsResolved() || stall.ResolvedAt == nil || !stall.ResolvedAt.Equal(resolveTime) {
		t.Fatal("expected resolved state with timestamp")
	}
	if stall.ResolutionAction != ActionSendNudge || stall.ResolutionNotes != "nudged the league" {
		t.Fatalf("resolution = %v %q", stall.ResolutionAction, stall.ResolutionNotes)
	}

	frozen := stall.DurationHours
	err = stall.UpdateDuration(resolveTime.Add(100 * time.Hour))
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code != apperrors.CodeStallAlreadyResolved {
		t.Fatalf("expected code %s, got %s", apperrors.CodeStallAlreadyResolved, domainErr.Code)
	}
	if stall.DurationHours != frozen {
		t.Fatal("expected duration frozen after resolution")
	}

	if err := stall.Resolve(ActionSendNudge, "again", resolveTime); err == nil {
		t.Fatal("expected fault resolving twice")
	}
}

func TestStallUpdateDurationWhileOpen(t *testing.T) {
	detected := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	started := detected.Add(-1 * time.Hour)

	stall, err := DetectStall("league-1", StallTensionPlateau, started, "", fixedClock(detected), staticID("stall-3"))
	if err != nil {
		t.Fatalf("detect stall: %v", err)
	}
	if err := stall.UpdateDuration(started.Add(50 * time.Hour)); err != nil {
		t.Fatalf("update duration: %v", err)
	}
	if stall.DurationHours != 50 {
		t.Fatalf("duration = %d, want 50", stall.DurationHours)
	}
}

func TestStallThresholds(t *testing.T) {
	detected := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	// narrative_gap threshold is 24h; start 20h back.
	started := detected.Add(-20 * time.Hour)

	stall, err := DetectStall("league-1", StallNarrativeGap, started, "", fixedClock(detected), staticID("stall-4"))
	if err != nil {
		t.Fatalf("detect stall: %v", err)
	}

	if stall.ExceedsThreshold() {
		t.Fatal("expected threshold not yet exceeded")
	}
	if stall.RequiresImmediateAttention() {
		t.Fatal("narrative gap under threshold should not demand attention")
	}
	if got := stall.HoursUntilThreshold(); got != 4 {
		t.Fatalf("hours until threshold = %d, want 4", got)
	}

	if err := stall.UpdateDuration(started.Add(36 * time.Hour)); err != nil {
		t.Fatalf("update duration: %v", err)
	}
	if !stall.ExceedsThreshold() || !stall.RequiresImmediateAttention() {
		t.Fatal("expected overdue stall to demand attention")
	}
	if got := stall.HoursUntilThreshold(); got != 0 {
		t.Fatalf("hours until threshold = %d, want 0", got)
	}
	if stall.RecommendedAction() != ActionGenerateStoryBeat {
		t.Fatalf("recommended action = %v", stall.RecommendedAction())
	}
}

func TestStallImmediateAttentionByType(t *testing.T) {
	detected := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	stall, err := DetectStall("league-1", StallEngagementDrop, detected.Add(-1*time.Hour), "", fixedClock(detected), staticID("stall-5"))
	if err != nil {
		t.Fatalf("detect stall: %v", err)
	}
	if !stall.RequiresImmediateAttention() {
		t.Fatal("engagement drop should demand attention regardless of duration")
	}
}

func TestStallDiagnostics(t *testing.T) {
	detected := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	stall, err := NewStall(StallInput{
		LeagueID:          "league-1",
		Type:              StallPlayerInactivity,
		StallStartedAt:    detected.Add(-2 * time.Hour),
		AffectedPlayerIDs: []string{"p1", "p1"},
	}, fixedClock(detected), staticID("stall-6"))
	if err != nil {
		t.Fatalf("new stall: %v", err)
	}

	if len(stall.AffectedPlayerIDs) != 1 {
		t.Fatalf("players = %v, want one entry", stall.AffectedPlayerIDs)
	}
	stall.AddAffectedPlayer("p2")
	stall.AddDiagnostic("last_login_hours", "72")
	if len(stall.AffectedPlayerIDs) != 2 || stall.Diagnostics["last_login_hours"] != "72" {
		t.Fatalf("diagnostics = %v %v", stall.AffectedPlayerIDs, stall.Diagnostics)
	}
}
