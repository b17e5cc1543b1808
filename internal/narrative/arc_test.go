package narrative

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

func newTestArc(t *testing.T) Arc {
	t.Helper()
	arc, err := NewArc(ArcInput{
		LeagueID:    "league-1",
		Title:       "Wildcard Chaos",
		Description: "Everything is up for grabs",
	}, fixedClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)), staticID("arc-1"))
	if err != nil {
		t.Fatalf("new arc: %v", err)
	}
	return arc
}

func testBeatWithImpact(t *testing.T, id string, impact int, players ...string) Beat {
	t.Helper()
	beat, err := NewBeat(BeatInput{
		LeagueID:          "league-1",
		Type:              BeatMilestone,
		Title:             "Beat " + id,
		Phase:             PhaseRisingAction,
		TensionImpact:     &impact,
		InvolvedPlayerIDs: players,
	}, nil, staticID(id))
	if err != nil {
		t.Fatalf("new beat: %v", err)
	}
	return beat
}

func TestNewArcValidation(t *testing.T) {
	tests := []struct {
		name  string
		input ArcInput
		code  apperrors.Code
	}{
		{"blank league", ArcInput{LeagueID: " ", Title: "Arc"}, apperrors.CodeArcEmptyLeagueID},
		{"blank title", ArcInput{LeagueID: "league-1", Title: "  "}, apperrors.CodeArcEmptyTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArc(tt.input, nil, nil)
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

func TestNewArcDefaults(t *testing.T) {
	arc := newTestArc(t)
	if arc.Status != ArcActive {
		t.Fatalf("status = %v, want active", arc.Status)
	}
	if arc.Phase != PhaseSetup {
		t.Fatalf("phase = %v, want setup", arc.Phase)
	}
	if arc.PeakTension != 0 || arc.HasBeats() {
		t.Fatal("expected empty arc")
	}
}

func TestArcPeakTensionRunsAsClampedAccumulator(t *testing.T) {
	arc := newTestArc(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	impacts := []int{10, 40, -5}
	for i, impact := range impacts {
		beat := testBeatWithImpact(t, "beat-"+string(rune('a'+i)), impact)
		if err := arc.AddBeat(beat, now); err != nil {
			t.Fatalf("add beat %d: %v", i, err)
		}
	}

	if arc.PeakTension != 45 {
		t.Fatalf("peak tension = %d, want 45", arc.PeakTension)
	}
	if arc.BeatCount() != 3 {
		t.Fatalf("beat count = %d, want 3", arc.BeatCount())
	}
	if arc.PeakTensionLevel() != TensionModerate {
		t.Fatalf("peak level = %v, want moderate", arc.PeakTensionLevel())
	}
}

func TestArcRecordsRootBeatAndMergesPlayers(t *testing.T) {
	arc := newTestArc(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := testBeatWithImpact(t, "beat-root", 10, "p1", "p2")
	second := testBeatWithImpact(t, "beat-next", 5, "p2", "p3")
	if err := arc.AddBeat(first, now); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if err := arc.AddBeat(second, now); err != nil {
		t.Fatalf("add second: %v", err)
	}

	if arc.RootBeatID != "beat-root" {
		t.Fatalf("root = %q, want beat-root", arc.RootBeatID)
	}
	if len(arc.InvolvedPlayerIDs) != 3 {
		t.Fatalf("players = %v, want three entries", arc.InvolvedPlayerIDs)
	}
	if !arc.InvolvesPlayer("p3") {
		t.Fatal("expected p3 involvement")
	}
}

func TestArcAddBeatRequiresActiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	beat := testBeatWithImpact(t, "beat-x", 10)

	setups := []struct {
		name    string
		prepare func(*Arc)
	}{
		{"paused", func(a *Arc) { _ = a.Pause(now) }},
		{"completed", func(a *Arc) { _ = a.Complete(now) }},
		{"archived", func(a *Arc) { _ = a.Complete(now); _ = a.Archive(now) }},
	}

	for _, tt := range setups {
		t.Run(tt.name, func(t *testing.T) {
			arc := newTestArc(t)
			tt.prepare(&arc)
			before := arc.BeatCount()

			err := arc.AddBeat(beat, now)
			var domainErr *apperrors.Error
			if !errors.As(err, &domainErr) {
				t.Fatalf("expected domain error, got %v", err)
			}
			if domainErr.Code != apperrors.CodeArcStatusDisallowsBeats {
				t.Fatalf("expected code %s, got %s", apperrors.CodeArcStatusDisallowsBeats, domainErr.Code)
			}
			if arc.BeatCount() != before {
				t.Fatal("expected beat count unchanged after fault")
			}
		})
	}
}

func TestArcStatusMachine(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("active pauses and resumes", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.Pause(now); err != nil {
			t.Fatalf("pause: %v", err)
		}
		if err := arc.Resume(now); err != nil {
			t.Fatalf("resume: %v", err)
		}
	})

	t.Run("completes from paused", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.Pause(now); err != nil {
			t.Fatalf("pause: %v", err)
		}
		if err := arc.Complete(now); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if arc.CompletedAt == nil || !arc.CompletedAt.Equal(now) {
			t.Fatal("expected completion timestamp")
		}
	})

	t.Run("archive requires completed", func(t *testing.T) {
		arc := newTestArc(t)
		err := arc.Archive(now)
		var domainErr *apperrors.Error
		if !errors.As(err, &domainErr) {
			t.Fatalf("expected domain error, got %v", err)
		}
		if domainErr.Code != apperrors.CodeArcInvalidTransition {
			t.Fatalf("expected code %s, got %s", apperrors.CodeArcInvalidTransition, domainErr.Code)
		}
	})

	t.Run("archived is terminal", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.Complete(now); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if err := arc.Archive(now); err != nil {
			t.Fatalf("archive: %v", err)
		}
		if err := arc.Resume(now); err == nil {
			t.Fatal("expected fault resuming an archived arc")
		}
	})

	t.Run("resume requires paused", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.Resume(now); err == nil {
			t.Fatal("expected fault resuming an active arc")
		}
	})
}

func TestArcPhaseOperations(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("advance while ongoing", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.AdvancePhase(now); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if arc.Phase != PhaseRisingAction {
			t.Fatalf("phase = %v, want rising action", arc.Phase)
		}
		if err := arc.Pause(now); err != nil {
			t.Fatalf("pause: %v", err)
		}
		if err := arc.AdvancePhase(now); err != nil {
			t.Fatalf("advance while paused: %v", err)
		}
	})

	t.Run("advance stops at resolution", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.SetPhase(PhaseResolution, now); err != nil {
			t.Fatalf("set phase: %v", err)
		}
		err := arc.AdvancePhase(now)
		var domainErr *apperrors.Error
		if !errors.As(err, &domainErr) {
			t.Fatalf("expected domain error, got %v", err)
		}
		if domainErr.Code != apperrors.CodeArcNoNextPhase {
			t.Fatalf("expected code %s, got %s", apperrors.CodeArcNoNextPhase, domainErr.Code)
		}
	})

	t.Run("phase frozen once completed", func(t *testing.T) {
		arc := newTestArc(t)
		if err := arc.Complete(now); err != nil {
			t.Fatalf("complete: %v", err)
		}
		err := arc.SetPhase(PhaseClimax, now)
		var domainErr *apperrors.Error
		if !errors.As(err, &domainErr) {
			t.Fatalf("expected domain error, got %v", err)
		}
		if domainErr.Code != apperrors.CodeArcStatusDisallowsPhase {
			t.Fatalf("expected code %s, got %s", apperrors.CodeArcStatusDisallowsPhase, domainErr.Code)
		}
	})
}

func TestArcTitleAndDuration(t *testing.T) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	arc := newTestArc(t)

	if err := arc.UpdateTitle("  Chaos Week  ", created); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if arc.Title != "Chaos Week" {
		t.Fatalf("title = %q", arc.Title)
	}
	if err := arc.UpdateTitle("   ", created); err == nil {
		t.Fatal("expected fault for blank title")
	}

	if got := arc.DurationHours(created.Add(30 * time.Hour)); got != 30 {
		t.Fatalf("ongoing duration = %d, want 30", got)
	}
	if err := arc.Complete(created.Add(10 * time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := arc.DurationHours(created.Add(100 * time.Hour)); got != 10 {
		t.Fatalf("completed duration = %d, want 10", got)
	}
}
