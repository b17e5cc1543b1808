package narrative

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

func newTestDirector(t *testing.T) Director {
	t.Helper()
	director, err := NewDirector("league-1",
		fixedClock(time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)), staticID("director-1"))
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	return director
}

func TestNewDirectorDefaults(t *testing.T) {
	director := newTestDirector(t)

	if director.Phase != PhaseSetup {
		t.Fatalf("phase = %v, want setup", director.Phase)
	}
	if director.TensionScore != 50 || director.TensionLevel != TensionModerate {
		t.Fatalf("tension = %d/%v, want 50/moderate", director.TensionScore, director.TensionLevel)
	}
	if director.Status != DirectorActive || !director.AutomationEnabled {
		t.Fatal("expected active director with automation on")
	}
	if director.StallThresholdHours != 24 || director.TensionTarget != 60 {
		t.Fatalf("config = %d/%d, want 24/60", director.StallThresholdHours, director.TensionTarget)
	}
	if !director.AutoGenerateBeats || !director.AutoResolveStalls {
		t.Fatal("expected auto toggles on")
	}
	if director.BeatsGenerated != 0 || director.StallsDetected != 0 || director.ActionsExecuted != 0 {
		t.Fatal("expected zeroed counters")
	}
	if !director.CanRunAutomation() {
		t.Fatal("expected automation runnable")
	}
}

func TestNewDirectorRequiresLeague(t *testing.T) {
	_, err := NewDirector("   ", nil, nil)
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code != apperrors.CodeDirectorEmptyLeagueID {
		t.Fatalf("expected code %s, got %s", apperrors.CodeDirectorEmptyLeagueID, domainErr.Code)
	}
}

func TestApplyTensionImpactScalesByPhase(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	// SETUP multiplier is 0.5: 50 + int(30*0.5) = 65.
	director.ApplyTensionImpact(30, now)
	if director.TensionScore != 65 {
		t.Fatalf("score = %d, want 65", director.TensionScore)
	}
	if director.TensionLevel != TensionHigh {
		t.Fatalf("level = %v, want high", director.TensionLevel)
	}
}

func TestUpdateTensionClamps(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	director.UpdateTension(250, now)
	if director.TensionScore != 100 || director.TensionLevel != TensionCritical {
		t.Fatalf("tension = %d/%v, want 100/critical", director.TensionScore, director.TensionLevel)
	}
	if !director.IsTensionCritical() {
		t.Fatal("expected critical tension")
	}

	director.UpdateTension(-10, now)
	if director.TensionScore != 0 || !director.IsTensionLow() {
		t.Fatalf("tension = %d/%v, want 0/low risk", director.TensionScore, director.TensionLevel)
	}
}

func TestAdjustTensionTowardsTargetStepsByOne(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	director.AdjustTensionTowardsTarget(now)
	if director.TensionScore != 51 {
		t.Fatalf("score = %d, want 51", director.TensionScore)
	}

	if err := director.SetTensionTarget(49, now); err != nil {
		t.Fatalf("set target: %v", err)
	}
	director.AdjustTensionTowardsTarget(now)
	if director.TensionScore != 50 {
		t.Fatalf("score = %d, want 50", director.TensionScore)
	}

	if err := director.SetTensionTarget(50, now); err != nil {
		t.Fatalf("set target: %v", err)
	}
	director.AdjustTensionTowardsTarget(now)
	if director.TensionScore != 50 {
		t.Fatalf("score = %d, want unchanged 50", director.TensionScore)
	}
}

func TestAdvancePhaseFiveCallsFromSetup(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	for i := 0; i < 4; i++ {
		if err := director.AdvancePhase(now); err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
	}
	if director.Phase != PhaseResolution {
		t.Fatalf("phase = %v, want resolution", director.Phase)
	}

	err := director.AdvancePhase(now)
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code != apperrors.CodeDirectorNoNextPhase {
		t.Fatalf("expected code %s, got %s", apperrors.CodeDirectorNoNextPhase, domainErr.Code)
	}
}

func TestAdvancePhaseRequiresOperationalDirector(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)
	if err := director.Pause(now); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if err := director.AdvancePhase(now); err == nil {
		t.Fatal("expected fault advancing a paused director")
	}

	// Override remains available as the curator escape hatch.
	if err := director.OverridePhase(PhaseClimax, now); err != nil {
		t.Fatalf("override: %v", err)
	}
	if director.Phase != PhaseClimax {
		t.Fatalf("phase = %v, want climax", director.Phase)
	}
	if err := director.OverridePhase("", now); err == nil {
		t.Fatal("expected fault for missing phase")
	}
}

func TestRegisterStallTwiceKeepsSetButCountsBoth(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	if err := director.RegisterStall("stall-x", now); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := director.RegisterStall("stall-x", now); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	if director.ActiveStallCount() != 1 {
		t.Fatalf("open stalls = %d, want 1", director.ActiveStallCount())
	}
	if director.StallsDetected != 2 {
		t.Fatalf("stalls detected = %d, want 2", director.StallsDetected)
	}
	if !director.HasActiveStalls() {
		t.Fatal("expected active stalls")
	}
}

func TestStallRegistrationAndResolutionActivityStamps(t *testing.T) {
	created := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	registerTime := created.Add(2 * time.Hour)
	if err := director.RegisterStall("stall-x", registerTime); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !director.LastActivityAt.Equal(created) {
		t.Fatal("registration must not count as narrative activity")
	}
	if !director.UpdatedAt.Equal(registerTime) {
		t.Fatal("registration must still stamp updatedAt")
	}

	resolveTime := created.Add(3 * time.Hour)
	if err := director.ResolveStall("stall-x", resolveTime); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !director.LastActivityAt.Equal(resolveTime) {
		t.Fatal("resolution counts as narrative activity")
	}
	if director.HasActiveStalls() {
		t.Fatal("expected no open stalls")
	}
}

func TestActionQueueAndCompletion(t *testing.T) {
	created := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	queueTime := created.Add(time.Hour)
	if err := director.QueueAction("action-1", queueTime); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if err := director.QueueAction("action-1", queueTime); err != nil {
		t.Fatalf("re-queue: %v", err)
	}
	if director.PendingActionCount() != 1 || !director.HasPendingActions() {
		t.Fatalf("pending = %d", director.PendingActionCount())
	}
	if !director.LastActivityAt.Equal(created) {
		t.Fatal("queueing must not count as narrative activity")
	}

	completeTime := created.Add(2 * time.Hour)
	if err := director.CompleteAction("action-1", completeTime); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if director.HasPendingActions() {
		t.Fatal("expected empty pending set")
	}
	if director.ActionsExecuted != 1 {
		t.Fatalf("executed = %d, want 1", director.ActionsExecuted)
	}
	if !director.LastActivityAt.Equal(completeTime) {
		t.Fatal("completion counts as narrative activity")
	}
}

func TestDirectorLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

	t.Run("pause and resume", func(t *testing.T) {
		director := newTestDirector(t)
		if err := director.Pause(now); err != nil {
			t.Fatalf("pause: %v", err)
		}
		if director.IsOperational() || director.CanRunAutomation() {
			t.Fatal("paused director is not operational")
		}
		if err := director.Pause(now); err == nil {
			t.Fatal("expected fault pausing twice")
		}
		if err := director.Resume(now); err != nil {
			t.Fatalf("resume: %v", err)
		}
		if !director.IsOperational() {
			t.Fatal("expected operational after resume")
		}
	})

	t.Run("suspend forces automation off", func(t *testing.T) {
		director := newTestDirector(t)
		director.Suspend(now)
		if director.Status != DirectorSuspended || director.AutomationEnabled {
			t.Fatalf("status = %v automation = %v", director.Status, director.AutomationEnabled)
		}
		if err := director.Resume(now); err == nil {
			t.Fatal("suspended director cannot resume, only reactivate")
		}
		if err := director.Reactivate(now); err != nil {
			t.Fatalf("reactivate: %v", err)
		}
		if director.AutomationEnabled {
			t.Fatal("reactivation must not silently re-enable automation")
		}
		director.EnableAutomation(now)
		if !director.CanRunAutomation() {
			t.Fatal("expected automation runnable after explicit enable")
		}
	})

	t.Run("reactivate requires suspended", func(t *testing.T) {
		director := newTestDirector(t)
		if err := director.Reactivate(now); err == nil {
			t.Fatal("expected fault reactivating an active director")
		}
	})
}

func TestDirectorConfigurationValidation(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	if err := director.SetStallDetectionThreshold(0, now); err == nil {
		t.Fatal("expected fault for threshold below one hour")
	}
	if err := director.SetStallDetectionThreshold(48, now); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	if director.StallThresholdHours != 48 {
		t.Fatalf("threshold = %d", director.StallThresholdHours)
	}

	if err := director.SetTensionTarget(101, now); err == nil {
		t.Fatal("expected fault for target above 100")
	}
	if err := director.SetTensionTarget(-1, now); err == nil {
		t.Fatal("expected fault for negative target")
	}

	director.SetAutoGenerateBeats(false, now)
	director.SetAutoResolveStalls(false, now)
	if director.AutoGenerateBeats || director.AutoResolveStalls {
		t.Fatal("expected auto toggles off")
	}
}

func TestDirectorInactivity(t *testing.T) {
	created := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	if director.IsInactive(created.Add(23 * time.Hour)) {
		t.Fatal("expected active inside the threshold window")
	}
	if !director.IsInactive(created.Add(24 * time.Hour)) {
		t.Fatal("expected inactive at the threshold")
	}
	if got := director.HoursSinceLastActivity(created.Add(30 * time.Hour)); got != 30 {
		t.Fatalf("hours since activity = %d, want 30", got)
	}

	// Recording a beat resets the inactivity clock.
	director.RecordBeatGenerated(created.Add(24 * time.Hour))
	if director.BeatsGenerated != 1 {
		t.Fatalf("beats generated = %d", director.BeatsGenerated)
	}
	if director.IsInactive(created.Add(30 * time.Hour)) {
		t.Fatal("expected active after fresh beat")
	}
}

func TestDirectorActiveArc(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	director := newTestDirector(t)

	if director.HasActiveArc() {
		t.Fatal("expected no active arc initially")
	}
	if err := director.SetActiveArc("", now); err == nil {
		t.Fatal("expected fault for empty arc id")
	}
	if err := director.SetActiveArc("arc-1", now); err != nil {
		t.Fatalf("set arc: %v", err)
	}
	if !director.HasActiveArc() || !director.LastActivityAt.Equal(now) {
		t.Fatal("expected active arc with activity stamp")
	}

	clearTime := now.Add(time.Hour)
	director.ClearActiveArc(clearTime)
	if director.HasActiveArc() {
		t.Fatal("expected cleared arc")
	}
	if director.LastActivityAt.Equal(clearTime) {
		t.Fatal("clearing must not count as narrative activity")
	}
}
