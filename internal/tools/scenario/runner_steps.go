package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

func (r *Runner) runStep(ctx context.Context, state *scenarioState, step Step) error {
	switch step.Kind {
	case "director":
		return r.runDirectorStep(ctx, state, step)
	case "arc":
		return r.runArcStep(ctx, state, step)
	case "beat":
		return r.runBeatStep(ctx, state, step)
	case "publish":
		return r.runPublishStep(ctx, state, step)
	case "complete_arc":
		return r.runCompleteArcStep(ctx, state, step)
	case "advance_phase":
		return r.runAdvancePhaseStep(ctx, state, step)
	case "override_phase":
		return r.runOverridePhaseStep(ctx, state, step)
	case "tension":
		return r.runTensionStep(ctx, state, step)
	case "advance_clock":
		return r.runAdvanceClockStep(state, step)
	case "stall":
		return r.runStallStep(ctx, state, step)
	case "sweep":
		return r.runSweepStep(ctx, state)
	case "resolve_stall":
		return r.runResolveStallStep(ctx, state, step)
	case "action":
		return r.runActionStep(ctx, state, step)
	case "complete_action":
		return r.runCompleteActionStep(ctx, state, step)
	case "pause":
		return r.runPauseStep(ctx, state)
	case "resume":
		return r.runResumeStep(ctx, state)
	case "expect":
		return r.runExpectStep(ctx, state, step)
	default:
		return r.failf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) runDirectorStep(ctx context.Context, state *scenarioState, step Step) error {
	league := requiredString(step.Args, "league")
	if league == "" {
		return r.failf("director league is required")
	}
	director, err := r.svc.CreateDirector(ctx, league)
	if err != nil {
		return fmt.Errorf("create director: %w", err)
	}
	state.directorID = director.ID
	state.leagueID = director.LeagueID
	r.leagueID = director.LeagueID

	if hours, ok := readInt(step.Args, "stall_threshold_hours"); ok {
		if _, err := r.svc.SetStallDetectionThreshold(ctx, state.directorID, hours); err != nil {
			return fmt.Errorf("set stall threshold: %w", err)
		}
	}
	if target, ok := readInt(step.Args, "tension_target"); ok {
		if _, err := r.svc.SetTensionTarget(ctx, state.directorID, target); err != nil {
			return fmt.Errorf("set tension target: %w", err)
		}
	}
	if enabled, ok := readBool(step.Args, "automation"); ok {
		if _, err := r.svc.SetAutomation(ctx, state.directorID, enabled); err != nil {
			return fmt.Errorf("set automation: %w", err)
		}
	}
	return nil
}

func (r *Runner) runArcStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	title := requiredString(step.Args, "title")
	if title == "" {
		return r.failf("arc title is required")
	}
	arc, err := r.svc.StartArc(ctx, state.directorID, narrative.ArcInput{
		Title:       title,
		Description: optionalString(step.Args, "description", ""),
	})
	if err != nil {
		return fmt.Errorf("start arc: %w", err)
	}
	state.arcs[title] = arc.ID
	state.lastArc = title
	return nil
}

func (r *Runner) runBeatStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	title := requiredString(step.Args, "title")
	if title == "" {
		return r.failf("beat title is required")
	}
	arcID, err := r.resolveArcID(state, optionalString(step.Args, "arc", ""))
	if err != nil {
		return err
	}

	beatType, err := narrative.ParseBeatType(optionalString(step.Args, "type", string(narrative.BeatMilestone)))
	if err != nil {
		return err
	}
	input := narrative.BeatInput{
		Type:        beatType,
		Title:       title,
		Description: optionalString(step.Args, "description", ""),
		WeekNumber:  optionalInt(step.Args, "week", 0),
	}
	if phase := optionalString(step.Args, "phase", ""); phase != "" {
		parsed, err := narrative.ParsePhase(phase)
		if err != nil {
			return err
		}
		input.Phase = parsed
	}
	if impact, ok := readInt(step.Args, "impact"); ok {
		input.TensionImpact = &impact
	}
	input.InvolvedPlayerIDs = readStringSlice(step.Args, "players")

	beat, err := r.svc.AppendBeat(ctx, arcID, input)
	if err != nil {
		return fmt.Errorf("append beat: %w", err)
	}
	state.beats[title] = beat.ID
	state.lastBeat = title

	if optionalBool(step.Args, "publish", false) {
		if _, err := r.svc.PublishBeat(ctx, beat.ID); err != nil {
			return fmt.Errorf("publish beat: %w", err)
		}
	}
	return nil
}

func (r *Runner) runPublishStep(ctx context.Context, state *scenarioState, step Step) error {
	beatID, err := r.resolveBeatID(state, optionalString(step.Args, "beat", ""))
	if err != nil {
		return err
	}
	if _, err := r.svc.PublishBeat(ctx, beatID); err != nil {
		return fmt.Errorf("publish beat: %w", err)
	}
	return nil
}

func (r *Runner) runCompleteArcStep(ctx context.Context, state *scenarioState, step Step) error {
	arcID, err := r.resolveArcID(state, optionalString(step.Args, "arc", ""))
	if err != nil {
		return err
	}
	if _, err := r.svc.CompleteArc(ctx, arcID); err != nil {
		return fmt.Errorf("complete arc: %w", err)
	}
	return nil
}

func (r *Runner) runAdvancePhaseStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	director, err := r.svc.AdvanceDirectorPhase(ctx, state.directorID)
	if err != nil {
		return fmt.Errorf("advance phase: %w", err)
	}
	if expected := optionalString(step.Args, "expect_phase", ""); expected != "" {
		if string(director.Phase) != expected {
			return r.assertf("phase = %s, want %s", director.Phase, expected)
		}
	}
	return nil
}

func (r *Runner) runOverridePhaseStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	phase, err := narrative.ParsePhase(requiredString(step.Args, "phase"))
	if err != nil {
		return err
	}
	if _, err := r.svc.OverrideDirectorPhase(ctx, state.directorID, phase); err != nil {
		return fmt.Errorf("override phase: %w", err)
	}
	return nil
}

func (r *Runner) runTensionStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	impact, ok := readInt(step.Args, "impact")
	if !ok {
		return r.failf("tension impact is required")
	}
	director, err := r.svc.ApplyTensionImpact(ctx, state.directorID, impact)
	if err != nil {
		return fmt.Errorf("apply tension impact: %w", err)
	}
	if expected, ok := readInt(step.Args, "expect_tension"); ok {
		if director.TensionScore != expected {
			return r.assertf("tension = %d, want %d", director.TensionScore, expected)
		}
	}
	if expected := optionalString(step.Args, "expect_level", ""); expected != "" {
		if string(director.TensionLevel) != expected {
			return r.assertf("tension level = %s, want %s", director.TensionLevel, expected)
		}
	}
	return nil
}

func (r *Runner) runAdvanceClockStep(state *scenarioState, step Step) error {
	hours, ok := readInt(step.Args, "hours")
	if !ok {
		return r.failf("advance_clock hours is required")
	}
	r.clock.Advance(time.Duration(hours) * time.Hour)
	return nil
}

func (r *Runner) runStallStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	stallType, err := narrative.ParseStallType(requiredString(step.Args, "type"))
	if err != nil {
		return err
	}
	startedAt := r.clock.Now()
	if hours, ok := readInt(step.Args, "hours"); ok {
		startedAt = startedAt.Add(-time.Duration(hours) * time.Hour)
	}
	stall, err := r.svc.DetectSpecificStall(ctx, state.directorID, stallType, startedAt,
		optionalString(step.Args, "description", ""))
	if err != nil {
		return fmt.Errorf("detect stall: %w", err)
	}
	state.stallID = stall.ID
	return nil
}

func (r *Runner) runSweepStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	raised, err := r.svc.DetectStalls(ctx, state.directorID)
	if err != nil {
		return fmt.Errorf("detect stalls: %w", err)
	}
	if len(raised) > 0 {
		state.stallID = raised[0].ID
	}
	return nil
}

func (r *Runner) runResolveStallStep(ctx context.Context, state *scenarioState, step Step) error {
	stallID, err := r.resolveStallID(ctx, state)
	if err != nil {
		return err
	}
	action, err := narrative.ParseActionType(requiredString(step.Args, "action"))
	if err != nil {
		return err
	}
	if _, err := r.svc.ResolveStall(ctx, stallID, action, optionalString(step.Args, "notes", "")); err != nil {
		return fmt.Errorf("resolve stall: %w", err)
	}
	state.stallID = ""
	return nil
}

func (r *Runner) runActionStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	actionType, err := narrative.ParseActionType(requiredString(step.Args, "type"))
	if err != nil {
		return err
	}
	input := narrative.ActionInput{
		Type:        actionType,
		Description: optionalString(step.Args, "description", "Scenario action"),
	}
	if state.stallID != "" {
		input.RelatedStallID = state.stallID
	}
	action, err := r.svc.CreateAction(ctx, state.directorID, input, optionalString(step.Args, "by", ""))
	if err != nil {
		return fmt.Errorf("create action: %w", err)
	}
	state.actionID = action.ID
	return nil
}

func (r *Runner) runCompleteActionStep(ctx context.Context, state *scenarioState, step Step) error {
	if state.actionID == "" {
		return r.failf("no action to complete")
	}
	if _, err := r.svc.StartAction(ctx, state.actionID); err != nil {
		return fmt.Errorf("start action: %w", err)
	}
	results := map[string]string{}
	for key, value := range step.Args {
		if text, ok := value.(string); ok {
			results[key] = text
		}
	}
	if _, err := r.svc.CompleteAction(ctx, state.actionID, results); err != nil {
		return fmt.Errorf("complete action: %w", err)
	}
	state.actionID = ""
	return nil
}

func (r *Runner) runPauseStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	if _, err := r.svc.PauseDirector(ctx, state.directorID); err != nil {
		return fmt.Errorf("pause director: %w", err)
	}
	return nil
}

func (r *Runner) runResumeStep(ctx context.Context, state *scenarioState) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	if _, err := r.svc.ResumeDirector(ctx, state.directorID); err != nil {
		return fmt.Errorf("resume director: %w", err)
	}
	return nil
}

func (r *Runner) runExpectStep(ctx context.Context, state *scenarioState, step Step) error {
	if err := r.ensureDirector(state); err != nil {
		return err
	}
	director, err := r.svc.GetDirector(ctx, state.directorID)
	if err != nil {
		return fmt.Errorf("get director: %w", err)
	}

	if expected, ok := readInt(step.Args, "tension"); ok {
		if director.TensionScore != expected {
			if err := r.assertf("tension = %d, want %d", director.TensionScore, expected); err != nil {
				return err
			}
		}
	}
	if expected := optionalString(step.Args, "level", ""); expected != "" {
		if string(director.TensionLevel) != expected {
			if err := r.assertf("tension level = %s, want %s", director.TensionLevel, expected); err != nil {
				return err
			}
		}
	}
	if expected := optionalString(step.Args, "phase", ""); expected != "" {
		if string(director.Phase) != expected {
			if err := r.assertf("phase = %s, want %s", director.Phase, expected); err != nil {
				return err
			}
		}
	}
	if expected := optionalString(step.Args, "status", ""); expected != "" {
		if string(director.Status) != expected {
			if err := r.assertf("status = %s, want %s", director.Status, expected); err != nil {
				return err
			}
		}
	}
	if expected, ok := readInt(step.Args, "open_stalls"); ok {
		if len(director.OpenStallIDs) != expected {
			if err := r.assertf("open stalls = %d, want %d", len(director.OpenStallIDs), expected); err != nil {
				return err
			}
		}
	}
	if expected, ok := readInt(step.Args, "pending_actions"); ok {
		if len(director.PendingActionIDs) != expected {
			if err := r.assertf("pending actions = %d, want %d", len(director.PendingActionIDs), expected); err != nil {
				return err
			}
		}
	}
	if expected, ok := readInt(step.Args, "beats"); ok {
		if director.BeatsGenerated != expected {
			if err := r.assertf("beats generated = %d, want %d", director.BeatsGenerated, expected); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) resolveStallID(ctx context.Context, state *scenarioState) (narrative.StallID, error) {
	if state.stallID != "" {
		return state.stallID, nil
	}
	open, err := r.svc.ListOpenStalls(ctx, storage.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("list open stalls: %w", err)
	}
	for _, stall := range open {
		if stall.LeagueID == state.leagueID {
			return stall.ID, nil
		}
	}
	return "", r.failf("no open stall to resolve")
}
