package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/dramaturge/internal/director/filter"
	"github.com/louisbranch/dramaturge/internal/director/storage"
	"github.com/louisbranch/dramaturge/internal/narrative"
	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "narrative.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func staticID(id string) func() (string, error) {
	return func() (string, error) { return id, nil }
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestDirectorRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	director, err := narrative.NewDirector("league-1", fixedClock(now), staticID("dir-1"))
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	if err := director.RegisterStall("stall-1", now); err != nil {
		t.Fatalf("register stall: %v", err)
	}

	created, err := store.CreateDirector(ctx, director)
	if err != nil {
		t.Fatalf("create director: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("version = %d, want 1", created.Version)
	}

	loaded, err := store.GetDirectorByLeague(ctx, "league-1")
	if err != nil {
		t.Fatalf("get by league: %v", err)
	}
	if loaded.ID != "dir-1" || loaded.TensionScore != 50 || loaded.Phase != narrative.PhaseSetup {
		t.Fatalf("loaded = %+v", loaded.Director)
	}
	if len(loaded.OpenStallIDs) != 1 || loaded.OpenStallIDs[0] != "stall-1" {
		t.Fatalf("open stalls = %v", loaded.OpenStallIDs)
	}
	if !loaded.CreatedAt.Equal(now) || !loaded.LastActivityAt.Equal(now) {
		t.Fatalf("timestamps = %v %v", loaded.CreatedAt, loaded.LastActivityAt)
	}
	if !loaded.AutomationEnabled || !loaded.AutoGenerateBeats {
		t.Fatal("expected automation defaults preserved")
	}
}

func TestDirectorUniquePerLeague(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := narrative.NewDirector("league-1", nil, staticID("dir-1"))
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	if _, err := store.CreateDirector(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second, err := narrative.NewDirector("league-1", nil, staticID("dir-2"))
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	_, err = store.CreateDirector(ctx, second)
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if domainErr.Code != apperrors.CodeAlreadyExists {
		t.Fatalf("expected code %s, got %s", apperrors.CodeAlreadyExists, domainErr.Code)
	}
}

func TestDirectorVersionConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	director, err := narrative.NewDirector("league-1", fixedClock(now), staticID("dir-1"))
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	record, err := store.CreateDirector(ctx, director)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	record.UpdateTension(70, now.Add(time.Hour))
	updated, err := store.UpdateDirector(ctx, record)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d, want 2", updated.Version)
	}

	// The stale record still carries version 1.
	record.UpdateTension(30, now.Add(2*time.Hour))
	if _, err := store.UpdateDirector(ctx, record); !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestDirectorNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetDirector(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	director, err := narrative.NewDirector("league-1", nil, staticID("ghost"))
	if err != nil {
		t.Fatalf("new director: %v", err)
	}
	record := storage.DirectorRecord{Director: director, Version: 1}
	if _, err := store.UpdateDirector(ctx, record); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found updating missing row, got %v", err)
	}
}

func TestArcRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	arc, err := narrative.NewArc(narrative.ArcInput{
		LeagueID: "league-1",
		Title:    "Rivalry Week",
	}, fixedClock(now), staticID("arc-1"))
	if err != nil {
		t.Fatalf("new arc: %v", err)
	}
	if _, err := store.CreateArc(ctx, arc); err != nil {
		t.Fatalf("create arc: %v", err)
	}

	record, err := store.GetArc(ctx, "arc-1")
	if err != nil {
		t.Fatalf("get arc: %v", err)
	}

	beat := testBeat(t, "beat-1", 25, "p1")
	if err := record.AddBeat(beat, now.Add(time.Hour)); err != nil {
		t.Fatalf("add beat: %v", err)
	}
	if err := record.Complete(now.Add(2 * time.Hour)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := store.UpdateArc(ctx, record); err != nil {
		t.Fatalf("update arc: %v", err)
	}

	loaded, err := store.GetArc(ctx, "arc-1")
	if err != nil {
		t.Fatalf("reload arc: %v", err)
	}
	if loaded.Status != narrative.ArcCompleted || loaded.CompletedAt == nil {
		t.Fatalf("status = %v completed = %v", loaded.Status, loaded.CompletedAt)
	}
	if loaded.RootBeatID != "beat-1" || loaded.PeakTension != 25 {
		t.Fatalf("root = %q peak = %d", loaded.RootBeatID, loaded.PeakTension)
	}
	if !loaded.InvolvesPlayer("p1") {
		t.Fatal("expected player carried through storage")
	}

	byStatus, err := store.ListArcsByStatus(ctx, narrative.ArcCompleted, storage.ListOptions{})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "arc-1" {
		t.Fatalf("by status = %v", byStatus)
	}
}

func testBeat(t *testing.T, id string, impact int, players ...string) narrative.Beat {
	t.Helper()
	beat, err := narrative.NewBeat(narrative.BeatInput{
		LeagueID:          "league-1",
		Type:              narrative.BeatComeback,
		Title:             "Beat " + id,
		Phase:             narrative.PhaseRisingAction,
		TensionImpact:     &impact,
		InvolvedPlayerIDs: players,
	}, nil, staticID(id))
	if err != nil {
		t.Fatalf("new beat: %v", err)
	}
	return beat
}

func TestBeatRoundTripAndFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	types := []narrative.BeatType{narrative.BeatComeback, narrative.BeatMilestone, narrative.BeatComeback}
	for i, typ := range types {
		occurred := base.Add(time.Duration(i) * time.Hour)
		beat, err := narrative.NewBeat(narrative.BeatInput{
			LeagueID:   "league-1",
			Type:       typ,
			Title:      "Week beat",
			Phase:      narrative.PhaseRisingAction,
			OccurredAt: &occurred,
			WeekNumber: i + 1,
		}, fixedClock(base), staticID("beat-"+string(rune('a'+i))))
		if err != nil {
			t.Fatalf("new beat %d: %v", i, err)
		}
		if _, err := store.CreateBeat(ctx, beat); err != nil {
			t.Fatalf("create beat %d: %v", i, err)
		}
	}

	all, err := store.ListBeatsByLeague(ctx, "league-1", storage.ListOptions{})
	if err != nil {
		t.Fatalf("list beats: %v", err)
	}
	if len(all) != 3 || all[0].ID != "beat-c" {
		t.Fatalf("expected newest first, got %v", all)
	}

	cond, err := filter.ParseBeatFilter(`type = "comeback" AND week >= 2`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	filtered, err := store.ListBeatsByLeague(ctx, "league-1", storage.ListOptions{Filter: cond})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "beat-c" {
		t.Fatalf("filtered = %v", filtered)
	}

	latest, ok, err := store.LatestBeatTime(ctx, "league-1")
	if err != nil || !ok {
		t.Fatalf("latest beat time: %v ok=%v", err, ok)
	}
	if fromMillis(latest) != base.Add(2*time.Hour) {
		t.Fatalf("latest = %v", fromMillis(latest))
	}

	if _, ok, err := store.LatestBeatTime(ctx, "league-silent"); err != nil || ok {
		t.Fatalf("expected no beats for silent league, ok=%v err=%v", ok, err)
	}
}

func TestBeatPublishPersists(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	beat := testBeat(t, "beat-pub", 10)
	record, err := store.CreateBeat(ctx, beat)
	if err != nil {
		t.Fatalf("create beat: %v", err)
	}
	if err := record.Publish(now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := record.AddParent("beat-parent"); err != nil {
		t.Fatalf("add parent: %v", err)
	}
	if _, err := store.UpdateBeat(ctx, record); err != nil {
		t.Fatalf("update beat: %v", err)
	}

	loaded, err := store.GetBeat(ctx, "beat-pub")
	if err != nil {
		t.Fatalf("get beat: %v", err)
	}
	if !loaded.IsPublished() || loaded.PublishedAt == nil || !loaded.PublishedAt.Equal(now) {
		t.Fatalf("published = %v at %v", loaded.Status, loaded.PublishedAt)
	}
	if len(loaded.ParentBeatIDs) != 1 || loaded.ParentBeatIDs[0] != "beat-parent" {
		t.Fatalf("parents = %v", loaded.ParentBeatIDs)
	}
}

func TestStallRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	detected := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	stall, err := narrative.DetectStall("league-1", narrative.StallNarrativeGap,
		detected.Add(-30*time.Hour), "", fixedClock(detected), staticID("stall-1"))
	if err != nil {
		t.Fatalf("detect stall: %v", err)
	}
	stall.AddDiagnostic("beats_last_week", "0")

	if _, err := store.CreateStall(ctx, stall); err != nil {
		t.Fatalf("create stall: %v", err)
	}

	open, err := store.ListOpenStalls(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].ID != "stall-1" {
		t.Fatalf("open = %v", open)
	}

	record := open[0]
	if err := record.Resolve(narrative.ActionGenerateStoryBeat, "generated a recap", detected.Add(time.Hour)); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := store.UpdateStall(ctx, record); err != nil {
		t.Fatalf("update stall: %v", err)
	}

	loaded, err := store.GetStall(ctx, "stall-1")
	if err != nil {
		t.Fatalf("get stall: %v", err)
	}
	if !loaded.IsResolved() || loaded.ResolutionAction != narrative.ActionGenerateStoryBeat {
		t.Fatalf("resolution = %v %v", loaded.Status, loaded.ResolutionAction)
	}
	if loaded.DurationHours != 30 || loaded.Diagnostics["beats_last_week"] != "0" {
		t.Fatalf("duration = %d diagnostics = %v", loaded.DurationHours, loaded.Diagnostics)
	}

	cond, err := filter.ParseStallFilter(`status = "resolved"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	resolved, err := store.ListStallsByLeague(ctx, "league-1", storage.ListOptions{Filter: cond})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("resolved = %v", resolved)
	}
}

func TestActionRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	action, err := narrative.NewAutomatedAction(narrative.ActionInput{
		LeagueID:       "league-1",
		Type:           narrative.ActionSendNudge,
		Description:    "Nudge inactive players",
		RelatedStallID: "stall-1",
		Parameters:     map[string]string{"channel": "email"},
	}, fixedClock(now), staticID("action-1"))
	if err != nil {
		t.Fatalf("new action: %v", err)
	}

	if _, err := store.CreateAction(ctx, action); err != nil {
		t.Fatalf("create action: %v", err)
	}

	pending, err := store.ListActionsByStatus(ctx, narrative.ActionPending, storage.ListOptions{})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].RelatedStallID != "stall-1" {
		t.Fatalf("pending = %v", pending)
	}

	record := pending[0]
	if err := record.StartExecution(now.Add(time.Minute)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := record.Complete(map[string]string{"notified": "3"}, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := store.UpdateAction(ctx, record); err != nil {
		t.Fatalf("update action: %v", err)
	}

	loaded, err := store.GetAction(ctx, "action-1")
	if err != nil {
		t.Fatalf("get action: %v", err)
	}
	if !loaded.IsSuccessful() || loaded.Results["notified"] != "3" {
		t.Fatalf("loaded = %v results = %v", loaded.Status, loaded.Results)
	}
	if loaded.Parameters["channel"] != "email" {
		t.Fatalf("parameters = %v", loaded.Parameters)
	}
	duration, ok := loaded.ExecutionDuration()
	if !ok || duration != time.Minute {
		t.Fatalf("duration = %v ok=%v", duration, ok)
	}
}
