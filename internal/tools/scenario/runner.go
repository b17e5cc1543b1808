// Package scenario executes Lua orchestration scripts against an in-process
// narrative service backed by a throwaway SQLite store.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/dramaturge/internal/director/notify"
	"github.com/louisbranch/dramaturge/internal/director/notify/render"
	"github.com/louisbranch/dramaturge/internal/director/service"
	"github.com/louisbranch/dramaturge/internal/director/storage/sqlite"
	"github.com/louisbranch/dramaturge/internal/narrative"
)

// Config controls scenario execution.
type Config struct {
	DBPath     string
	Timeout    time.Duration
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		Assertions: AssertionStrict,
		Verbose:    false,
	}
}

// scenarioClock is a movable clock so scripts can jump the narrative forward.
type scenarioClock struct {
	mu sync.Mutex
	at time.Time
}

func newScenarioClock() *scenarioClock {
	return &scenarioClock{at: time.Now().UTC()}
}

func (c *scenarioClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *scenarioClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

// Runner executes Lua scenarios against the narrative service.
type Runner struct {
	store      *sqlite.Store
	svc        *service.Service
	notifier   *notify.Service
	clock      *scenarioClock
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	timeout    time.Duration
	tempDir    string
	leagueID   string
}

// scenarioState tracks ids created while a scenario runs.
type scenarioState struct {
	directorID narrative.DirectorID
	leagueID   string
	arcs       map[string]narrative.ArcID
	beats      map[string]narrative.BeatID
	lastArc    string
	lastBeat   string
	stallID    narrative.StallID
	actionID   narrative.ActionID
}

// NewRunner opens storage and prepares a scenario runner. When no database
// path is configured the runner uses a temporary file removed on Close.
func NewRunner(ctx context.Context, cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	dbPath := cfg.DBPath
	tempDir := ""
	if dbPath == "" {
		dir, err := os.MkdirTemp("", "dramaturge-scenario-")
		if err != nil {
			return nil, fmt.Errorf("create scenario dir: %w", err)
		}
		tempDir = dir
		dbPath = filepath.Join(dir, "scenario.db")
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		if tempDir != "" {
			_ = os.RemoveAll(tempDir)
		}
		return nil, fmt.Errorf("open scenario store: %w", err)
	}

	clock := newScenarioClock()
	notifier := notify.NewService(store, clock.Now, nil)
	svc := service.New(store,
		service.WithClock(clock.Now),
		service.WithNotifier(notifier))

	return &Runner{
		store:      store,
		svc:        svc,
		notifier:   notifier,
		clock:      clock,
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		timeout:    timeout,
		tempDir:    tempDir,
	}, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	err := r.store.Close()
	if r.tempDir != "" {
		if removeErr := os.RemoveAll(r.tempDir); err == nil {
			err = removeErr
		}
	}
	return err
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New("scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	state := &scenarioState{
		arcs:  map[string]narrative.ArcID{},
		beats: map[string]narrative.BeatID{},
	}

	for index, step := range scenario.Steps {
		step := step
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		stepStart := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := r.runStep(stepCtx, state, step)
		cancel()
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s (%s)", stepNumber, len(scenario.Steps), step.Kind, time.Since(stepStart))
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

// RenderIntents writes localized copy for the notification intents the last
// scenario produced, oldest first. An empty locale renders English.
func (r *Runner) RenderIntents(ctx context.Context, w io.Writer, locale string) error {
	if r.leagueID == "" || w == nil {
		return nil
	}
	if locale == "" {
		locale = "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("parse locale %q: %w", locale, err)
	}
	loc := message.NewPrinter(tag)

	intents, err := r.notifier.ListIntents(ctx, r.leagueID, 0)
	if err != nil {
		return fmt.Errorf("list intents: %w", err)
	}
	for i := len(intents) - 1; i >= 0; i-- {
		intent := intents[i]
		rendered := render.Render(loc, render.Input{
			Topic:       intent.Topic,
			PayloadJSON: intent.PayloadJSON,
			Channel:     render.ChannelInApp,
		})
		if _, err := fmt.Fprintf(w, "%s: %s\n", rendered.Title, rendered.BodyText); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
