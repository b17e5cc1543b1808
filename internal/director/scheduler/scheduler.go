// Package scheduler drives the periodic orchestration sweep. The loop never
// decides narrative rules itself; it only invokes core operations and logs
// what they refused.
package scheduler

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/dramaturge/internal/director/service"
	"github.com/louisbranch/dramaturge/internal/director/storage"
)

const (
	defaultPollInterval = time.Minute
	defaultListLimit    = 200
)

// Config controls sweep cadence and batch sizes.
type Config struct {
	// PollInterval is the pause between sweeps.
	PollInterval time.Duration
	// ListLimit caps how many records one sweep touches per query.
	ListLimit int
}

// normalized applies defaults for zero values.
func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.ListLimit <= 0 {
		c.ListLimit = defaultListLimit
	}
	return c
}

// Scheduler runs the orchestration sweep against the narrative service.
type Scheduler struct {
	svc    *service.Service
	cfg    Config
	tracer trace.Tracer
	logf   func(format string, args ...any)
}

// New constructs a scheduler. A nil logf falls back to the standard logger.
func New(svc *service.Service, cfg Config, logf func(format string, args ...any)) *Scheduler {
	if logf == nil {
		logf = log.Printf
	}
	return &Scheduler{
		svc:    svc,
		cfg:    cfg.normalized(),
		tracer: otel.Tracer("dramaturge/director/scheduler"),
		logf:   logf,
	}
}

// Run sweeps immediately, then on every tick until the context ends.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Sweep(ctx); err != nil {
		s.logf("scheduler sweep: %v", err)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logf("scheduler sweep: %v", err)
			}
		}
	}
}

// Sweep performs one orchestration pass: refresh open stall durations, run
// the stagnation checks per director, and nudge tension toward target where
// automation allows. Per-record failures are logged, not fatal, so one league
// cannot starve the rest.
func (s *Scheduler) Sweep(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "scheduler.sweep")
	defer span.End()

	opts := storage.ListOptions{Limit: s.cfg.ListLimit}

	open, err := s.svc.ListOpenStalls(ctx, opts)
	if err != nil {
		return err
	}
	for _, stall := range open {
		if _, err := s.svc.RefreshStallDuration(ctx, stall.ID); err != nil {
			s.logf("refresh stall %s: %v", stall.ID, err)
		}
	}

	directors, err := s.svc.ListDirectors(ctx, opts)
	if err != nil {
		return err
	}

	var raisedCount int
	for _, director := range directors {
		if !director.IsOperational() {
			continue
		}

		raised, err := s.svc.DetectStalls(ctx, director.ID)
		if err != nil {
			s.logf("detect stalls for league %s: %v", director.LeagueID, err)
		} else {
			raisedCount += len(raised)
		}

		if director.CanRunAutomation() {
			if _, err := s.svc.AdjustTensionTowardsTarget(ctx, director.ID); err != nil {
				s.logf("adjust tension for league %s: %v", director.LeagueID, err)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("scheduler.directors", len(directors)),
		attribute.Int("scheduler.open_stalls", len(open)),
		attribute.Int("scheduler.stalls_raised", raisedCount),
	)
	return nil
}
