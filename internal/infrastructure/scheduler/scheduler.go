package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// Exporter runs one day's export.
type Exporter interface {
	ExportDay(ctx context.Context, day domain.Day) (*domain.ExportSnapshot, error)
}

// Config for Scheduler.
type Config struct {
	Exporter Exporter
	Logger   zerolog.Logger
	At       time.Duration // offset from UTC midnight
	Now      func() time.Time
	After    func(time.Duration) <-chan time.Time
}

// Scheduler triggers the daily export once per UTC day at a fixed time.
type Scheduler struct {
	exporter Exporter
	logger   zerolog.Logger
	at       time.Duration
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

// New creates a new Scheduler.
func New(cfg Config) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.After == nil {
		cfg.After = time.After
	}

	return &Scheduler{
		exporter: cfg.Exporter,
		logger:   cfg.Logger,
		at:       cfg.At,
		now:      cfg.Now,
		after:    cfg.After,
	}
}

// Start runs until ctx is cancelled. A failed run is logged; the day can be
// exported again on demand.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Dur("at", s.at).Msg("export scheduler started")

	for {
		next := NextRun(s.now(), s.at)

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("export scheduler shutting down")
			return ctx.Err()
		case <-s.after(next.Sub(s.now())):
			s.run(ctx, domain.DayOf(next))
		}
	}
}

func (s *Scheduler) run(ctx context.Context, day domain.Day) {
	snapshot, err := s.exporter.ExportDay(ctx, day)
	switch {
	case errors.Is(err, domain.ErrExportInProgress):
		s.logger.Info().Str("day", day.String()).Msg("scheduled export skipped, run in progress")
	case err != nil:
		s.logger.Error().Err(err).Str("day", day.String()).Msg("scheduled export failed")
	default:
		s.logger.Info().
			Str("day", day.String()).
			Str("run_id", snapshot.RunID).
			Int("entries", snapshot.EntryCount).
			Msg("scheduled export delivered")
	}
}

// NextRun returns the first instant after now that is at past a UTC
// midnight.
func NextRun(now time.Time, at time.Duration) time.Time {
	now = now.UTC()
	next := domain.DayOf(now).Start().Add(at)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
