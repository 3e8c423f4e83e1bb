package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// ledgerAccess runs every store call on the task pool, under a deadline and
// with bounded retries, and reports exhaustion as ErrPersistenceUnavailable.
type ledgerAccess struct {
	repo    EntryRepository
	tasks   TaskRunner
	retrier Retrier
	metrics MetricsRecorder
	timeout time.Duration
}

func newLedgerAccess(repo EntryRepository, tasks TaskRunner, retrier Retrier, metrics MetricsRecorder, timeout time.Duration) *ledgerAccess {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}

	return &ledgerAccess{
		repo:    repo,
		tasks:   tasks,
		retrier: retrier,
		metrics: metrics,
		timeout: timeout,
	}
}

func (a *ledgerAccess) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return a.run(ctx, a.tasks.Run, operation, fn)
}

// write waits for fn to return even past the deadline, so an append that
// commits late is never reported to the caller as failed.
func (a *ledgerAccess) write(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return a.run(ctx, a.tasks.RunAndWait, operation, fn)
}

type runFunc func(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error

func (a *ledgerAccess) run(ctx context.Context, runner runFunc, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()

	err := runner(ctx, a.timeout, func(ctx context.Context) error {
		return a.retrier.Retry(ctx, func() error {
			return fn(ctx)
		})
	})

	a.metrics.ObserveStore(operation, time.Since(start), err)

	return persistenceError(err)
}

func (a *ledgerAccess) append(ctx context.Context, entry *domain.NewEntry) (*domain.Entry, error) {
	var stored *domain.Entry

	err := a.write(ctx, "append", func(ctx context.Context) error {
		e, err := a.repo.Append(ctx, entry)
		if err != nil {
			return err
		}
		stored = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func (a *ledgerAccess) listAll(ctx context.Context) ([]*domain.Entry, error) {
	var entries []*domain.Entry

	err := a.call(ctx, "list_all", func(ctx context.Context) error {
		var err error
		entries, err = a.repo.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (a *ledgerAccess) listForDay(ctx context.Context, day domain.Day) ([]*domain.Entry, error) {
	var entries []*domain.Entry

	err := a.call(ctx, "list_for_day", func(ctx context.Context) error {
		var err error
		entries, err = a.repo.ListForDay(ctx, day)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (a *ledgerAccess) list(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	var (
		entries []*domain.Entry
		total   int
	)

	err := a.call(ctx, "list", func(ctx context.Context) error {
		var err error
		entries, total, err = a.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// persistenceError folds every store failure, deadlines and pool exhaustion
// included, into the retryable persistence error so callers only need one
// check. Domain errors pass through unchanged.
func persistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrPersistenceUnavailable),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidEntry),
		errors.Is(err, domain.ErrExportInProgress),
		errors.Is(err, domain.ErrExportFailed):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistenceUnavailable, err)
	}
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) EntryAppended(*domain.Entry) {}
func (NopMetrics) IngestRejected(string) {}
func (NopMetrics) ExportFinished(domain.ExportState) {}
func (NopMetrics) ObserveStore(string, time.Duration, error) {}
