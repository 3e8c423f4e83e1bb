package usecase

import (
	"context"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// EntryRepository is the append-only ledger store. Append is the only
// mutation; a returned entry is visible to every later read.
type EntryRepository interface {
	Append(ctx context.Context, entry *domain.NewEntry) (*domain.Entry, error)
	ListAll(ctx context.Context) ([]*domain.Entry, error)
	ListForDay(ctx context.Context, day domain.Day) ([]*domain.Entry, error)
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error)
}

// Authorizer decides whether a verified caller may use the ledger.
type Authorizer interface {
	Authorize(caller *domain.VerifiedCaller) error
}

// EntryParser turns free-form text into an entry candidate.
type EntryParser interface {
	Parse(ctx context.Context, text string) domain.ParseResult
}

// SnapshotEncoder serializes a day's export.
type SnapshotEncoder interface {
	Encode(day domain.Day, entries []*domain.Entry, report ExportReport) ([]domain.ExportFile, error)
}

// SnapshotDeliverer persists and transmits an export snapshot.
type SnapshotDeliverer interface {
	Deliver(ctx context.Context, snapshot *domain.ExportSnapshot) error
}

// ExportGate admits at most one export per day at a time. Acquire returns
// domain.ErrExportInProgress while another run holds the day.
type ExportGate interface {
	Acquire(ctx context.Context, day domain.Day) (release func(), err error)
}

// TaskRunner runs blocking work on a bounded pool with a deadline.
type TaskRunner interface {
	Run(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error
	// RunAndWait returns only after task has returned, even past the deadline.
	RunAndWait(ctx context.Context, timeout time.Duration, task func(ctx context.Context) error) error
}

// Retrier retries an operation on retryable errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// MetricsRecorder receives domain events worth counting.
type MetricsRecorder interface {
	EntryAppended(entry *domain.Entry)
	IngestRejected(reason string)
	ExportFinished(state domain.ExportState)
	ObserveStore(operation string, duration time.Duration, err error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete successfully.
	Release(ctx context.Context, key string) error
}
