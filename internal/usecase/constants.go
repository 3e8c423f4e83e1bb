package usecase

import "time"

const (
	// DefaultStoreTimeout bounds a single ledger read or append, retries included.
	DefaultStoreTimeout = 5 * time.Second

	// DefaultParseTimeout bounds one call to the text parser.
	DefaultParseTimeout = 15 * time.Second

	// DefaultExportTimeout bounds a whole export run including delivery.
	DefaultExportTimeout = 2 * time.Minute

	// ExportLockTTL is how long a crashed export holder keeps its day locked.
	// A live holder keeps extending the lock.
	ExportLockTTL = 30 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
