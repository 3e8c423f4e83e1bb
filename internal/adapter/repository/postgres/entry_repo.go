package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/postgres/generated"
)

// appendLockKey is the advisory lock that serializes appends so ids are
// assigned without gaps in commit order.
const appendLockKey int64 = 0x6361736865

// EntryRepository implements usecase.EntryRepository on PostgreSQL.
type EntryRepository struct {
	pool      pgxPool
	txManager *TxManager
	queries   *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepositoryWithPool(pool)
}

func newEntryRepositoryWithPool(pool pgxPool) *EntryRepository {
	return &EntryRepository{
		pool:      pool,
		txManager: newTxManagerWithPool(pool),
		queries:   generated.New(pool),
	}
}

// Append stores entry under the append lock and returns it with its id and
// timestamp. The entry is visible to every read that starts after Append
// returns.
func (r *EntryRepository) Append(ctx context.Context, entry *domain.NewEntry) (*domain.Entry, error) {
	var row generated.CashEntry

	err := r.txManager.WithinTx(ctx, func(queries *generated.Queries) error {
		if err := queries.LockEntriesForAppend(ctx, appendLockKey); err != nil {
			return fmt.Errorf("lock entries: %w", err)
		}

		id, err := queries.NextEntryID(ctx)
		if err != nil {
			return fmt.Errorf("next entry id: %w", err)
		}

		row, err = queries.CreateEntry(ctx, generated.CreateEntryParams{
			ID:            id,
			Amount:        decimalToNumeric(entry.Amount),
			CurrencyCode:  string(entry.Currency),
			FlowDirection: string(entry.FlowDirection),
			ClientName:    entry.ClientName,
			Note:          textFromPtr(entry.Note),
			CreatedBy:     entry.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rowToEntry(row), nil
}

// ListAll returns every entry in id order.
func (r *EntryRepository) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// ListForDay returns the entries created on day, in id order.
func (r *EntryRepository) ListForDay(ctx context.Context, day domain.Day) ([]*domain.Entry, error) {
	start, end := day.Start(), day.End()

	rows, err := r.queries.ListEntriesBetween(ctx, generated.ListEntriesBetweenParams{
		CreatedFrom: timeToPgTimestamptz(&start),
		CreatedTo:   timeToPgTimestamptz(&end),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

// List returns a filtered page, newest first, and the filtered total.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	total, err := r.queries.CountFilteredEntries(ctx, generated.CountFilteredEntriesParams{
		ClientName:   filter.ClientName,
		CurrencyCode: string(filter.Currency),
		CreatedFrom:  timeToPgTimestamptz(filter.From),
		CreatedTo:    timeToPgTimestamptz(filter.To),
	})
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.queries.FilterEntries(ctx, generated.FilterEntriesParams{
		ClientName:   filter.ClientName,
		CurrencyCode: string(filter.Currency),
		CreatedFrom:  timeToPgTimestamptz(filter.From),
		CreatedTo:    timeToPgTimestamptz(filter.To),
		Limit:        int32(filter.Limit),
		Offset:       int32(filter.Offset),
	})
	if err != nil {
		return nil, 0, err
	}

	return rowsToEntries(rows), int(total), nil
}

// Ping checks the connection.
func (r *EntryRepository) Ping(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "SELECT 1")
	return err
}
