package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// EntryStore is an in-process append-only ledger. Ids start at 1 and have no
// gaps; CreatedAt never goes backwards.
type EntryStore struct {
	mu      sync.RWMutex
	entries []domain.Entry
	now     func() time.Time
}

// NewEntryStore creates an empty store.
func NewEntryStore() *EntryStore {
	return &EntryStore{now: time.Now}
}

// WithClock sets the clock used for CreatedAt.
func (s *EntryStore) WithClock(now func() time.Time) *EntryStore {
	s.now = now
	return s
}

// Append assigns the next id and the current time and stores the entry.
func (s *EntryStore) Append(ctx context.Context, entry *domain.NewEntry) (*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The caller may have given up while waiting for the lock.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	createdAt := s.now().UTC()
	if n := len(s.entries); n > 0 && createdAt.Before(s.entries[n-1].CreatedAt) {
		createdAt = s.entries[n-1].CreatedAt
	}

	stored := domain.Entry{
		ID:            int64(len(s.entries) + 1),
		Amount:        entry.Amount,
		Currency:      entry.Currency,
		FlowDirection: entry.FlowDirection,
		ClientName:    entry.ClientName,
		Note:          copyNote(entry.Note),
		CreatedBy:     entry.CreatedBy,
		CreatedAt:     createdAt,
	}
	s.entries = append(s.entries, stored)

	return cloneEntry(stored), nil
}

// ListAll returns every entry in id order.
func (s *EntryStore) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	return s.collect(ctx, func(*domain.Entry) bool { return true })
}

// ListForDay returns the entries created on day, in id order.
func (s *EntryStore) ListForDay(ctx context.Context, day domain.Day) ([]*domain.Entry, error) {
	return s.collect(ctx, func(e *domain.Entry) bool { return day.Contains(e.CreatedAt) })
}

// List returns a filtered page, newest first, and the filtered total.
func (s *EntryStore) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, int, error) {
	matched, err := s.collect(ctx, filter.Matches)
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if filter.Offset >= total {
		return []*domain.Entry{}, total, nil
	}

	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}

	return matched[filter.Offset:end], total, nil
}

// Len returns the number of stored entries.
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ping always succeeds.
func (s *EntryStore) Ping(context.Context) error {
	return nil
}

func (s *EntryStore) collect(ctx context.Context, keep func(*domain.Entry) bool) ([]*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Entry, 0, len(s.entries))
	for i := range s.entries {
		if keep(&s.entries[i]) {
			out = append(out, cloneEntry(s.entries[i]))
		}
	}

	return out, nil
}

func cloneEntry(e domain.Entry) *domain.Entry {
	e.Note = copyNote(e.Note)
	return &e
}

func copyNote(note *string) *string {
	if note == nil {
		return nil
	}
	n := *note
	return &n
}
