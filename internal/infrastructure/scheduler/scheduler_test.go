package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
)

type recordingExporter struct {
	mu   sync.Mutex
	days []domain.Day
	err  error
	done chan struct{}
}

func (e *recordingExporter) ExportDay(_ context.Context, day domain.Day) (*domain.ExportSnapshot, error) {
	e.mu.Lock()
	e.days = append(e.days, day)
	e.mu.Unlock()
	defer func() { e.done <- struct{}{} }()

	if e.err != nil {
		return nil, e.err
	}
	return &domain.ExportSnapshot{RunID: "run", Day: day}, nil
}

func TestNextRun(t *testing.T) {
	at := 23*time.Hour + 55*time.Minute

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "earlier the same day",
			now:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			want: time.Date(2024, 5, 1, 23, 55, 0, 0, time.UTC),
		},
		{
			name: "exactly at run time",
			now:  time.Date(2024, 5, 1, 23, 55, 0, 0, time.UTC),
			want: time.Date(2024, 5, 2, 23, 55, 0, 0, time.UTC),
		},
		{
			name: "after run time",
			now:  time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC),
			want: time.Date(2025, 1, 1, 23, 55, 0, 0, time.UTC),
		},
		{
			name: "non-UTC input",
			now:  time.Date(2024, 5, 2, 3, 0, 0, 0, time.FixedZone("UZT", 5*3600)),
			want: time.Date(2024, 5, 1, 23, 55, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRun(tt.now, at)), "got %s", NextRun(tt.now, at))
		})
	}
}

func TestSchedulerExportsTheDayItFiresOn(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	fire := make(chan time.Time)
	exporter := &recordingExporter{done: make(chan struct{}, 1)}

	s := New(Config{
		Exporter: exporter,
		Logger:   zerolog.Nop(),
		At:       23*time.Hour + 55*time.Minute,
		Now:      func() time.Time { return now },
		After:    func(time.Duration) <-chan time.Time { return fire },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	fire <- now
	<-exporter.done

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	require.Len(t, exporter.days, 1)
	assert.Equal(t, domain.Day{Year: 2024, Month: time.May, Day: 1}, exporter.days[0])
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	fire := make(chan time.Time)
	exporter := &recordingExporter{err: errors.New("disk full"), done: make(chan struct{}, 1)}

	s := New(Config{
		Exporter: exporter,
		Logger:   zerolog.Nop(),
		At:       time.Hour,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
		After:    func(time.Duration) <-chan time.Time { return fire },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	fire <- time.Now()
	<-exporter.done
	fire <- time.Now()
	<-exporter.done

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	assert.Len(t, exporter.days, 2)
}
