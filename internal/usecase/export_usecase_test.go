package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/cashledger/internal/adapter/csvexport"
	"github.com/iho/cashledger/internal/adapter/repository/memory"
	redisrepo "github.com/iho/cashledger/internal/adapter/repository/redis"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
	"github.com/iho/cashledger/internal/usecase/mocks"
)

type exportFixture struct {
	deliverer *mocks.MockSnapshotDeliverer
	metrics   *mocks.MockMetricsRecorder
	uc        *usecase.ExportUseCase
	day       domain.Day
}

type exportOptions struct {
	wrapStore func(*memory.EntryStore) usecase.EntryRepository
	gate      usecase.ExportGate
	timeout   time.Duration
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	return newExportFixtureWith(t, exportOptions{})
}

func newExportFixtureWith(t *testing.T, opts exportOptions) *exportFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	seeded, _, day := seededStore(t)

	var store usecase.EntryRepository = seeded
	if opts.wrapStore != nil {
		store = opts.wrapStore(seeded)
	}
	if opts.gate == nil {
		opts.gate = memory.NewExportGate()
	}

	idGen := mocks.NewMockIDGenerator(ctrl)
	idGen.EXPECT().Generate().Return("01HXRUN").AnyTimes()

	f := &exportFixture{
		deliverer: mocks.NewMockSnapshotDeliverer(ctrl),
		metrics:   mocks.NewMockMetricsRecorder(ctrl),
		day:       day,
	}
	f.metrics.EXPECT().ObserveStore(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	f.uc = usecase.NewExportUseCase(usecase.ExportConfig{
		Logger:       zerolog.Nop(),
		EntryRepo:    store,
		Gate:         opts.gate,
		Encoder:      csvexport.NewEncoder(),
		Deliverer:    f.deliverer,
		IDGen:        idGen,
		Tasks:        newPool(t),
		Retrier:      passthroughRetrier(ctrl),
		Metrics:      f.metrics,
		Now:          fixedClock(time.Date(2024, 5, 1, 23, 55, 0, 0, time.UTC)),
		StoreTimeout: time.Second,
		Timeout:      opts.timeout,
	})

	return f
}

func TestExportUseCase_ExportDayDelivers(t *testing.T) {
	f := newExportFixture(t)

	if run := f.uc.Status(f.day); run.State != domain.ExportIdle {
		t.Fatalf("expected idle before first run, got %s", run.State)
	}

	var delivered *domain.ExportSnapshot
	f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, s *domain.ExportSnapshot) error {
			delivered = s
			return nil
		},
	)
	f.metrics.EXPECT().ExportFinished(domain.ExportDelivered)

	snapshot, err := f.uc.ExportDay(context.Background(), f.day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot != delivered || snapshot.EntryCount != 3 || snapshot.RunID != "01HXRUN" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if len(snapshot.Files) != 2 || snapshot.Files[0].Name != csvexport.EntriesFileName(f.day) {
		t.Fatalf("unexpected files: %+v", snapshot.Files)
	}

	run := f.uc.Status(f.day)
	if run.State != domain.ExportDelivered || run.EntryCount != 3 || run.FinishedAt == nil {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestExportUseCase_FailedRunCanBeRetried(t *testing.T) {
	f := newExportFixture(t)

	gomock.InOrder(
		f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(errors.New("broker unreachable")),
		f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil),
	)
	f.metrics.EXPECT().ExportFinished(domain.ExportFailed)
	f.metrics.EXPECT().ExportFinished(domain.ExportDelivered)

	_, err := f.uc.ExportDay(context.Background(), f.day)
	if !errors.Is(err, domain.ErrExportFailed) {
		t.Fatalf("expected export failed, got %v", err)
	}
	if run := f.uc.Status(f.day); run.State != domain.ExportFailed || run.Error == "" {
		t.Fatalf("expected failed run with reason, got %+v", run)
	}

	if _, err := f.uc.ExportDay(context.Background(), f.day); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if run := f.uc.Status(f.day); run.State != domain.ExportDelivered || run.Error != "" {
		t.Fatalf("expected delivered run after retry, got %+v", run)
	}
}

func TestExportUseCase_SingleFlightPerDay(t *testing.T) {
	f := newExportFixture(t)

	started := make(chan struct{})
	unblock := make(chan struct{})
	f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, s *domain.ExportSnapshot) error {
			close(started)
			<-unblock
			return nil
		},
	)
	f.metrics.EXPECT().ExportFinished(domain.ExportDelivered)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = f.uc.ExportDay(context.Background(), f.day)
	}()

	<-started
	if run := f.uc.Status(f.day); run.State != domain.ExportExporting {
		t.Errorf("expected exporting while delivery blocks, got %s", run.State)
	}

	_, err := f.uc.ExportDay(context.Background(), f.day)
	close(unblock)
	wg.Wait()

	if !errors.Is(err, domain.ErrExportInProgress) {
		t.Fatalf("expected export in progress, got %v", err)
	}
	if firstErr != nil {
		t.Fatalf("first run failed: %v", firstErr)
	}
}

// lateWriteStore appends one more entry right after the first read, the way
// a concurrent ingest would.
type lateWriteStore struct {
	*memory.EntryStore
	once sync.Once
}

func (s *lateWriteStore) afterRead(ctx context.Context) {
	s.once.Do(func() {
		_, _ = s.EntryStore.Append(ctx, &domain.NewEntry{
			Amount:        decimal.RequireFromString("999"),
			Currency:      domain.CurrencyUSD,
			FlowDirection: domain.FlowInflow,
			ClientName:    "Late",
			CreatedBy:     allowed.ID,
		})
	})
}

func (s *lateWriteStore) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	entries, err := s.EntryStore.ListAll(ctx)
	s.afterRead(ctx)
	return entries, err
}

func (s *lateWriteStore) ListForDay(ctx context.Context, day domain.Day) ([]*domain.Entry, error) {
	entries, err := s.EntryStore.ListForDay(ctx, day)
	s.afterRead(ctx)
	return entries, err
}

func TestExportUseCase_FilesShareOneLedgerState(t *testing.T) {
	f := newExportFixtureWith(t, exportOptions{
		wrapStore: func(s *memory.EntryStore) usecase.EntryRepository {
			return &lateWriteStore{EntryStore: s}
		},
	})

	f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil)
	f.metrics.EXPECT().ExportFinished(domain.ExportDelivered)

	snapshot, err := f.uc.ExportDay(context.Background(), f.day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.EntryCount != 3 {
		t.Fatalf("expected the 3 entries present at read time, got %d", snapshot.EntryCount)
	}
	for _, file := range snapshot.Files {
		if strings.Contains(string(file.Content), "Late") {
			t.Fatalf("%s includes an entry appended after the snapshot read:\n%s", file.Name, file.Content)
		}
	}

	report := string(snapshot.Files[1].Content)
	if !strings.Contains(report, "balance,all,USD,600.00") {
		t.Fatalf("report balance does not match the exported entries:\n%s", report)
	}
}

func TestExportUseCase_RunIsBoundedByTimeout(t *testing.T) {
	f := newExportFixtureWith(t, exportOptions{timeout: 30 * time.Millisecond})

	gomock.InOrder(
		f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, s *domain.ExportSnapshot) error {
				<-ctx.Done()
				return ctx.Err()
			},
		),
		f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil),
	)
	f.metrics.EXPECT().ExportFinished(domain.ExportFailed)
	f.metrics.EXPECT().ExportFinished(domain.ExportDelivered)

	_, err := f.uc.ExportDay(context.Background(), f.day)
	if !errors.Is(err, domain.ErrExportFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected export to fail on its deadline, got %v", err)
	}
	if run := f.uc.Status(f.day); run.State != domain.ExportFailed {
		t.Fatalf("expected failed run, got %+v", run)
	}

	if _, err := f.uc.ExportDay(context.Background(), f.day); err != nil {
		t.Fatalf("day must be free again after a timed out run: %v", err)
	}
}

func TestExportUseCase_RedisLockHeldForWholeRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	const lockTTL = 300 * time.Millisecond
	f := newExportFixtureWith(t, exportOptions{
		gate: redisrepo.NewExportGate(client, lockTTL, zerolog.Nop()),
	})
	key := "cashledger:export:" + f.day.String()

	started := make(chan struct{})
	unblock := make(chan struct{})
	f.deliverer.EXPECT().Deliver(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, s *domain.ExportSnapshot) error {
			close(started)
			<-unblock
			return nil
		},
	)
	f.metrics.EXPECT().ExportFinished(domain.ExportDelivered)

	done := make(chan error, 1)
	go func() {
		_, err := f.uc.ExportDay(context.Background(), f.day)
		done <- err
	}()
	<-started

	// Run the lock clock well past its ttl while delivery is still blocked.
	for i := 0; i < 4; i++ {
		mr.FastForward(150 * time.Millisecond)
		deadline := time.Now().Add(2 * time.Second)
		for mr.TTL(key) <= 200*time.Millisecond {
			if time.Now().After(deadline) {
				close(unblock)
				t.Fatalf("export lock was not extended (ttl %s)", mr.TTL(key))
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	_, err := f.uc.ExportDay(context.Background(), f.day)
	close(unblock)

	if !errors.Is(err, domain.ErrExportInProgress) {
		t.Fatalf("expected export in progress, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}
