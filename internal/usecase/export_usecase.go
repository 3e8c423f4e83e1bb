package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// ExportReport is the report section written next to a day's entries.
type ExportReport struct {
	DailyProfit domain.DailyProfit
	Balances    []domain.CurrencyAmount
	ClientDebts []domain.ClientDebt
	CashTotal   domain.CashTotal
}

// ExportConfig holds the collaborators of ExportUseCase.
type ExportConfig struct {
	Logger       zerolog.Logger
	EntryRepo    EntryRepository
	Gate         ExportGate
	Encoder      SnapshotEncoder
	Deliverer    SnapshotDeliverer
	IDGen        IDGenerator
	Tasks        TaskRunner
	Retrier      Retrier
	Metrics      MetricsRecorder
	Now          func() time.Time
	StoreTimeout time.Duration
	// Timeout bounds a whole run, delivery included. Defaults to
	// DefaultExportTimeout.
	Timeout time.Duration
}

// ExportUseCase snapshots a day's entries and hands them to delivery.
// Runs move Idle -> Exporting -> Delivered or Failed; a failed day can be
// exported again.
type ExportUseCase struct {
	logger    zerolog.Logger
	ledger    *ledgerAccess
	gate      ExportGate
	encoder   SnapshotEncoder
	deliverer SnapshotDeliverer
	idGen     IDGenerator
	metrics   MetricsRecorder
	now       func() time.Time
	timeout   time.Duration

	mu   sync.Mutex
	runs map[domain.Day]domain.ExportRun
}

// NewExportUseCase creates a new ExportUseCase.
func NewExportUseCase(cfg ExportConfig) *ExportUseCase {
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultExportTimeout
	}

	return &ExportUseCase{
		logger:    cfg.Logger,
		ledger:    newLedgerAccess(cfg.EntryRepo, cfg.Tasks, cfg.Retrier, cfg.Metrics, cfg.StoreTimeout),
		gate:      cfg.Gate,
		encoder:   cfg.Encoder,
		deliverer: cfg.Deliverer,
		idGen:     cfg.IDGen,
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		timeout:   cfg.Timeout,
		runs:      make(map[domain.Day]domain.ExportRun),
	}
}

// Today returns the current UTC day.
func (uc *ExportUseCase) Today() domain.Day {
	return domain.DayOf(uc.now())
}

// ExportDay exports day. A second call for the same day while one is in
// flight fails with domain.ErrExportInProgress. The run, delivery included,
// is cancelled after the configured timeout.
func (uc *ExportUseCase) ExportDay(ctx context.Context, day domain.Day) (*domain.ExportSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	release, err := uc.gate.Acquire(ctx, day)
	if err != nil {
		return nil, err
	}
	defer release()

	run := uc.start(day)
	log := uc.logger.With().Str("day", day.String()).Str("run_id", run.ID).Logger()
	log.Info().Msg("export started")

	snapshot, err := uc.export(ctx, day, run.ID)
	if err != nil {
		uc.finish(day, domain.ExportFailed, 0, err)
		log.Error().Err(err).Msg("export failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrExportFailed, err)
	}

	uc.finish(day, domain.ExportDelivered, snapshot.EntryCount, nil)
	log.Info().Int("entries", snapshot.EntryCount).Msg("export delivered")

	return snapshot, nil
}

// Status returns the latest run for day, or an Idle run when none exists.
func (uc *ExportUseCase) Status(day domain.Day) domain.ExportRun {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	run, ok := uc.runs[day]
	if !ok {
		return domain.ExportRun{Day: day, State: domain.ExportIdle}
	}

	return run
}

func (uc *ExportUseCase) export(ctx context.Context, day domain.Day, runID string) (*domain.ExportSnapshot, error) {
	// One read feeds both files so they describe the same ledger state.
	all, err := uc.ledger.listAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	dayEntries := make([]*domain.Entry, 0)
	for _, e := range all {
		if day.Contains(e.CreatedAt) {
			dayEntries = append(dayEntries, e)
		}
	}

	report := ExportReport{
		DailyProfit: domain.DailyProfitFor(dayEntries, day),
		Balances:    domain.Balances(all),
		ClientDebts: domain.ClientDebts(all),
		CashTotal:   domain.CashTotalFor(all),
	}

	files, err := uc.encoder.Encode(day, dayEntries, report)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	snapshot := &domain.ExportSnapshot{
		RunID:      runID,
		Day:        day,
		Files:      files,
		EntryCount: len(dayEntries),
		CreatedAt:  uc.now().UTC(),
	}

	if err := uc.deliverer.Deliver(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("deliver snapshot: %w", err)
	}

	return snapshot, nil
}

func (uc *ExportUseCase) start(day domain.Day) domain.ExportRun {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	run := domain.ExportRun{
		ID:        uc.idGen.Generate(),
		Day:       day,
		State:     domain.ExportExporting,
		StartedAt: uc.now().UTC(),
	}
	uc.runs[day] = run

	return run
}

func (uc *ExportUseCase) finish(day domain.Day, state domain.ExportState, count int, err error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	run := uc.runs[day]
	finished := uc.now().UTC()
	run.State = state
	run.FinishedAt = &finished
	run.EntryCount = count
	if err != nil {
		run.Error = err.Error()
	}
	uc.runs[day] = run

	uc.metrics.ExportFinished(state)
}
