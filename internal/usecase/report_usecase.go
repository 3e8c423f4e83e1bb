package usecase

import (
	"context"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// ReportConfig holds the collaborators of ReportUseCase.
type ReportConfig struct {
	Authorizer   Authorizer
	EntryRepo    EntryRepository
	Tasks        TaskRunner
	Retrier      Retrier
	Metrics      MetricsRecorder
	Now          func() time.Time
	StoreTimeout time.Duration
}

// ReportUseCase answers the read-only report queries. Every figure is
// recomputed from the ledger on each call.
type ReportUseCase struct {
	authorizer Authorizer
	ledger     *ledgerAccess
	now        func() time.Time
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(cfg ReportConfig) *ReportUseCase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &ReportUseCase{
		authorizer: cfg.Authorizer,
		ledger:     newLedgerAccess(cfg.EntryRepo, cfg.Tasks, cfg.Retrier, cfg.Metrics, cfg.StoreTimeout),
		now:        cfg.Now,
	}
}

// Today returns the current UTC day.
func (uc *ReportUseCase) Today() domain.Day {
	return domain.DayOf(uc.now())
}

// Balances returns all-time net flow per currency.
func (uc *ReportUseCase) Balances(ctx context.Context, caller *domain.VerifiedCaller) ([]domain.CurrencyAmount, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		return nil, err
	}

	entries, err := uc.ledger.listAll(ctx)
	if err != nil {
		return nil, err
	}

	return domain.Balances(entries), nil
}

// DailyProfit returns net flow per currency for day.
func (uc *ReportUseCase) DailyProfit(ctx context.Context, caller *domain.VerifiedCaller, day domain.Day) (domain.DailyProfit, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		return domain.DailyProfit{}, err
	}

	entries, err := uc.ledger.listForDay(ctx, day)
	if err != nil {
		return domain.DailyProfit{}, err
	}

	return domain.DailyProfitFor(entries, day), nil
}

// ClientDebts returns outstanding debt per client and currency.
func (uc *ReportUseCase) ClientDebts(ctx context.Context, caller *domain.VerifiedCaller) ([]domain.ClientDebt, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		return nil, err
	}

	entries, err := uc.ledger.listAll(ctx)
	if err != nil {
		return nil, err
	}

	return domain.ClientDebts(entries), nil
}

// CashTotal returns the cash position.
func (uc *ReportUseCase) CashTotal(ctx context.Context, caller *domain.VerifiedCaller) (domain.CashTotal, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		return domain.CashTotal{}, err
	}

	entries, err := uc.ledger.listAll(ctx)
	if err != nil {
		return domain.CashTotal{}, err
	}

	return domain.CashTotalFor(entries), nil
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	Filter domain.EntryFilter
}

// ListEntries returns a page of entries, newest first, and the total count
// matching the filter.
func (uc *ReportUseCase) ListEntries(ctx context.Context, caller *domain.VerifiedCaller, input ListEntriesInput) ([]*domain.Entry, int, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		return nil, 0, err
	}

	filter := input.Filter
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.ledger.list(ctx, filter)
}
