package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// IngestConfig holds the collaborators of IngestUseCase.
type IngestConfig struct {
	Logger       zerolog.Logger
	Authorizer   Authorizer
	EntryRepo    EntryRepository
	Parser       EntryParser
	Tasks        TaskRunner
	Retrier      Retrier
	Metrics      MetricsRecorder
	StoreTimeout time.Duration
	ParseTimeout time.Duration
}

// IngestUseCase authorizes, validates and appends entries.
type IngestUseCase struct {
	logger       zerolog.Logger
	authorizer   Authorizer
	parser       EntryParser
	tasks        TaskRunner
	ledger       *ledgerAccess
	metrics      MetricsRecorder
	parseTimeout time.Duration
}

// NewIngestUseCase creates a new IngestUseCase.
func NewIngestUseCase(cfg IngestConfig) *IngestUseCase {
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	if cfg.ParseTimeout <= 0 {
		cfg.ParseTimeout = DefaultParseTimeout
	}

	return &IngestUseCase{
		logger:       cfg.Logger,
		authorizer:   cfg.Authorizer,
		parser:       cfg.Parser,
		tasks:        cfg.Tasks,
		ledger:       newLedgerAccess(cfg.EntryRepo, cfg.Tasks, cfg.Retrier, cfg.Metrics, cfg.StoreTimeout),
		metrics:      cfg.Metrics,
		parseTimeout: cfg.ParseTimeout,
	}
}

// Ingest validates a manually entered candidate and appends it.
func (uc *IngestUseCase) Ingest(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		uc.metrics.IngestRejected("unauthorized")
		return nil, err
	}

	return uc.validateAndAppend(ctx, caller, candidate, "manual")
}

// ParseText runs the parser and validates its output without appending.
func (uc *IngestUseCase) ParseText(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.NewEntry, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		uc.metrics.IngestRejected("unauthorized")
		return nil, err
	}

	candidate, err := uc.parse(ctx, text)
	if err != nil {
		return nil, err
	}

	entry, err := domain.ValidateCandidate(*candidate, caller.ID)
	if err != nil {
		uc.metrics.IngestRejected("invalid_entry")
		return nil, err
	}

	return entry, nil
}

// IngestText parses free-form text and appends the result. Parser output
// goes through the same validation as manual input.
func (uc *IngestUseCase) IngestText(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.Entry, error) {
	if err := uc.authorizer.Authorize(caller); err != nil {
		uc.metrics.IngestRejected("unauthorized")
		return nil, err
	}

	candidate, err := uc.parse(ctx, text)
	if err != nil {
		return nil, err
	}

	return uc.validateAndAppend(ctx, caller, *candidate, "parser")
}

func (uc *IngestUseCase) validateAndAppend(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate, source string) (*domain.Entry, error) {
	newEntry, err := domain.ValidateCandidate(candidate, caller.ID)
	if err != nil {
		uc.metrics.IngestRejected("invalid_entry")
		uc.logger.Debug().Err(err).Str("source", source).Int64("caller_id", caller.ID).Msg("entry rejected")
		return nil, err
	}

	entry, err := uc.ledger.append(ctx, newEntry)
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			uc.metrics.IngestRejected("persistence_unavailable")
		}
		uc.logger.Error().Err(err).Str("source", source).Msg("append failed")
		return nil, err
	}

	uc.metrics.EntryAppended(entry)
	uc.logger.Info().
		Int64("entry_id", entry.ID).
		Str("currency", string(entry.Currency)).
		Str("direction", string(entry.FlowDirection)).
		Str("amount", entry.Amount.StringFixed(domain.AmountScale)).
		Str("source", source).
		Int64("caller_id", caller.ID).
		Msg("entry appended")

	return entry, nil
}

func (uc *IngestUseCase) parse(ctx context.Context, text string) (*domain.EntryCandidate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		uc.metrics.IngestRejected("invalid_entry")
		return nil, &domain.FieldError{Field: "text", Reason: "is empty"}
	}

	var result domain.ParseResult
	err := uc.tasks.Run(ctx, uc.parseTimeout, func(ctx context.Context) error {
		result = uc.parser.Parse(ctx, text)
		return nil
	})
	if err != nil {
		uc.metrics.IngestRejected("parse_failed")
		uc.logger.Warn().Err(err).Msg("text parser did not run")
		return nil, &domain.FieldError{Field: "text", Reason: "parser unavailable"}
	}

	if !result.Ok() {
		uc.metrics.IngestRejected("parse_failed")
		return nil, &domain.FieldError{Field: "text", Reason: result.FailureReason}
	}

	return result.Candidate, nil
}
