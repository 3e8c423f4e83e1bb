package parser

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// Extractor is a remote source of entry fields.
type Extractor interface {
	Extract(ctx context.Context, text string) (domain.EntryCandidate, error)
}

// Chain tries the remote extractor first and falls back to the rule-based
// parser when the extractor cannot be reached. A reply that arrived but is
// malformed is a parse failure.
type Chain struct {
	primary  Extractor
	fallback *RuleBased
	logger   zerolog.Logger
}

// NewChain creates a Chain. A nil primary parses with rules only.
func NewChain(primary Extractor, logger zerolog.Logger) *Chain {
	return &Chain{
		primary:  primary,
		fallback: NewRuleBased(),
		logger:   logger,
	}
}

// Parse implements usecase.EntryParser.
func (c *Chain) Parse(ctx context.Context, text string) domain.ParseResult {
	if c.primary != nil {
		candidate, err := c.primary.Extract(ctx, text)
		if err == nil {
			return domain.ParsedCandidate(candidate)
		}
		if ctx.Err() != nil {
			return domain.ParseFailure("parser deadline exceeded")
		}
		if errors.Is(err, ErrMalformedResponse) {
			c.logger.Warn().Err(err).Msg("remote parser returned malformed output")
			return domain.ParseFailure("parser returned malformed output")
		}
		c.logger.Warn().Err(err).Msg("remote parser failed, using rules")
	}

	return c.fallback.Parse(ctx, text)
}
