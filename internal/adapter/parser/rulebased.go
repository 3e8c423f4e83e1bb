package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

var (
	numberPattern   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	currencyPattern = regexp.MustCompile(`(?i)\b(?:usdt|usd|dollar|rubl|rub|uzs|sum|so'm|som)\b|руб`)
	suffixPattern   = regexp.MustCompile(`(?i)(ga|qa|ka)$`)

	outflowTokens = []string{"sotdim", "sell", "prodal", "продал", "otdal", "berdim", "chiqim"}
	inflowTokens  = []string{"oldim", "sotib oldim", "buy", "kupil", "купил", "kirim"}
)

// RuleBased parses short operator messages such as "Ali 1000 usd 12100
// oldim" without any remote call.
type RuleBased struct{}

// NewRuleBased creates a new RuleBased parser.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Parse implements usecase.EntryParser. The first number is the amount and
// an optional second number is recorded as the rate in the note. Text with
// no direction keyword leaves FlowDirection empty for validation to reject.
func (p *RuleBased) Parse(_ context.Context, text string) domain.ParseResult {
	cleaned := strings.Join(strings.Fields(text), " ")
	if cleaned == "" {
		return domain.ParseFailure("text is empty")
	}
	lowered := strings.ToLower(cleaned)

	numbers := numberPattern.FindAllString(lowered, 2)
	if len(numbers) == 0 {
		return domain.ParseFailure("amount must be present in text")
	}

	rawCurrency := currencyPattern.FindString(lowered)
	if rawCurrency == "" {
		return domain.ParseFailure("currency not found in text")
	}
	currency, ok := domain.ParseCurrency(rawCurrency)
	if !ok {
		return domain.ParseFailure("currency not found in text")
	}

	candidate := domain.EntryCandidate{
		Amount:        strings.ReplaceAll(numbers[0], ",", "."),
		Currency:      string(currency),
		FlowDirection: string(detectFlow(lowered)),
		ClientName:    clientName(cleaned),
	}

	if len(numbers) > 1 {
		if rate, err := decimal.NewFromString(strings.ReplaceAll(numbers[1], ",", ".")); err == nil {
			note := "rate: " + rate.String()
			candidate.Note = &note
		}
	}

	return domain.ParsedCandidate(candidate)
}

func detectFlow(text string) domain.FlowDirection {
	for _, token := range outflowTokens {
		if strings.Contains(text, token) {
			return domain.FlowOutflow
		}
	}
	for _, token := range inflowTokens {
		if strings.Contains(text, token) {
			return domain.FlowInflow
		}
	}
	return ""
}

// clientName takes the first word, drops a Uzbek dative suffix and edge
// punctuation. A leading number means no client was named.
func clientName(text string) string {
	first, _, _ := strings.Cut(text, " ")
	if first == "" || numberPattern.FindString(first) == first {
		return ""
	}

	name := suffixPattern.ReplaceAllString(first, "")
	return strings.Trim(name, " ,.;:-")
}
