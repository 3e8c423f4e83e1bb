package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is a supported cash currency code.
type Currency string

const (
	CurrencyRUB Currency = "RUB"
	CurrencyUSD Currency = "USD"
	CurrencyUZS Currency = "UZS"
)

// Currencies lists every supported currency in report order.
var Currencies = []Currency{CurrencyRUB, CurrencyUSD, CurrencyUZS}

var currencyAliases = map[string]Currency{
	"USD":    CurrencyUSD,
	"DOLLAR": CurrencyUSD,
	"USDT":   CurrencyUSD,
	"RUB":    CurrencyRUB,
	"RUBL":   CurrencyRUB,
	"РУБ":    CurrencyRUB,
	"UZS":    CurrencyUZS,
	"SUM":    CurrencyUZS,
	"SOM":    CurrencyUZS,
	"SO'M":   CurrencyUZS,
}

// ParseCurrency resolves a code or a known alias. The second result is false
// for anything outside the closed set.
func ParseCurrency(raw string) (Currency, bool) {
	c, ok := currencyAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return c, ok
}

// FlowDirection tells whether money came into or left the cash desk.
type FlowDirection string

const (
	FlowInflow  FlowDirection = "INFLOW"
	FlowOutflow FlowDirection = "OUTFLOW"
)

// ParseFlowDirection accepts INFLOW or OUTFLOW in any case.
func ParseFlowDirection(raw string) (FlowDirection, bool) {
	switch FlowDirection(strings.ToUpper(strings.TrimSpace(raw))) {
	case FlowInflow:
		return FlowInflow, true
	case FlowOutflow:
		return FlowOutflow, true
	default:
		return "", false
	}
}

// Entry is one recorded cashflow event. Entries are never changed after
// they are appended; ID order is creation order.
type Entry struct {
	CreatedAt     time.Time
	Note          *string
	ClientName    string
	Currency      Currency
	FlowDirection FlowDirection
	Amount        decimal.Decimal
	ID            int64
	CreatedBy     int64
}

// Signed returns the amount as seen by the cash desk: positive for inflow,
// negative for outflow.
func (e *Entry) Signed() decimal.Decimal {
	if e.FlowDirection == FlowOutflow {
		return e.Amount.Neg()
	}
	return e.Amount
}

// EntryCandidate holds untrusted entry fields as they arrive from a caller
// or from the text parser.
type EntryCandidate struct {
	Note          *string
	Amount        string
	Currency      string
	FlowDirection string
	ClientName    string
}

// NewEntry is a validated candidate waiting for the store to assign ID and
// CreatedAt.
type NewEntry struct {
	Note          *string
	ClientName    string
	Currency      Currency
	FlowDirection FlowDirection
	Amount        decimal.Decimal
	CreatedBy     int64
}

// EntryFilter narrows an entry listing.
type EntryFilter struct {
	From       *time.Time
	To         *time.Time
	ClientName string
	Currency   Currency
	Limit      int
	Offset     int
}

// Matches reports whether e passes every non-empty filter field.
func (f EntryFilter) Matches(e *Entry) bool {
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.CreatedAt.After(*f.To) {
		return false
	}
	if f.ClientName != "" && !strings.EqualFold(f.ClientName, e.ClientName) {
		return false
	}
	if f.Currency != "" && f.Currency != e.Currency {
		return false
	}
	return true
}
