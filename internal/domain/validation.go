package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxClientNameLength = 128
	MaxNoteLength       = 512
	MaxEntryAmount      = "10000000"
	AmountScale         = 2
	DefaultPageSize     = 50
	MaxPageSize         = 1000
)

var maxEntryAmount = decimal.RequireFromString(MaxEntryAmount)

const maxAmountLength = 32

var plainDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ValidateCandidate normalizes c and checks it against the entry invariants.
// Nothing is rounded or defaulted: a value that does not fit is rejected.
func ValidateCandidate(c EntryCandidate, createdBy int64) (*NewEntry, error) {
	amount, err := ValidateAmount(c.Amount)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(c.Currency) == "" {
		return nil, fieldError("currency_code", "is required")
	}
	currency, ok := ParseCurrency(c.Currency)
	if !ok {
		return nil, fieldError("currency_code", fmt.Sprintf("unsupported currency %q", c.Currency))
	}

	if strings.TrimSpace(c.FlowDirection) == "" {
		return nil, fieldError("flow_direction", "is required")
	}
	direction, ok := ParseFlowDirection(c.FlowDirection)
	if !ok {
		return nil, fieldError("flow_direction", "must be INFLOW or OUTFLOW")
	}

	client, err := ValidateClientName(c.ClientName)
	if err != nil {
		return nil, err
	}

	note, err := validateNote(c.Note)
	if err != nil {
		return nil, err
	}

	return &NewEntry{
		Amount:        amount,
		Currency:      currency,
		FlowDirection: direction,
		ClientName:    client,
		Note:          note,
		CreatedBy:     createdBy,
	}, nil
}

// ValidateAmount parses a positive decimal with at most AmountScale
// fractional digits.
func ValidateAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fieldError("amount", "is required")
	}

	// Exponent notation is refused before parsing: comparing a value like
	// 1e1000000 against the scale expands it into a huge integer.
	if len(raw) > maxAmountLength || !plainDecimal.MatchString(raw) {
		return decimal.Zero, fieldError("amount", "must be a decimal number")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fieldError("amount", "must be a decimal number")
	}

	if !amount.IsPositive() {
		return decimal.Zero, fieldError("amount", "must be positive")
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return decimal.Zero, fieldError("amount", fmt.Sprintf("at most %d fractional digits allowed", AmountScale))
	}

	if amount.GreaterThan(maxEntryAmount) {
		return decimal.Zero, fieldError("amount", "exceeds maximum of "+MaxEntryAmount)
	}

	return amount, nil
}

// ValidateClientName trims and collapses whitespace in name.
func ValidateClientName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")

	if name == "" {
		return "", fieldError("client_name", "is required")
	}

	if utf8.RuneCountInString(name) > MaxClientNameLength {
		return "", fieldError("client_name", fmt.Sprintf("exceeds %d characters", MaxClientNameLength))
	}

	return name, nil
}

func validateNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}

	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}

	if utf8.RuneCountInString(trimmed) > MaxNoteLength {
		return nil, fieldError("note", fmt.Sprintf("exceeds %d characters", MaxNoteLength))
	}

	return &trimmed, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
