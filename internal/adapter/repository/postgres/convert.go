package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/postgres/generated"
)

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func rowToEntry(row generated.CashEntry) *domain.Entry {
	e := &domain.Entry{
		ID:            row.ID,
		Amount:        numericToDecimal(row.Amount),
		Currency:      domain.Currency(row.CurrencyCode),
		FlowDirection: domain.FlowDirection(row.FlowDirection),
		ClientName:    row.ClientName,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt.Time.UTC(),
	}
	if row.Note.Valid {
		note := row.Note.String
		e.Note = &note
	}

	return e
}

func rowsToEntries(rows []generated.CashEntry) []*domain.Entry {
	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries
}
