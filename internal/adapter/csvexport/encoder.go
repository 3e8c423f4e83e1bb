package csvexport

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

var (
	entriesHeader = []string{"id", "amount", "currency_code", "flow_direction", "client_name", "note", "created_by", "created_at"}
	reportHeader  = []string{"section", "key", "currency_code", "amount"}
)

// Report sections.
const (
	SectionDailyProfit = "daily_profit"
	SectionBalance     = "balance"
	SectionClientDebt  = "client_debt"
	SectionCashTotal   = "cash_total"
)

// Encoder renders a day's snapshot as two CSV files: the day's entries and
// the report figures.
type Encoder struct{}

// NewEncoder creates a new Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// EntriesFileName is the name of the entries file for day.
func EntriesFileName(day domain.Day) string {
	return "entries_" + day.String() + ".csv"
}

// ReportFileName is the name of the report file for day.
func ReportFileName(day domain.Day) string {
	return "report_" + day.String() + ".csv"
}

// Encode implements usecase.SnapshotEncoder.
func (e *Encoder) Encode(day domain.Day, entries []*domain.Entry, report usecase.ExportReport) ([]domain.ExportFile, error) {
	entriesCSV, err := encodeEntries(entries)
	if err != nil {
		return nil, err
	}

	reportCSV, err := encodeReport(day, report)
	if err != nil {
		return nil, err
	}

	return []domain.ExportFile{
		{Name: EntriesFileName(day), Content: entriesCSV},
		{Name: ReportFileName(day), Content: reportCSV},
	}, nil
}

func encodeEntries(entries []*domain.Entry) ([]byte, error) {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, entriesHeader)

	for _, e := range entries {
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			formatAmount(e.Amount),
			string(e.Currency),
			string(e.FlowDirection),
			textCell(e.ClientName),
			textCell(note),
			strconv.FormatInt(e.CreatedBy, 10),
			e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	return write(rows)
}

func encodeReport(day domain.Day, report usecase.ExportReport) ([]byte, error) {
	rows := [][]string{reportHeader}

	for _, line := range report.DailyProfit.ByCurrency {
		rows = append(rows, []string{SectionDailyProfit, day.String(), string(line.Currency), formatAmount(line.Amount)})
	}
	for _, line := range report.Balances {
		rows = append(rows, []string{SectionBalance, "all", string(line.Currency), formatAmount(line.Amount)})
	}
	for _, debt := range report.ClientDebts {
		rows = append(rows, []string{SectionClientDebt, textCell(debt.ClientName), string(debt.Currency), formatAmount(debt.Amount)})
	}
	for _, line := range report.CashTotal.ByCurrency {
		rows = append(rows, []string{SectionCashTotal, "by_currency", string(line.Currency), formatAmount(line.Amount)})
	}
	rows = append(rows, []string{SectionCashTotal, "uzs_total", string(domain.CurrencyUZS), formatAmount(report.CashTotal.UZS)})

	return write(rows)
}

func write(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// textCell quotes free text that a spreadsheet would evaluate as a formula.
func textCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}
