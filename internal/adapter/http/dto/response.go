package dto

import (
	"time"

	"github.com/iho/cashledger/internal/domain"
)

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID            int64     `json:"id"`
	Amount        string    `json:"amount"`
	CurrencyCode  string    `json:"currency_code"`
	FlowDirection string    `json:"flow_direction"`
	ClientName    string    `json:"client_name"`
	Note          *string   `json:"note"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		Amount:        e.Amount.StringFixed(domain.AmountScale),
		CurrencyCode:  string(e.Currency),
		FlowDirection: string(e.FlowDirection),
		ClientName:    e.ClientName,
		Note:          e.Note,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntryListResponse is one page of entries.
type EntryListResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// CandidateResponse is a validated parse result that has not been stored.
type CandidateResponse struct {
	Amount        string  `json:"amount"`
	CurrencyCode  string  `json:"currency_code"`
	FlowDirection string  `json:"flow_direction"`
	ClientName    string  `json:"client_name"`
	Note          *string `json:"note"`
}

// CandidateFromDomain converts a validated entry to response.
func CandidateFromDomain(e *domain.NewEntry) *CandidateResponse {
	return &CandidateResponse{
		Amount:        e.Amount.StringFixed(domain.AmountScale),
		CurrencyCode:  string(e.Currency),
		FlowDirection: string(e.FlowDirection),
		ClientName:    e.ClientName,
		Note:          e.Note,
	}
}

// CurrencyAmountResponse is one currency line of a report.
type CurrencyAmountResponse struct {
	CurrencyCode string `json:"currency_code"`
	Amount       string `json:"amount"`
}

// CurrencyAmountsFromDomain converts report lines to responses.
func CurrencyAmountsFromDomain(lines []domain.CurrencyAmount) []CurrencyAmountResponse {
	result := make([]CurrencyAmountResponse, len(lines))
	for i, l := range lines {
		result[i] = CurrencyAmountResponse{
			CurrencyCode: string(l.Currency),
			Amount:       l.Amount.StringFixed(domain.AmountScale),
		}
	}
	return result
}

// BalancesResponse is the all-time balance per currency.
type BalancesResponse struct {
	ByCurrency []CurrencyAmountResponse `json:"by_currency"`
}

// DailyProfitResponse is the net flow of one day.
type DailyProfitResponse struct {
	Date       string                   `json:"date"`
	ByCurrency []CurrencyAmountResponse `json:"by_currency"`
}

// DailyProfitFromDomain converts a daily profit report to response.
func DailyProfitFromDomain(p domain.DailyProfit) *DailyProfitResponse {
	return &DailyProfitResponse{
		Date:       p.Day.String(),
		ByCurrency: CurrencyAmountsFromDomain(p.ByCurrency),
	}
}

// ClientDebtResponse is the outstanding amount of one client in one currency.
type ClientDebtResponse struct {
	ClientName   string `json:"client_name"`
	CurrencyCode string `json:"currency_code"`
	Amount       string `json:"amount"`
}

// ClientDebtsResponse lists client debts.
type ClientDebtsResponse struct {
	Debts []ClientDebtResponse `json:"debts"`
}

// ClientDebtsFromDomain converts client debts to response.
func ClientDebtsFromDomain(debts []domain.ClientDebt) *ClientDebtsResponse {
	result := make([]ClientDebtResponse, len(debts))
	for i, d := range debts {
		result[i] = ClientDebtResponse{
			ClientName:   d.ClientName,
			CurrencyCode: string(d.Currency),
			Amount:       d.Amount.StringFixed(domain.AmountScale),
		}
	}
	return &ClientDebtsResponse{Debts: result}
}

// CashTotalResponse is the cash position.
type CashTotalResponse struct {
	ByCurrency []CurrencyAmountResponse `json:"by_currency"`
	UZSTotal   string                   `json:"uzs_total"`
}

// CashTotalFromDomain converts the cash position to response.
func CashTotalFromDomain(c domain.CashTotal) *CashTotalResponse {
	return &CashTotalResponse{
		ByCurrency: CurrencyAmountsFromDomain(c.ByCurrency),
		UZSTotal:   c.UZS.StringFixed(domain.AmountScale),
	}
}

// ExportRunResponse describes an export run.
type ExportRunResponse struct {
	RunID      string     `json:"run_id,omitempty"`
	Date       string     `json:"date"`
	State      string     `json:"state"`
	EntryCount int        `json:"entry_count"`
	Files      []string   `json:"files,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ExportRunFromDomain converts an export run to response.
func ExportRunFromDomain(run domain.ExportRun) *ExportRunResponse {
	resp := &ExportRunResponse{
		RunID:      run.ID,
		Date:       run.Day.String(),
		State:      string(run.State),
		EntryCount: run.EntryCount,
		Error:      run.Error,
		FinishedAt: run.FinishedAt,
	}
	if !run.StartedAt.IsZero() {
		started := run.StartedAt
		resp.StartedAt = &started
	}
	return resp
}

// ExportSnapshotFromDomain converts a delivered snapshot to response.
func ExportSnapshotFromDomain(s *domain.ExportSnapshot) *ExportRunResponse {
	files := make([]string, len(s.Files))
	for i, f := range s.Files {
		files[i] = f.Name
	}

	finished := s.CreatedAt
	return &ExportRunResponse{
		RunID:      s.RunID,
		Date:       s.Day.String(),
		State:      string(domain.ExportDelivered),
		EntryCount: s.EntryCount,
		Files:      files,
		FinishedAt: &finished,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
