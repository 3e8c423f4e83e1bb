package handler

import (
	"context"
	"net/http"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

type reportService interface {
	Today() domain.Day
	Balances(ctx context.Context, caller *domain.VerifiedCaller) ([]domain.CurrencyAmount, error)
	DailyProfit(ctx context.Context, caller *domain.VerifiedCaller, day domain.Day) (domain.DailyProfit, error)
	ClientDebts(ctx context.Context, caller *domain.VerifiedCaller) ([]domain.ClientDebt, error)
	CashTotal(ctx context.Context, caller *domain.VerifiedCaller) (domain.CashTotal, error)
}

// ReportHandler handles report HTTP requests.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Balances handles GET /reports/balances.
func (h *ReportHandler) Balances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.reports.Balances(r.Context(), callerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesResponse{ByCurrency: dto.CurrencyAmountsFromDomain(balances)})
}

// DailyProfit handles GET /reports/daily-profit?date=YYYY-MM-DD. The date
// defaults to today (UTC).
func (h *ReportHandler) DailyProfit(w http.ResponseWriter, r *http.Request) {
	day := h.reports.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := domain.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err.Error())
			return
		}
		day = parsed
	}

	profit, err := h.reports.DailyProfit(r.Context(), callerFrom(r), day)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DailyProfitFromDomain(profit))
}

// ClientDebts handles GET /reports/client-debts.
func (h *ReportHandler) ClientDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.reports.ClientDebts(r.Context(), callerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClientDebtsFromDomain(debts))
}

// CashTotal handles GET /reports/cash-total.
func (h *ReportHandler) CashTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.reports.CashTotal(r.Context(), callerFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CashTotalFromDomain(total))
}
