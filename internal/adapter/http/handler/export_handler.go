package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type exportService interface {
	ExportDay(ctx context.Context, day domain.Day) (*domain.ExportSnapshot, error)
	Status(day domain.Day) domain.ExportRun
}

// ExportHandler handles export HTTP requests.
type ExportHandler struct {
	exports    exportService
	authorizer usecase.Authorizer
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exports exportService, authorizer usecase.Authorizer) *ExportHandler {
	return &ExportHandler{exports: exports, authorizer: authorizer}
}

// Trigger handles POST /exports/{date}. It blocks until the run is
// delivered or failed.
func (h *ExportHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	day, ok := h.authorizedDay(w, r)
	if !ok {
		return
	}

	snapshot, err := h.exports.ExportDay(r.Context(), day)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExportSnapshotFromDomain(snapshot))
}

// Status handles GET /exports/{date}.
func (h *ExportHandler) Status(w http.ResponseWriter, r *http.Request) {
	day, ok := h.authorizedDay(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.ExportRunFromDomain(h.exports.Status(day)))
}

func (h *ExportHandler) authorizedDay(w http.ResponseWriter, r *http.Request) (domain.Day, bool) {
	if err := h.authorizer.Authorize(callerFrom(r)); err != nil {
		writeDomainError(w, err)
		return domain.Day{}, false
	}

	day, err := domain.ParseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return domain.Day{}, false
	}

	return day, true
}
