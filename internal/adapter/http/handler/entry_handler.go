package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type entryService interface {
	Ingest(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error)
	ParseText(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.NewEntry, error)
	IngestText(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.Entry, error)
}

type entryLister interface {
	ListEntries(ctx context.Context, caller *domain.VerifiedCaller, input usecase.ListEntriesInput) ([]*domain.Entry, int, error)
}

// EntryHandler handles entry HTTP requests.
type EntryHandler struct {
	ingest entryService
	lister entryLister
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ingest entryService, lister entryLister) *EntryHandler {
	return &EntryHandler{ingest: ingest, lister: lister}
}

// Create handles POST /entries.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ingest.Ingest(r.Context(), callerFrom(r), req.ToCandidate())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// CreateFromText handles POST /entries/text.
func (h *EntryHandler) CreateFromText(w http.ResponseWriter, r *http.Request) {
	var req dto.TextEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ingest.IngestText(r.Context(), callerFrom(r), req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// ParsePreview handles POST /entries/parse. Nothing is stored.
func (h *EntryHandler) ParsePreview(w http.ResponseWriter, r *http.Request) {
	var req dto.TextEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ingest.ParseText(r.Context(), callerFrom(r), req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CandidateFromDomain(entry))
}

// List handles GET /entries.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.EntryFilter{
		ClientName: strings.TrimSpace(r.URL.Query().Get("client")),
		Limit:      parseIntQuery(r, "limit", 0),
		Offset:     parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("currency"); raw != "" {
		currency, ok := domain.ParseCurrency(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid currency", raw)
			return
		}
		filter.Currency = currency
	}

	var err error
	if filter.From, err = parseTimeQuery(r, "from"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err.Error())
		return
	}
	if filter.To, err = parseTimeQuery(r, "to"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err.Error())
		return
	}

	entries, total, err := h.lister.ListEntries(r.Context(), callerFrom(r), usecase.ListEntriesInput{Filter: filter})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	limit, offset := domain.ValidatePagination(filter.Limit, filter.Offset)
	writeJSON(w, http.StatusOK, dto.EntryListResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}
