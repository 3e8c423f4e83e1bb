package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type entryServiceStub struct {
	ingestFn     func(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error)
	parseFn      func(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.NewEntry, error)
	ingestTextFn func(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.Entry, error)
	listFn       func(ctx context.Context, caller *domain.VerifiedCaller, input usecase.ListEntriesInput) ([]*domain.Entry, int, error)
}

func (s *entryServiceStub) Ingest(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error) {
	return s.ingestFn(ctx, caller, candidate)
}

func (s *entryServiceStub) ParseText(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.NewEntry, error) {
	return s.parseFn(ctx, caller, text)
}

func (s *entryServiceStub) IngestText(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.Entry, error) {
	return s.ingestTextFn(ctx, caller, text)
}

func (s *entryServiceStub) ListEntries(ctx context.Context, caller *domain.VerifiedCaller, input usecase.ListEntriesInput) ([]*domain.Entry, int, error) {
	return s.listFn(ctx, caller, input)
}

var testCaller = &domain.VerifiedCaller{ID: 42, Method: domain.AuthMethodSignedAssertion}

func withCaller(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), testCaller))
}

func sampleEntry() *domain.Entry {
	return &domain.Entry{
		ID:            1,
		Amount:        decimal.RequireFromString("100"),
		Currency:      domain.CurrencyUSD,
		FlowDirection: domain.FlowInflow,
		ClientName:    "ali",
		CreatedBy:     42,
		CreatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEntryHandler_Create_Success(t *testing.T) {
	var captured domain.EntryCandidate
	var capturedCaller *domain.VerifiedCaller
	stub := &entryServiceStub{
		ingestFn: func(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error) {
			captured = candidate
			capturedCaller = caller
			return sampleEntry(), nil
		},
	}
	handler := NewEntryHandler(stub, stub)

	body := `{"amount":100,"currency_code":"usd","flow_direction":"inflow","client_name":"ali"}`
	req := withCaller(httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString(body)))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Amount != "100" || captured.Currency != "usd" || capturedCaller != testCaller {
		t.Fatalf("expected candidate to match request, got %+v caller %+v", captured, capturedCaller)
	}

	var resp dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 1 || resp.Amount != "100.00" || resp.CurrencyCode != "USD" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEntryHandler_Create_InvalidJSON(t *testing.T) {
	stub := &entryServiceStub{
		ingestFn: func(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error) {
			t.Fatalf("ingest should not be called for malformed body")
			return nil, nil
		},
	}
	handler := NewEntryHandler(stub, stub)

	req := withCaller(httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString("{")))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Create_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid entry", &domain.FieldError{Field: "amount", Reason: "must be positive"}, http.StatusUnprocessableEntity},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"missing identity", domain.ErrMissingIdentity, http.StatusUnauthorized},
		{"store down", domain.ErrPersistenceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &entryServiceStub{
				ingestFn: func(ctx context.Context, caller *domain.VerifiedCaller, candidate domain.EntryCandidate) (*domain.Entry, error) {
					return nil, tt.err
				},
			}
			handler := NewEntryHandler(stub, stub)

			req := httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString(`{"amount":"-1"}`))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestEntryHandler_TextEndpoints(t *testing.T) {
	var gotText string
	stub := &entryServiceStub{
		parseFn: func(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.NewEntry, error) {
			gotText = text
			return &domain.NewEntry{
				Amount:        decimal.RequireFromString("5"),
				Currency:      domain.CurrencyRUB,
				FlowDirection: domain.FlowOutflow,
				ClientName:    "bob",
				CreatedBy:     caller.ID,
			}, nil
		},
		ingestTextFn: func(ctx context.Context, caller *domain.VerifiedCaller, text string) (*domain.Entry, error) {
			return sampleEntry(), nil
		},
	}
	handler := NewEntryHandler(stub, stub)

	req := withCaller(httptest.NewRequest(http.MethodPost, "/entries/parse", bytes.NewBufferString(`{"text":"bobga 5 rub berdim"}`)))
	rec := httptest.NewRecorder()
	handler.ParsePreview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var preview dto.CandidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if gotText != "bobga 5 rub berdim" || preview.Amount != "5.00" || preview.FlowDirection != "OUTFLOW" {
		t.Fatalf("unexpected preview %+v for text %q", preview, gotText)
	}

	req = withCaller(httptest.NewRequest(http.MethodPost, "/entries/text", bytes.NewBufferString(`{"text":"ali 100 usd oldim"}`)))
	rec = httptest.NewRecorder()
	handler.CreateFromText(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEntryHandler_List(t *testing.T) {
	var captured usecase.ListEntriesInput
	stub := &entryServiceStub{
		listFn: func(ctx context.Context, caller *domain.VerifiedCaller, input usecase.ListEntriesInput) ([]*domain.Entry, int, error) {
			captured = input
			return []*domain.Entry{sampleEntry()}, 12, nil
		},
	}
	handler := NewEntryHandler(stub, stub)

	req := withCaller(httptest.NewRequest(http.MethodGet, "/entries?limit=5&offset=10&client=ali&currency=dollar&from=2024-05-01T00:00:00Z", nil))
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	f := captured.Filter
	if f.Limit != 5 || f.Offset != 10 || f.ClientName != "ali" || f.Currency != domain.CurrencyUSD || f.From == nil || f.To != nil {
		t.Fatalf("unexpected filter: %+v", f)
	}

	var resp dto.EntryListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 12 || len(resp.Entries) != 1 || resp.Limit != 5 || resp.Offset != 10 {
		t.Fatalf("unexpected list response: %+v", resp)
	}
}

func TestEntryHandler_List_BadQuery(t *testing.T) {
	stub := &entryServiceStub{
		listFn: func(ctx context.Context, caller *domain.VerifiedCaller, input usecase.ListEntriesInput) ([]*domain.Entry, int, error) {
			t.Fatalf("list should not be called for a bad query")
			return nil, 0, nil
		},
	}
	handler := NewEntryHandler(stub, stub)

	for _, query := range []string{"currency=eur", "from=yesterday", "to=2024-13-01"} {
		req := withCaller(httptest.NewRequest(http.MethodGet, "/entries?"+query, nil))
		rec := httptest.NewRecorder()
		handler.List(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}
