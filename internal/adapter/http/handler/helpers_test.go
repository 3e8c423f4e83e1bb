package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/entries?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/entries?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid signature", domain.ErrInvalidSignature, http.StatusUnauthorized},
		{"stale assertion", domain.ErrStaleAssertion, http.StatusUnauthorized},
		{"missing identity", domain.ErrMissingIdentity, http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"invalid entry", &domain.FieldError{Field: "amount", Reason: "must be positive"}, http.StatusUnprocessableEntity},
		{"wrapped persistence", fmt.Errorf("append: %w", domain.ErrPersistenceUnavailable), http.StatusServiceUnavailable},
		{"export in progress", domain.ErrExportInProgress, http.StatusConflict},
		{"export failed", fmt.Errorf("%w: deliver: boom", domain.ErrExportFailed), http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeDomainError(rr, &domain.FieldError{Field: "currency_code", Reason: "unsupported"})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error != "invalid_entry" || resp.Field != "currency_code" {
		t.Fatalf("unexpected error response: %+v", resp)
	}

	rr = httptest.NewRecorder()
	writeDomainError(rr, domain.ErrPersistenceUnavailable)
	if rr.Code != http.StatusServiceUnavailable || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 503 with Retry-After, got %d %q", rr.Code, rr.Header().Get("Retry-After"))
	}

	rr = httptest.NewRecorder()
	writeDomainError(rr, errors.New("pq: secret detail"))
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Message != "internal server error" {
		t.Fatalf("internal error details leaked: %+v", resp)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestParseTimeQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/entries?from=2024-05-01T00:00:00Z&to=bad", nil)

	from, err := parseTimeQuery(req, "from")
	if err != nil || from == nil || from.Day() != 1 {
		t.Fatalf("unexpected from: %v %v", from, err)
	}

	if _, err := parseTimeQuery(req, "to"); err == nil {
		t.Fatalf("expected error for malformed time")
	}

	missing, err := parseTimeQuery(req, "until")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing parameter, got %v %v", missing, err)
	}
}
