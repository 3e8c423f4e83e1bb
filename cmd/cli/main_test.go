package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/infrastructure/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	if err := printJSON(&out, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("printJSON failed: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if out.String() != expected {
		t.Fatalf("unexpected json output:\n%s", out.String())
	}

	out.Reset()
	if err := printJSON(&out, []byte("not json")); err != nil {
		t.Fatalf("printJSON failed: %v", err)
	}
	if out.String() != "not json\n" {
		t.Fatalf("expected raw body passthrough, got %q", out.String())
	}
}

func TestSignInitDataCmd(t *testing.T) {
	out, err := execute(t, "sign-init-data", "--bot-token", "123456:cli-test", "--user-id", "42", "--auth-date", "1700000000")
	if err != nil {
		t.Fatalf("sign-init-data failed: %v", err)
	}

	verifier := auth.NewVerifier("123456:cli-test", 0)
	caller, err := verifier.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("signed init data did not verify: %v", err)
	}
	if caller.ID != 42 {
		t.Fatalf("expected caller 42, got %d", caller.ID)
	}
}

func TestSignInitDataCmdRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := execute(t, "sign-init-data", "--user-id", "42"); err == nil {
		t.Fatalf("expected error without bot token")
	}
}

func TestReportCmdSendsAuthHeader(t *testing.T) {
	var gotPath, gotQuery, gotDebug string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotDebug = r.Header.Get(middleware.DebugIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"date":"2024-05-01","by_currency":[]}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "--telegram-id", "42", "report", "daily-profit", "--date", "2024-05-01")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if gotPath != "/api/v1/reports/daily-profit" || gotQuery != "date=2024-05-01" || gotDebug != "42" {
		t.Fatalf("unexpected request: path=%s query=%s debug=%s", gotPath, gotQuery, gotDebug)
	}
	if !strings.Contains(out, `"date": "2024-05-01"`) {
		t.Fatalf("expected pretty-printed response, got %s", out)
	}
}

func TestExportRunReportsFailureStatus(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"export_in_progress"}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "--init-data", "signed", "export", "run", "2024-05-01")
	if err == nil {
		t.Fatalf("expected error for 409 response")
	}
	if gotMethod != http.MethodPost || gotPath != "/api/v1/exports/2024-05-01" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(out, "export_in_progress") {
		t.Fatalf("expected error body to be printed, got %s", out)
	}
}

func TestDayArg(t *testing.T) {
	today, err := dayArg(nil)
	if err != nil || today != time.Now().UTC().Format("2006-01-02") {
		t.Fatalf("unexpected default day %q (%v)", today, err)
	}

	if _, err := dayArg([]string{"01.05.2024"}); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
