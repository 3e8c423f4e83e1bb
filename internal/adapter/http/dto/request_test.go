package dto

import (
	"encoding/json"
	"testing"
)

func TestCreateEntryRequestToCandidate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		amount string
	}{
		{"number", `{"amount":100.5,"currency_code":"usd","flow_direction":"inflow","client_name":"Ali"}`, "100.5"},
		{"string", `{"amount":"100.50","currency_code":"usd","flow_direction":"inflow","client_name":"Ali"}`, "100.50"},
		{"null", `{"amount":null,"currency_code":"usd","flow_direction":"inflow","client_name":"Ali"}`, ""},
		{"missing", `{"currency_code":"usd","flow_direction":"inflow","client_name":"Ali"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateEntryRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			c := req.ToCandidate()
			if c.Amount != tt.amount {
				t.Fatalf("expected amount %q, got %q", tt.amount, c.Amount)
			}
			if c.Currency != "usd" || c.FlowDirection != "inflow" || c.ClientName != "Ali" {
				t.Fatalf("fields were not passed through untouched: %+v", c)
			}
		})
	}
}
