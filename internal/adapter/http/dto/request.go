package dto

import (
	"encoding/json"
	"strings"

	"github.com/iho/cashledger/internal/domain"
)

// CreateEntryRequest represents a manually entered cashflow entry. Amount
// may be sent as a JSON number or string.
type CreateEntryRequest struct {
	Amount        json.RawMessage `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	FlowDirection string          `json:"flow_direction"`
	ClientName    string          `json:"client_name"`
	Note          *string         `json:"note,omitempty"`
}

// ToCandidate converts the request to an unvalidated entry candidate.
func (r *CreateEntryRequest) ToCandidate() domain.EntryCandidate {
	return domain.EntryCandidate{
		Amount:        rawAmount(r.Amount),
		Currency:      r.CurrencyCode,
		FlowDirection: r.FlowDirection,
		ClientName:    r.ClientName,
		Note:          r.Note,
	}
}

// TextEntryRequest carries an operator message for the text parser.
type TextEntryRequest struct {
	Text string `json:"text"`
}

func rawAmount(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return ""
	}
	return strings.Trim(s, `"`)
}
