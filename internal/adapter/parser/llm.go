package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iho/cashledger/internal/domain"
)

const systemPrompt = "You are a parser for exchange operator messages. " +
	"Return ONLY valid JSON with keys: amount, currency_code, flow_direction, client_name, note. " +
	"amount must be numeric and > 0. " +
	"currency_code must be one of USD, RUB, UZS. " +
	"flow_direction must be INFLOW or OUTFLOW. " +
	"Treat 'oldim', 'sotib oldim', 'buy', 'kupil', 'kirim' as INFLOW and " +
	"'sotdim', 'prodal', 'sell', 'berdim', 'chiqim' as OUTFLOW. " +
	"client_name can be null if not present; drop dative suffixes (e.g. 'aliakaga' -> 'aliaka'). " +
	"note can be null. If a rate is mentioned (e.g. 12100), set note to 'rate: 12100'. " +
	"Do not include markdown or explanations. " +
	"Example: 'Ali 1000 usd 12100 oldim' => " +
	`{"amount":1000,"currency_code":"USD","flow_direction":"INFLOW","client_name":"Ali","note":"rate: 12100"}`

// ErrMalformedResponse is returned when the model reply holds no usable JSON
// object.
var ErrMalformedResponse = errors.New("malformed model response")

// LLMConfig configures an OpenAI-compatible chat completion client.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Client  *http.Client
}

// LLM extracts entry fields with an OpenAI-compatible chat completion API.
type LLM struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewLLM creates a new LLM client.
func NewLLM(cfg LLMConfig) *LLM {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &LLM{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type extractedEntry struct {
	Amount        json.RawMessage `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	FlowDirection string          `json:"flow_direction"`
	ClientName    *string         `json:"client_name"`
	Note          *string         `json:"note"`
}

// Extract asks the model for entry fields. Errors cover transport failures
// and replies that are not a JSON object; field values are left for entry
// validation.
func (l *LLM) Extract(ctx context.Context, text string) (domain.EntryCandidate, error) {
	body, err := json.Marshal(chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return domain.EntryCandidate{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.EntryCandidate{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return domain.EntryCandidate{}, fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.EntryCandidate{}, fmt.Errorf("chat completion: status %d: %s", resp.StatusCode, snippet)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.EntryCandidate{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(chat.Choices) == 0 {
		return domain.EntryCandidate{}, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	return decodeEntry(chat.Choices[0].Message.Content)
}

// Parse implements usecase.EntryParser.
func (l *LLM) Parse(ctx context.Context, text string) domain.ParseResult {
	candidate, err := l.Extract(ctx, text)
	if err != nil {
		return domain.ParseFailure(err.Error())
	}
	return domain.ParsedCandidate(candidate)
}

// decodeEntry pulls the first JSON object out of a model reply, tolerating
// code fences and surrounding prose.
func decodeEntry(content string) (domain.EntryCandidate, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return domain.EntryCandidate{}, fmt.Errorf("%w: no JSON object", ErrMalformedResponse)
	}

	var raw extractedEntry
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return domain.EntryCandidate{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	candidate := domain.EntryCandidate{
		Amount:        strings.Trim(strings.TrimSpace(string(raw.Amount)), `"`),
		Currency:      raw.CurrencyCode,
		FlowDirection: raw.FlowDirection,
		Note:          raw.Note,
	}
	if raw.ClientName != nil {
		candidate.ClientName = *raw.ClientName
	}
	if candidate.Amount == "null" {
		candidate.Amount = ""
	}

	return candidate, nil
}
