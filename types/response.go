package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Response is the result of a one-shot query
type Response struct {
	// Content is the text answer
	Content string `json:"content"`

	// Raw is the full decoded output: the single JSON document for json,
	// an array of every parsed line for stream-json, nil for text
	Raw json.RawMessage `json:"raw_json,omitempty"`

	// Metadata is derived from Raw when a session id is found
	Metadata *ResponseMetadata `json:"metadata,omitempty"`

	// SkippedLines counts stream-json lines that were not valid JSON
	SkippedLines int `json:"skipped_lines,omitempty"`
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.Content
}

// ResponseMetadata is extracted best-effort from the raw output
type ResponseMetadata struct {
	SessionID  string         `json:"session_id"`
	CostUSD    *float64       `json:"cost_usd,omitempty"`
	DurationMs *uint64        `json:"duration_ms,omitempty"`
	TokensUsed *ResponseUsage `json:"tokens_used,omitempty"`
	Model      *string        `json:"model,omitempty"`

	// PermissionDenials names the tools the binary refused to run
	PermissionDenials []string `json:"permission_denials,omitempty"`
}

// PermissionError reports the first denied tool as a *PermissionDeniedError
func (m *ResponseMetadata) PermissionError() error {
	if m == nil || len(m.PermissionDenials) == 0 {
		return nil
	}
	return &PermissionDeniedError{Permission: m.PermissionDenials[0]}
}

// ResponseUsage is the usage block reported by the binary,
// every counter is independently optional
type ResponseUsage struct {
	InputTokens              *uint64 `json:"input_tokens,omitempty"`
	OutputTokens             *uint64 `json:"output_tokens,omitempty"`
	CacheCreationInputTokens *uint64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *uint64 `json:"cache_read_input_tokens,omitempty"`
}

// CLIResponse is the document printed with --output-format json
type CLIResponse struct {
	Type          string  `json:"type"`
	Subtype       string  `json:"subtype"`
	CostUSD       float64 `json:"cost_usd"`
	IsError       bool    `json:"is_error"`
	DurationMs    uint64  `json:"duration_ms"`
	DurationAPIMs *uint64 `json:"duration_api_ms,omitempty"`
	NumTurns      uint32  `json:"num_turns"`
	Result        string  `json:"result"`
	TotalCost     float64 `json:"total_cost"`
	SessionID     string  `json:"session_id"`
}

// cliResponseFields lists the required keys of CLIResponse
var cliResponseFields = []string{
	"type", "subtype", "cost_usd", "is_error", "duration_ms",
	"num_turns", "result", "total_cost", "session_id",
}

func (c *CLIResponse) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var missing []string
	for _, name := range cliResponseFields {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing field: %s", strings.Join(missing, ", "))
	}

	type plain CLIResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = CLIResponse(p)
	return nil
}
