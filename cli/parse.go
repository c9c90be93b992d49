package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xhd2015/clau/internal/jsondecode"
	"github.com/xhd2015/clau/types"
)

// Parse converts raw stdout according to format.
// The format is never guessed from the output.
func Parse(format types.StreamFormat, raw []byte) (*types.Response, error) {
	switch format.OrDefault() {
	case types.StreamFormat_Text:
		return ParseText(raw), nil
	case types.StreamFormat_JSON:
		return ParseJSON(raw)
	case types.StreamFormat_StreamJSON:
		return ParseStreamJSON(raw), nil
	}
	return nil, &types.ConfigError{Msg: fmt.Sprintf("unknown stream format: %q", format)}
}

// ParseText trims surrounding whitespace, it never fails
func ParseText(raw []byte) *types.Response {
	return &types.Response{
		Content: strings.TrimSpace(string(raw)),
	}
}

// ParseJSON decodes exactly one CLIResponse document.
// Any failure is a *types.SerializationError.
func ParseJSON(raw []byte) (*types.Response, error) {
	var resp types.CLIResponse
	if err := jsondecode.UnmarshalSafe(raw, &resp); err != nil {
		return nil, &types.SerializationError{Err: err}
	}
	doc := json.RawMessage(bytes.TrimSpace(raw))
	return &types.Response{
		Content:  resp.Result,
		Raw:      append(json.RawMessage(nil), doc...),
		Metadata: extractMetadata(doc),
	}, nil
}

// ParseStreamJSON accumulates the text of assistant lines.
// Blank lines are ignored, lines that are not valid JSON are
// skipped and counted in SkippedLines.
func ParseStreamJSON(raw []byte) *types.Response {
	var content strings.Builder
	var values []json.RawMessage
	var skipped int
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !json.Valid([]byte(line)) {
			skipped++
			continue
		}
		value := json.RawMessage(line)
		values = append(values, value)

		var ev streamEvent
		if decodeLenient(value, &ev) != nil {
			continue
		}
		if ev.Type == "assistant" && ev.Message != nil {
			for _, block := range ev.Message.Content {
				if block.Type == "text" {
					content.WriteString(block.Text)
				}
			}
		}
	}
	if values == nil {
		values = []json.RawMessage{}
	}
	rawArray, _ := json.Marshal(values)
	return &types.Response{
		Content:      content.String(),
		Raw:          rawArray,
		Metadata:     extractStreamMetadata(values),
		SkippedLines: skipped,
	}
}

// streamEvent is the subset of a stream-json line this package reads
type streamEvent struct {
	Type      string        `json:"type"`
	Subtype   string        `json:"subtype"`
	SessionID string        `json:"session_id"`
	Message   *eventMessage `json:"message"`
}

type eventMessage struct {
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`

	// tool_use
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`

	// tool_result
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// decodeLenient decodes data into v, fields of unexpected type
// are left as zero values instead of failing the whole value
func decodeLenient(data []byte, v interface{}) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

// metadataFields is the partial schema metadata is looked up in,
// every field is optional and decoded on its own
type metadataFields struct {
	Type         json.RawMessage `json:"type"`
	SessionID    json.RawMessage `json:"session_id"`
	CostUSD      json.RawMessage `json:"cost_usd"`
	TotalCostUSD json.RawMessage `json:"total_cost_usd"`
	TotalCost    json.RawMessage `json:"total_cost"`
	DurationMs   json.RawMessage `json:"duration_ms"`
	Usage        json.RawMessage `json:"usage"`
	Model        json.RawMessage `json:"model"`
	Message      json.RawMessage `json:"message"`

	PermissionDenials json.RawMessage `json:"permission_denials"`
}

type usageFields struct {
	InputTokens              json.RawMessage `json:"input_tokens"`
	OutputTokens             json.RawMessage `json:"output_tokens"`
	CacheCreationInputTokens json.RawMessage `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     json.RawMessage `json:"cache_read_input_tokens"`
}

// optional decodes raw as T, absent, null or mistyped values give nil
func optional[T any](raw json.RawMessage) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func decodeFields(raw json.RawMessage) (*metadataFields, bool) {
	var fields metadataFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return &fields, true
}

func (f *metadataFields) typeName() string {
	if t := optional[string](f.Type); t != nil {
		return *t
	}
	return ""
}

func (f *metadataFields) cost() *float64 {
	for _, raw := range []json.RawMessage{f.CostUSD, f.TotalCostUSD, f.TotalCost} {
		if v := optional[float64](raw); v != nil {
			return v
		}
	}
	return nil
}

func decodeUsage(raw json.RawMessage) *types.ResponseUsage {
	if len(raw) == 0 {
		return nil
	}
	var fields usageFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return &types.ResponseUsage{
		InputTokens:              optional[uint64](fields.InputTokens),
		OutputTokens:             optional[uint64](fields.OutputTokens),
		CacheCreationInputTokens: optional[uint64](fields.CacheCreationInputTokens),
		CacheReadInputTokens:     optional[uint64](fields.CacheReadInputTokens),
	}
}

// decodeDenials accepts both a list of tool names and
// a list of {"tool_name": ...} objects
func decodeDenials(raw json.RawMessage) []string {
	entries := optional[[]json.RawMessage](raw)
	if entries == nil {
		return nil
	}
	var names []string
	for _, entry := range *entries {
		if name := optional[string](entry); name != nil {
			names = append(names, *name)
			continue
		}
		denial := optional[struct {
			ToolName string `json:"tool_name"`
		}](entry)
		if denial != nil && denial.ToolName != "" {
			names = append(names, denial.ToolName)
		}
	}
	return names
}

// extractMetadata looks metadata up in a single object.
// Without a string session_id there is no metadata.
func extractMetadata(raw json.RawMessage) *types.ResponseMetadata {
	fields, ok := decodeFields(raw)
	if !ok {
		return nil
	}
	sessionID := optional[string](fields.SessionID)
	if sessionID == nil {
		return nil
	}
	return &types.ResponseMetadata{
		SessionID:  *sessionID,
		CostUSD:    fields.cost(),
		DurationMs: optional[uint64](fields.DurationMs),
		TokensUsed: decodeUsage(fields.Usage),
		Model:      optional[string](fields.Model),

		PermissionDenials: decodeDenials(fields.PermissionDenials),
	}
}

// extractStreamMetadata combines metadata spread over stream-json lines:
// the session id comes from the first line carrying one, cost and
// duration from the result line, model and usage from the last
// assistant message unless the result line reports usage itself.
func extractStreamMetadata(values []json.RawMessage) *types.ResponseMetadata {
	var meta types.ResponseMetadata
	var haveSession bool
	var resultUsage *types.ResponseUsage
	var assistantUsage *types.ResponseUsage
	for _, value := range values {
		fields, ok := decodeFields(value)
		if !ok {
			continue
		}
		if !haveSession {
			if sessionID := optional[string](fields.SessionID); sessionID != nil {
				meta.SessionID = *sessionID
				haveSession = true
			}
		}
		switch fields.typeName() {
		case "system":
			if meta.Model == nil {
				meta.Model = optional[string](fields.Model)
			}
		case "assistant":
			msgFields, ok := decodeFields(fields.Message)
			if !ok {
				continue
			}
			if model := optional[string](msgFields.Model); model != nil {
				meta.Model = model
			}
			if usage := decodeUsage(msgFields.Usage); usage != nil {
				assistantUsage = usage
			}
		case "result":
			meta.CostUSD = fields.cost()
			meta.DurationMs = optional[uint64](fields.DurationMs)
			resultUsage = decodeUsage(fields.Usage)
			meta.PermissionDenials = decodeDenials(fields.PermissionDenials)
		}
	}
	if !haveSession {
		return nil
	}
	meta.TokensUsed = resultUsage
	if meta.TokensUsed == nil {
		meta.TokensUsed = assistantUsage
	}
	return &meta
}
