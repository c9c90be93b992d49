package cli

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/xhd2015/clau/types"
)

// EventDecoder turns stream-json lines into messages.
// It keeps the state needed across lines: the session id and
// the names of tools by tool_use id. Not safe for concurrent use.
type EventDecoder struct {
	logger    types.Logger
	sessionID string
	toolNames map[string]string
	emitted   []types.Message
	skipped   int
}

// NewEventDecoder creates a decoder, sessionID is used until
// the stream reports its own
func NewEventDecoder(sessionID string, logger types.Logger) *EventDecoder {
	if logger == nil {
		logger = types.NopLogger
	}
	return &EventDecoder{
		logger:    logger,
		sessionID: sessionID,
		toolNames: make(map[string]string),
	}
}

// SessionID returns the latest known session id
func (d *EventDecoder) SessionID() string {
	return d.sessionID
}

// Skipped returns the number of lines that were not valid JSON
func (d *EventDecoder) Skipped() int {
	return d.skipped
}

// Decode decodes one line. Blank lines, malformed lines and
// unknown event types produce no messages.
func (d *EventDecoder) Decode(ctx context.Context, line string) []types.Message {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	data := []byte(line)
	if !json.Valid(data) {
		d.skipped++
		d.logger.Log(ctx, types.LogType_Error, "malformed event: %s", line)
		return nil
	}
	var ev streamEvent
	if err := decodeLenient(data, &ev); err != nil {
		return nil
	}
	if ev.SessionID != "" {
		d.sessionID = ev.SessionID
	}

	var msgs []types.Message
	switch ev.Type {
	case "system":
		msgs = d.decodeSystem(data, ev)
	case "assistant":
		msgs = d.decodeAssistant(data, ev)
	case "user":
		msgs = d.decodeUser(data, ev)
	case "result":
		msgs = d.decodeResult(data)
	default:
		d.logger.Log(ctx, types.LogType_Info, "ignore event type: %q", ev.Type)
		return nil
	}
	for i := range msgs {
		msgs[i] = msgs[i].TimeFilled()
	}
	d.emitted = append(d.emitted, msgs...)
	return msgs
}

func (d *EventDecoder) meta() types.MessageMeta {
	return types.MessageMeta{SessionID: d.sessionID}
}

func (d *EventDecoder) decodeSystem(data []byte, ev streamEvent) []types.Message {
	if ev.Subtype == "init" {
		return []types.Message{types.NewInit(d.meta())}
	}
	var sys struct {
		Message json.RawMessage `json:"message"`
	}
	json.Unmarshal(data, &sys)
	content := ev.Subtype
	if text := optional[string](sys.Message); text != nil {
		content = *text
	}
	return []types.Message{types.NewSystem(content, d.meta())}
}

type assistantUsage struct {
	Message struct {
		Usage struct {
			InputTokens  *uint64 `json:"input_tokens"`
			OutputTokens *uint64 `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

func (d *EventDecoder) decodeAssistant(data []byte, ev streamEvent) []types.Message {
	if ev.Message == nil {
		return nil
	}
	var msgs []types.Message
	var text strings.Builder
	var hasText bool
	flush := func() {
		if hasText {
			msgs = append(msgs, types.NewAssistant(text.String(), d.meta()))
			text.Reset()
			hasText = false
		}
	}
	for _, block := range ev.Message.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
			hasText = true
		case "tool_use":
			flush()
			if block.ID != "" {
				d.toolNames[block.ID] = block.Name
			}
			msgs = append(msgs, types.NewTool(block.Name, block.Input, d.meta()))
		}
	}
	flush()

	// usage is reported once per line, attach it to the first message only
	if len(msgs) > 0 {
		var usage assistantUsage
		decodeLenient(data, &usage)
		if u := usage.Message.Usage; u.InputTokens != nil || u.OutputTokens != nil {
			tokens := &types.TokenUsage{}
			if u.InputTokens != nil {
				tokens.Input = *u.InputTokens
			}
			if u.OutputTokens != nil {
				tokens.Output = *u.OutputTokens
			}
			tokens.Total = tokens.Input + tokens.Output
			msgs[0].TokensUsed = tokens
		}
	}
	return msgs
}

func (d *EventDecoder) decodeUser(data []byte, ev streamEvent) []types.Message {
	if ev.Message == nil {
		return nil
	}
	if len(ev.Message.Content) == 0 {
		// plain string content
		var plain struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		}
		json.Unmarshal(data, &plain)
		if text := optional[string](plain.Message.Content); text != nil {
			return []types.Message{types.NewUser(*text, d.meta())}
		}
		return nil
	}
	var msgs []types.Message
	for _, block := range ev.Message.Content {
		switch block.Type {
		case "text":
			msgs = append(msgs, types.NewUser(block.Text, d.meta()))
		case "tool_result":
			name := d.toolNames[block.ToolUseID]
			if name == "" {
				name = block.ToolUseID
			}
			if name == "" {
				name = "unknown"
			}
			msgs = append(msgs, types.NewToolResult(name, block.Content, d.meta()))
		}
	}
	return msgs
}

func (d *EventDecoder) decodeResult(data []byte) []types.Message {
	fields, ok := decodeFields(data)
	if !ok {
		return nil
	}
	meta := d.meta()
	meta.CostUSD = fields.cost()
	meta.DurationMs = optional[uint64](fields.DurationMs)

	stats := types.StatsFromMessages(d.emitted)
	if meta.CostUSD != nil {
		stats.TotalCostUSD = *meta.CostUSD
	}
	if meta.DurationMs != nil {
		stats.TotalDurationMs = *meta.DurationMs
	}
	if usage := decodeUsage(fields.Usage); usage != nil {
		var tokens types.TokenUsage
		if usage.InputTokens != nil {
			tokens.Input = *usage.InputTokens
		}
		if usage.OutputTokens != nil {
			tokens.Output = *usage.OutputTokens
		}
		tokens.Total = tokens.Input + tokens.Output
		stats.TotalTokens = tokens
		meta.TokensUsed = &tokens
	}
	return []types.Message{types.NewResult(stats, meta)}
}
