package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType represents the variant of a message
type MessageType string

const (
	MessageType_Init       MessageType = "init"
	MessageType_User       MessageType = "user"
	MessageType_Assistant  MessageType = "assistant"
	MessageType_Result     MessageType = "result"
	MessageType_System     MessageType = "system"
	MessageType_Tool       MessageType = "tool"
	MessageType_ToolResult MessageType = "tool_result"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageType_Init, MessageType_User, MessageType_Assistant, MessageType_Result,
		MessageType_System, MessageType_Tool, MessageType_ToolResult:
		return true
	}
	return false
}

// HasText reports whether the variant carries free text
func (t MessageType) HasText() bool {
	return t == MessageType_User || t == MessageType_Assistant || t == MessageType_System
}

// MessageMeta is carried by every message variant.
// Unknown values are nil, never zero sentinels.
type MessageMeta struct {
	SessionID  string      `json:"session_id"`
	Timestamp  *time.Time  `json:"timestamp,omitempty"`
	CostUSD    *float64    `json:"cost_usd,omitempty"`
	DurationMs *uint64     `json:"duration_ms,omitempty"`
	TokensUsed *TokenUsage `json:"tokens_used,omitempty"`
}

// Message is a tagged union discriminated by Type.
// Only the fields belonging to Type are meaningful:
//   - user, assistant, system: Content
//   - tool: Name, Parameters
//   - tool_result: ToolName, Result
//   - result: Stats
type Message struct {
	Type MessageType
	MessageMeta

	Content string

	Name       string
	Parameters json.RawMessage

	ToolName string
	Result   json.RawMessage

	Stats *ConversationStats
}

// ConversationStats aggregates a whole conversation
type ConversationStats struct {
	TotalMessages   uint64     `json:"total_messages"`
	TotalCostUSD    float64    `json:"total_cost_usd"`
	TotalDurationMs uint64     `json:"total_duration_ms"`
	TotalTokens     TokenUsage `json:"total_tokens"`
}

// TokenUsage is the token usage attached to messages.
// See ResponseUsage for the shape reported in response metadata,
// the two are not interchangeable.
type TokenUsage struct {
	Input  uint64 `json:"input"`
	Output uint64 `json:"output"`
	Total  uint64 `json:"total"`
}

// Add adds two TokenUsage together
func (t TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		Input:  t.Input + other.Input,
		Output: t.Output + other.Output,
		Total:  t.Total + other.Total,
	}
}

func NewInit(meta MessageMeta) Message {
	return Message{Type: MessageType_Init, MessageMeta: meta}
}

func NewUser(content string, meta MessageMeta) Message {
	return Message{Type: MessageType_User, Content: content, MessageMeta: meta}
}

func NewAssistant(content string, meta MessageMeta) Message {
	return Message{Type: MessageType_Assistant, Content: content, MessageMeta: meta}
}

func NewSystem(content string, meta MessageMeta) Message {
	return Message{Type: MessageType_System, Content: content, MessageMeta: meta}
}

// NewTool stores parameters in the compact form they are encoded in
func NewTool(name string, parameters json.RawMessage, meta MessageMeta) Message {
	return Message{Type: MessageType_Tool, Name: name, Parameters: compactRaw(parameters), MessageMeta: meta}
}

func NewToolResult(toolName string, result json.RawMessage, meta MessageMeta) Message {
	return Message{Type: MessageType_ToolResult, ToolName: toolName, Result: compactRaw(result), MessageMeta: meta}
}

// compactRaw returns raw the way json.Marshal writes it,
// invalid JSON is kept as is and fails at encoding
func compactRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return raw
	}
	return data
}

func NewResult(stats ConversationStats, meta MessageMeta) Message {
	return Message{Type: MessageType_Result, Stats: &stats, MessageMeta: meta}
}

// Meta returns the metadata common to all variants
func (m Message) Meta() MessageMeta {
	return m.MessageMeta
}

// Text returns the free text of user, assistant and system messages
func (m Message) Text() string {
	if !m.Type.HasText() {
		return ""
	}
	return m.Content
}

// TimeFilled returns a copy of m with Timestamp set to now if absent
func (m Message) TimeFilled() Message {
	if m.Timestamp == nil {
		now := time.Now().UTC()
		m.Timestamp = &now
	}
	return m
}

// wireMessage is the flat JSON shape, the meta fields are inlined
type wireMessage struct {
	Type MessageType `json:"type"`
	MessageMeta

	Content *string `json:"content,omitempty"`

	Name       *string         `json:"name,omitempty"`
	Parameters json.RawMessage `json:"parameters,omitempty"`

	ToolName *string         `json:"tool_name,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`

	Stats *ConversationStats `json:"stats,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	if !m.Type.Valid() {
		return nil, fmt.Errorf("unknown message type: %q", m.Type)
	}
	w := wireMessage{
		Type:        m.Type,
		MessageMeta: m.MessageMeta,
	}
	switch m.Type {
	case MessageType_User, MessageType_Assistant, MessageType_System:
		content := m.Content
		w.Content = &content
	case MessageType_Tool:
		name := m.Name
		w.Name = &name
		w.Parameters = m.Parameters
	case MessageType_ToolResult:
		toolName := m.ToolName
		w.ToolName = &toolName
		w.Result = m.Result
	case MessageType_Result:
		w.Stats = m.Stats
	}
	return json.Marshal(w)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("unknown message type: %q", w.Type)
	}
	msg := Message{
		Type:        w.Type,
		MessageMeta: w.MessageMeta,
	}
	switch w.Type {
	case MessageType_User, MessageType_Assistant, MessageType_System:
		if w.Content == nil {
			return fmt.Errorf("%s message missing content", w.Type)
		}
		msg.Content = *w.Content
	case MessageType_Tool:
		if w.Name == nil {
			return fmt.Errorf("tool message missing name")
		}
		msg.Name = *w.Name
		msg.Parameters = w.Parameters
	case MessageType_ToolResult:
		if w.ToolName == nil {
			return fmt.Errorf("tool_result message missing tool_name")
		}
		msg.ToolName = *w.ToolName
		msg.Result = w.Result
	case MessageType_Result:
		if w.Stats == nil {
			return fmt.Errorf("result message missing stats")
		}
		msg.Stats = w.Stats
	}
	*m = msg
	return nil
}
