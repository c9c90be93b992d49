package cli

import (
	"context"
	"testing"

	"github.com/xhd2015/clau/types"
)

func TestEventDecoder(t *testing.T) {
	ctx := context.Background()
	dec := NewEventDecoder("", nil)

	lines := []string{
		`{"type":"system","subtype":"init","session_id":"s-1","tools":["Read"]}`,
		``,
		`{"type":"assistant","session_id":"s-1","message":{"content":[{"type":"text","text":"Let me "},{"type":"text","text":"look."},{"type":"tool_use","id":"toolu_1","name":"Read","input":{"file_path":"a.go"}}],"usage":{"input_tokens":10,"output_tokens":4}}}`,
		`garbage`,
		`{"type":"user","session_id":"s-1","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_1","content":"package a"}]}}`,
		`{"type":"assistant","session_id":"s-1","message":{"content":[{"type":"text","text":"Done."}]}}`,
		`{"type":"system","subtype":"compact_boundary","session_id":"s-1"}`,
		`{"type":"future_event"}`,
		`{"type":"result","subtype":"success","session_id":"s-1","total_cost_usd":0.01,"duration_ms":2000,"usage":{"input_tokens":20,"output_tokens":8}}`,
	}
	var msgs []types.Message
	for _, line := range lines {
		msgs = append(msgs, dec.Decode(ctx, line)...)
	}

	expectedTypes := []types.MessageType{
		types.MessageType_Init,
		types.MessageType_Assistant,
		types.MessageType_Tool,
		types.MessageType_ToolResult,
		types.MessageType_Assistant,
		types.MessageType_System,
		types.MessageType_Result,
	}
	if len(msgs) != len(expectedTypes) {
		t.Fatalf("Expected %d messages, got %d: %+v", len(expectedTypes), len(msgs), msgs)
	}
	for i, msg := range msgs {
		if msg.Type != expectedTypes[i] {
			t.Errorf("msgs[%d].Type = %s, want %s", i, msg.Type, expectedTypes[i])
		}
		if msg.SessionID != "s-1" {
			t.Errorf("msgs[%d].SessionID = %q, want s-1", i, msg.SessionID)
		}
		if msg.Timestamp == nil {
			t.Errorf("msgs[%d] has no timestamp", i)
		}
	}

	if msgs[1].Content != "Let me look." {
		t.Errorf("Expected merged text, got %q", msgs[1].Content)
	}
	if msgs[1].TokensUsed == nil || msgs[1].TokensUsed.Total != 14 {
		t.Errorf("Expected usage on first assistant message, got %+v", msgs[1].TokensUsed)
	}
	if msgs[2].TokensUsed != nil {
		t.Errorf("Expected usage only once per line")
	}
	if msgs[2].Name != "Read" || string(msgs[2].Parameters) != `{"file_path":"a.go"}` {
		t.Errorf("Unexpected tool message: %+v", msgs[2])
	}
	if msgs[3].ToolName != "Read" || string(msgs[3].Result) != `"package a"` {
		t.Errorf("Unexpected tool result: %+v", msgs[3])
	}
	if msgs[5].Content != "compact_boundary" {
		t.Errorf("Expected system subtype as content, got %q", msgs[5].Content)
	}

	result := msgs[6]
	if result.Stats == nil {
		t.Fatalf("Expected stats on result")
	}
	if result.Stats.TotalMessages != 6 {
		t.Errorf("Expected 6 messages before result, got %d", result.Stats.TotalMessages)
	}
	if result.Stats.TotalCostUSD != 0.01 {
		t.Errorf("Expected cost 0.01, got %v", result.Stats.TotalCostUSD)
	}
	if result.Stats.TotalDurationMs != 2000 {
		t.Errorf("Expected duration 2000, got %d", result.Stats.TotalDurationMs)
	}
	if result.Stats.TotalTokens != (types.TokenUsage{Input: 20, Output: 8, Total: 28}) {
		t.Errorf("Unexpected total tokens: %+v", result.Stats.TotalTokens)
	}
	if result.CostUSD == nil || *result.CostUSD != 0.01 {
		t.Errorf("Expected result meta cost, got %v", result.CostUSD)
	}
	if dec.Skipped() != 1 {
		t.Errorf("Expected 1 skipped line, got %d", dec.Skipped())
	}
}

func TestEventDecoderInitialSession(t *testing.T) {
	dec := NewEventDecoder("preset", nil)
	msgs := dec.Decode(context.Background(), `{"type":"user","message":{"content":"hello"}}`)
	if len(msgs) != 1 || msgs[0].Type != types.MessageType_User || msgs[0].Content != "hello" {
		t.Fatalf("Unexpected messages: %+v", msgs)
	}
	if msgs[0].SessionID != "preset" {
		t.Errorf("Expected preset session, got %q", msgs[0].SessionID)
	}
	dec.Decode(context.Background(), `{"type":"system","subtype":"init","session_id":"real"}`)
	if dec.SessionID() != "real" {
		t.Errorf("Expected session to be replaced, got %q", dec.SessionID())
	}
}

func TestEventDecoderUnknownToolResult(t *testing.T) {
	dec := NewEventDecoder("", nil)
	msgs := dec.Decode(context.Background(), `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"toolu_x","content":[{"type":"text","text":"x"}]}]}}`)
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ToolName != "toolu_x" {
		t.Errorf("Expected tool use id as name fallback, got %q", msgs[0].ToolName)
	}
}
