package types

import (
	"errors"
	"testing"
)

func TestToolPermissionCLIFormat(t *testing.T) {
	tests := []struct {
		name     string
		perm     ToolPermission
		expected string
	}{
		{name: "mcp wildcard", perm: MCPPermission("fs", "*"), expected: "mcp__fs__*"},
		{name: "mcp tool", perm: MCPPermission("fs", "read"), expected: "mcp__fs__read"},
		{name: "bash", perm: BashPermission("ls -la"), expected: "bash:ls -la"},
		{name: "all", perm: AllPermission(), expected: "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.perm.CLIFormat(); got != tt.expected {
				t.Errorf("CLIFormat() = %q, want %q", got, tt.expected)
			}
			parsed, err := ParseToolPermission(tt.expected)
			if err != nil {
				t.Fatalf("ParseToolPermission(%q): %v", tt.expected, err)
			}
			if parsed != tt.perm {
				t.Errorf("ParseToolPermission(%q) = %+v, want %+v", tt.expected, parsed, tt.perm)
			}
		})
	}
}

func TestParseToolPermissionInvalid(t *testing.T) {
	for _, s := range []string{"", "bash:", "mcp__fs", "mcp____read", "read"} {
		_, err := ParseToolPermission(s)
		var inputErr *InvalidInputError
		if !errors.As(err, &inputErr) {
			t.Errorf("ParseToolPermission(%q): expected InvalidInputError, got %v", s, err)
		}
	}
}

func TestWithToolPermissions(t *testing.T) {
	cfg := NewConfig(
		WithAllowedTools("Read"),
		WithToolPermissions(MCPPermission("fs", "*"), BashPermission("git status")),
	)
	expected := []string{"Read", "mcp__fs__*", "bash:git status"}
	if len(cfg.AllowedTools) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, cfg.AllowedTools)
	}
	for i := range expected {
		if cfg.AllowedTools[i] != expected[i] {
			t.Errorf("AllowedTools[%d] = %q, want %q", i, cfg.AllowedTools[i], expected[i])
		}
	}
}
