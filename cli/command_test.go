package cli

import (
	"reflect"
	"testing"

	"github.com/xhd2015/clau/types"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.Config
		query    string
		expected []string
	}{
		{
			name:     "default text",
			cfg:      types.DefaultConfig(),
			query:    "hi",
			expected: []string{"-p", "hi"},
		},
		{
			name:     "zero config",
			cfg:      types.Config{},
			query:    "hi",
			expected: []string{"-p", "hi"},
		},
		{
			name:     "json",
			cfg:      types.NewConfig(types.WithStreamFormat(types.StreamFormat_JSON)),
			query:    "hi",
			expected: []string{"-p", "--output-format", "json", "hi"},
		},
		{
			name:     "text verbose",
			cfg:      types.NewConfig(types.WithVerbose(true)),
			query:    "hi",
			expected: []string{"-p", "--verbose", "hi"},
		},
		{
			name:     "stream-json forces verbose",
			cfg:      types.NewConfig(types.WithStreamFormat(types.StreamFormat_StreamJSON)),
			query:    "hi",
			expected: []string{"-p", "--output-format", "stream-json", "--verbose", "hi"},
		},
		{
			name:     "stream-json verbose not duplicated",
			cfg:      types.NewConfig(types.WithStreamFormat(types.StreamFormat_StreamJSON), types.WithVerbose(true)),
			query:    "hi",
			expected: []string{"-p", "--output-format", "stream-json", "--verbose", "hi"},
		},
		{
			name: "all options in order",
			cfg: types.NewConfig(
				types.WithMaxTokens(100),
				types.WithToolPermissions(types.MCPPermission("fs", "*"), types.BashPermission("ls -la")),
				types.WithMCPConfig("/tmp/mcp.json"),
				types.WithModel("sonnet"),
				types.WithSystemPrompt("be brief"),
				types.WithStreamFormat(types.StreamFormat_JSON),
				types.WithVerbose(true),
			),
			query: "list files",
			expected: []string{
				"-p",
				"--output-format", "json",
				"--verbose",
				"--system-prompt", "be brief",
				"--model", "sonnet",
				"--mcp-config", "/tmp/mcp.json",
				"--allowedTools", "mcp__fs__*",
				"--allowedTools", "bash:ls -la",
				"--max-tokens", "100",
				"list files",
			},
		},
		{
			name:     "empty values omitted",
			cfg:      types.NewConfig(types.WithModel(""), types.WithSystemPrompt("")),
			query:    "",
			expected: []string{"-p", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(&tt.cfg, tt.query)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("BuildArgs() = %q, want %q", got, tt.expected)
			}
			again := BuildArgs(&tt.cfg, tt.query)
			if !reflect.DeepEqual(got, again) {
				t.Errorf("BuildArgs() not deterministic: %q vs %q", got, again)
			}
		})
	}
}
