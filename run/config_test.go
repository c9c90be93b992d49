package run

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xhd2015/clau/types"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "clau.json",
			content: `{
  "model": "opus",
  "system_prompt": "be brief",
  "stream_format": "stream-json",
  "timeout_secs": 60,
  "allowed_tools": ["bash:ls"],
  "mcp_servers": ["fs=mcp-fs ."],
  "vars": {"lang": "Go"},
  "show_usage": true
}`,
		},
		{
			name: "yaml",
			file: "clau.yaml",
			content: `model: opus
system_prompt: be brief
stream_format: stream_json
timeout_secs: 60
allowed_tools:
  - bash:ls
mcp_servers:
  - fs=mcp-fs .
vars:
  lang: Go
show_usage: true
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatal(err)
			}
			if config.Model != "opus" || config.SystemPrompt != "be brief" {
				t.Errorf("Unexpected model or prompt: %q %q", config.Model, config.SystemPrompt)
			}
			if config.StreamFormat != types.StreamFormat_StreamJSON {
				t.Errorf("Expected stream-json, got %q", config.StreamFormat)
			}
			if config.TimeoutSecs == nil || *config.TimeoutSecs != 60 {
				t.Errorf("Expected timeout 60, got %v", config.TimeoutSecs)
			}
			if !reflect.DeepEqual(config.AllowedTools, []string{"bash:ls"}) {
				t.Errorf("Unexpected allowed tools: %v", config.AllowedTools)
			}
			if !reflect.DeepEqual(config.MCPServers, []string{"fs=mcp-fs ."}) {
				t.Errorf("Unexpected mcp servers: %v", config.MCPServers)
			}
			if config.Vars["lang"] != "Go" || !config.ShowUsage {
				t.Errorf("Unexpected vars or show usage: %v %v", config.Vars, config.ShowUsage)
			}
		})
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(config, &Config{}) {
		t.Errorf("Expected empty config, got %+v", config)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := LoadConfig(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("Expected error for malformed json")
	}
	if _, err := LoadConfig(writeFile(t, "bad.yaml", "stream_format: xml\n")); err == nil {
		t.Error("Expected error for unknown stream format")
	}
}

func TestApplyConfigPrecedence(t *testing.T) {
	timeout := 60
	maxTokens := 100
	config := &Config{
		Config: types.Config{
			Binary:       "claude-dev",
			Model:        "opus",
			SystemPrompt: "from config",
			StreamFormat: types.StreamFormat_JSON,
			TimeoutSecs:  &timeout,
			MaxTokens:    &maxTokens,
			AllowedTools: []string{"bash:ls"},
			Env:          []string{"A=1"},
			Verbose:      true,
		},
		MCPServers: []string{"fs=mcp-fs"},
		Vars:       map[string]string{"lang": "Go"},
		ShowUsage:  true,
	}

	tests := []struct {
		name     string
		flags    QueryOptions
		expected QueryOptions
	}{
		{
			name:  "config fills unset flags",
			flags: QueryOptions{},
			expected: QueryOptions{
				Binary:       "claude-dev",
				Model:        "opus",
				SystemPrompt: "from config",
				Format:       "json",
				Timeout:      60,
				MaxTokens:    100,
				AllowedTools: []string{"bash:ls"},
				Env:          []string{"A=1"},
				Vars:         []string{"lang=Go"},
				MCPServers:   []string{"fs=mcp-fs"},
				ShowUsage:    true,
				Verbose:      true,
			},
		},
		{
			name: "flags win",
			flags: QueryOptions{
				Model:        "haiku",
				SystemPrompt: "from flag",
				Format:       "text",
				Timeout:      5,
				AllowedTools: []string{"*"},
				Env:          []string{"A=2"},
				Vars:         []string{"lang=Rust"},
				MCPServers:   []string{"git=mcp-git"},
			},
			expected: QueryOptions{
				Binary:       "claude-dev",
				Model:        "haiku",
				SystemPrompt: "from flag",
				Format:       "text",
				Timeout:      5,
				MaxTokens:    100,
				AllowedTools: []string{"bash:ls", "*"},
				Env:          []string{"A=1", "A=2"},
				Vars:         []string{"lang=Go", "lang=Rust"},
				MCPServers:   []string{"git=mcp-git"},
				ShowUsage:    true,
				Verbose:      true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.flags
			if err := ApplyConfig(config, &opts); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(opts, tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, opts)
			}
		})
	}
}

func TestApplyConfigNil(t *testing.T) {
	opts := QueryOptions{Model: "opus"}
	if err := ApplyConfig(nil, &opts); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts, QueryOptions{Model: "opus"}) {
		t.Errorf("Expected options unchanged, got %+v", opts)
	}
}

func TestToConfig(t *testing.T) {
	promptFile := writeFile(t, "prompt.md", "You are a poet.")
	opts := QueryOptions{
		Model:        "opus",
		SystemPrompt: promptFile,
		Format:       "stream-json",
		AllowedTools: []string{"mcp__fs__read_file", "bash:ls"},
		MaxTokens:    10,
		Timeout:      5,
		Dir:          "/tmp",
		Env:          []string{"A=1"},
	}
	cfg, err := opts.ToConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Binary != types.DefaultBinary {
		t.Errorf("Expected default binary, got %q", cfg.Binary)
	}
	if cfg.SystemPrompt != "You are a poet." {
		t.Errorf("Expected prompt read from file, got %q", cfg.SystemPrompt)
	}
	if cfg.StreamFormat != types.StreamFormat_StreamJSON {
		t.Errorf("Expected stream-json, got %q", cfg.StreamFormat)
	}
	if !reflect.DeepEqual(cfg.AllowedTools, []string{"mcp__fs__read_file", "bash:ls"}) {
		t.Errorf("Unexpected allowed tools: %v", cfg.AllowedTools)
	}
	if cfg.TimeoutSeconds() != 5 || cfg.MaxTokens == nil || *cfg.MaxTokens != 10 {
		t.Errorf("Unexpected timeout or max tokens: %d %v", cfg.TimeoutSeconds(), cfg.MaxTokens)
	}
	if cfg.Dir != "/tmp" || !reflect.DeepEqual(cfg.Env, []string{"A=1"}) {
		t.Errorf("Unexpected dir or env: %q %v", cfg.Dir, cfg.Env)
	}
}

func TestToConfigErrors(t *testing.T) {
	var inputErr *types.InvalidInputError
	if _, err := (&QueryOptions{AllowedTools: []string{"mcp__fs"}}).ToConfig(); !errors.As(err, &inputErr) {
		t.Errorf("Expected InvalidInputError for malformed permission, got %v", err)
	}

	var cfgErr *types.ConfigError
	if _, err := (&QueryOptions{Format: "xml"}).ToConfig(); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for unknown format, got %v", err)
	}
	if _, err := (&QueryOptions{Timeout: -1}).ToConfig(); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for negative timeout, got %v", err)
	}
	if _, err := (&QueryOptions{Env: []string{"A"}}).ToConfig(); !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigError for malformed env, got %v", err)
	}
}
