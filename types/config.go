package types

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultBinary      = "claude"
	DefaultTimeoutSecs = 30
)

// StreamFormat selects the output format of the binary
type StreamFormat string

const (
	StreamFormat_Text       StreamFormat = "text"
	StreamFormat_JSON       StreamFormat = "json"
	StreamFormat_StreamJSON StreamFormat = "stream-json"
)

// ParseStreamFormat parses a format name, "" means text
func ParseStreamFormat(s string) (StreamFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return StreamFormat_Text, nil
	case "json":
		return StreamFormat_JSON, nil
	case "stream-json", "stream_json", "streamjson":
		return StreamFormat_StreamJSON, nil
	}
	return "", &ConfigError{Msg: fmt.Sprintf("unknown stream format: %q, expect text, json or stream-json", s)}
}

// OrDefault maps the zero value to text
func (f StreamFormat) OrDefault() StreamFormat {
	if f == "" {
		return StreamFormat_Text
	}
	return f
}

func (f StreamFormat) String() string {
	return string(f.OrDefault())
}

func (f StreamFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *StreamFormat) UnmarshalText(data []byte) error {
	parsed, err := ParseStreamFormat(string(data))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Config holds everything needed to invoke the binary.
// A Client keeps its own copy and never mutates it.
type Config struct {
	Binary        string       `json:"binary,omitempty" yaml:"binary,omitempty"`
	SystemPrompt  string       `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Model         string       `json:"model,omitempty" yaml:"model,omitempty"`
	MCPConfigPath string       `json:"mcp_config_path,omitempty" yaml:"mcp_config_path,omitempty"`
	AllowedTools  []string     `json:"allowed_tools,omitempty" yaml:"allowed_tools,omitempty"`
	StreamFormat  StreamFormat `json:"stream_format,omitempty" yaml:"stream_format,omitempty"`

	// NonInteractive is informational, -p is always passed
	NonInteractive bool `json:"non_interactive" yaml:"non_interactive"`
	Verbose        bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	MaxTokens      *int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// TimeoutSecs bounds one invocation, nil means DefaultTimeoutSecs
	TimeoutSecs *int `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty"`

	// working directory and extra KEY=VALUE environment of the child
	Dir string   `json:"dir,omitempty" yaml:"dir,omitempty"`
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`

	Logger Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	timeout := DefaultTimeoutSecs
	return Config{
		Binary:         DefaultBinary,
		StreamFormat:   StreamFormat_Text,
		NonInteractive: true,
		TimeoutSecs:    &timeout,
	}
}

// NewConfig applies opts on top of DefaultConfig
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Clone returns a deep copy
func (c Config) Clone() Config {
	clone := c
	if c.AllowedTools != nil {
		clone.AllowedTools = append([]string(nil), c.AllowedTools...)
	}
	if c.Env != nil {
		clone.Env = append([]string(nil), c.Env...)
	}
	if c.MaxTokens != nil {
		v := *c.MaxTokens
		clone.MaxTokens = &v
	}
	if c.TimeoutSecs != nil {
		v := *c.TimeoutSecs
		clone.TimeoutSecs = &v
	}
	return clone
}

func (c Config) BinaryOrDefault() string {
	if c.Binary == "" {
		return DefaultBinary
	}
	return c.Binary
}

func (c Config) TimeoutSeconds() int {
	if c.TimeoutSecs == nil {
		return DefaultTimeoutSecs
	}
	return *c.TimeoutSecs
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds()) * time.Second
}

// Validate checks values the binary would reject anyway
func (c Config) Validate() error {
	if _, err := ParseStreamFormat(string(c.StreamFormat)); err != nil {
		return err
	}
	if c.TimeoutSecs != nil && *c.TimeoutSecs <= 0 {
		return &ConfigError{Msg: fmt.Sprintf("invalid timeout: %ds, must be positive", *c.TimeoutSecs)}
	}
	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return &ConfigError{Msg: fmt.Sprintf("invalid max tokens: %d, must be positive", *c.MaxTokens)}
	}
	for _, env := range c.Env {
		if !strings.Contains(env, "=") {
			return &ConfigError{Msg: fmt.Sprintf("invalid env: %q, expect KEY=VALUE", env)}
		}
	}
	return nil
}
