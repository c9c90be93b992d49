package run

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xhd2015/clau/internal/ioread"
	"github.com/xhd2015/clau/types"
	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// Config represents the configuration structure that can be loaded from a file
type Config struct {
	types.Config `yaml:",inline"` // Embed the base config

	// MCPServers are NAME=COMMAND entries, same as --mcp
	MCPServers []string          `json:"mcp_servers,omitempty" yaml:"mcp_servers,omitempty"`
	Vars       map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	ShowUsage  bool              `json:"show_usage,omitempty" yaml:"show_usage,omitempty"`
	Record     string            `json:"record,omitempty" yaml:"record,omitempty"`
}

// LoadConfig loads configuration from a JSON or YAML file,
// chosen by extension
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		return &Config{}, nil
	}

	// Handle relative paths
	if !filepath.IsAbs(configFile) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %v", err)
		}
		configFile = filepath.Join(cwd, configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %v", configFile, err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &config)
	default:
		err = json.Unmarshal(content, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %v", configFile, err)
	}
	return &config, nil
}

// ApplyConfig applies configuration values to opts, giving precedence to command line arguments
func ApplyConfig(config *Config, opts *QueryOptions) error {
	if config == nil {
		return nil
	}

	if opts.Binary == "" && config.Binary != "" {
		opts.Binary = config.Binary
	}
	if opts.Model == "" && config.Model != "" {
		opts.Model = config.Model
	}
	if opts.SystemPrompt == "" && config.SystemPrompt != "" {
		opts.SystemPrompt = config.SystemPrompt
	}
	if opts.Format == "" && config.StreamFormat != "" {
		opts.Format = string(config.StreamFormat)
	}
	if opts.MCPConfig == "" && config.MCPConfigPath != "" {
		opts.MCPConfig = config.MCPConfigPath
	}
	if opts.MaxTokens == 0 && config.MaxTokens != nil {
		opts.MaxTokens = *config.MaxTokens
	}
	if opts.Timeout == 0 && config.TimeoutSecs != nil {
		opts.Timeout = *config.TimeoutSecs
	}
	if opts.Dir == "" && config.Dir != "" {
		opts.Dir = config.Dir
	}
	if opts.Record == "" && config.Record != "" {
		opts.Record = config.Record
	}

	// flags come later so that they win on duplicate keys
	opts.AllowedTools = append(append([]string(nil), config.AllowedTools...), opts.AllowedTools...)
	opts.Env = append(append([]string(nil), config.Env...), opts.Env...)
	if len(config.Vars) > 0 {
		vars := make([]string, 0, len(config.Vars)+len(opts.Vars))
		for k, v := range config.Vars {
			vars = append(vars, k+"="+v)
		}
		opts.Vars = append(vars, opts.Vars...)
	}

	if len(opts.MCPServers) == 0 && len(config.MCPServers) > 0 {
		opts.MCPServers = config.MCPServers
	}
	if !opts.ShowUsage && config.ShowUsage {
		opts.ShowUsage = true
	}
	if !opts.Verbose && config.Verbose {
		opts.Verbose = true
	}
	return nil
}

// ToConfig converts the resolved options into a client configuration
func (o *QueryOptions) ToConfig() (types.Config, error) {
	var opts []types.ConfigOption
	if o.Binary != "" {
		opts = append(opts, types.WithBinary(o.Binary))
	}
	if o.Model != "" {
		opts = append(opts, types.WithModel(o.Model))
	}
	if o.SystemPrompt != "" {
		prompt, err := ioread.ReadOrContent(o.SystemPrompt)
		if err != nil {
			return types.Config{}, fmt.Errorf("read system prompt: %w", err)
		}
		opts = append(opts, types.WithSystemPrompt(prompt))
	}
	if o.Format != "" {
		format, err := types.ParseStreamFormat(o.Format)
		if err != nil {
			return types.Config{}, err
		}
		opts = append(opts, types.WithStreamFormat(format))
	}
	if o.MCPConfig != "" {
		opts = append(opts, types.WithMCPConfig(o.MCPConfig))
	}
	for _, tool := range o.AllowedTools {
		perm, err := types.ParseToolPermission(tool)
		if err != nil {
			return types.Config{}, err
		}
		opts = append(opts, types.WithToolPermissions(perm))
	}
	if o.MaxTokens != 0 {
		opts = append(opts, types.WithMaxTokens(o.MaxTokens))
	}
	if o.Timeout != 0 {
		opts = append(opts, types.WithTimeoutSecs(o.Timeout))
	}
	if o.Dir != "" {
		opts = append(opts, types.WithDir(o.Dir))
	}
	if len(o.Env) > 0 {
		opts = append(opts, types.WithEnv(o.Env...))
	}
	opts = append(opts, types.WithVerbose(o.Verbose))

	cfg := types.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
