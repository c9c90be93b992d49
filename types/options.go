package types

// ConfigOption represents a functional option for Config
type ConfigOption func(*Config)

// WithBinary sets the name or path of the binary, default: claude
func WithBinary(binary string) ConfigOption {
	return func(cfg *Config) {
		cfg.Binary = binary
	}
}

// WithSystemPrompt sets the system prompt
func WithSystemPrompt(prompt string) ConfigOption {
	return func(cfg *Config) {
		cfg.SystemPrompt = prompt
	}
}

// WithModel sets the model name passed to --model
func WithModel(model string) ConfigOption {
	return func(cfg *Config) {
		cfg.Model = model
	}
}

// WithMCPConfig sets the path passed to --mcp-config
func WithMCPConfig(path string) ConfigOption {
	return func(cfg *Config) {
		cfg.MCPConfigPath = path
	}
}

// WithAllowedTools appends tool permission strings, see ToolPermission.CLIFormat
func WithAllowedTools(tools ...string) ConfigOption {
	return func(cfg *Config) {
		cfg.AllowedTools = append(cfg.AllowedTools, tools...)
	}
}

// WithToolPermissions appends tool permissions
func WithToolPermissions(perms ...ToolPermission) ConfigOption {
	return func(cfg *Config) {
		for _, perm := range perms {
			cfg.AllowedTools = append(cfg.AllowedTools, perm.CLIFormat())
		}
	}
}

func WithStreamFormat(format StreamFormat) ConfigOption {
	return func(cfg *Config) {
		cfg.StreamFormat = format
	}
}

func WithNonInteractive(nonInteractive bool) ConfigOption {
	return func(cfg *Config) {
		cfg.NonInteractive = nonInteractive
	}
}

func WithVerbose(verbose bool) ConfigOption {
	return func(cfg *Config) {
		cfg.Verbose = verbose
	}
}

func WithMaxTokens(maxTokens int) ConfigOption {
	return func(cfg *Config) {
		cfg.MaxTokens = &maxTokens
	}
}

// WithTimeoutSecs bounds each invocation of the binary
func WithTimeoutSecs(secs int) ConfigOption {
	return func(cfg *Config) {
		cfg.TimeoutSecs = &secs
	}
}

// WithDir sets the working directory of the child process
func WithDir(dir string) ConfigOption {
	return func(cfg *Config) {
		cfg.Dir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the child environment
func WithEnv(envs ...string) ConfigOption {
	return func(cfg *Config) {
		cfg.Env = append(cfg.Env, envs...)
	}
}

func WithLogger(logger Logger) ConfigOption {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}
