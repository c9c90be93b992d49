package cli

import (
	"strconv"

	"github.com/xhd2015/clau/types"
)

// BuildArgs builds the argument vector for one invocation:
//
//	-p [--output-format json|stream-json] [--verbose] [--system-prompt s]
//	   [--model m] [--mcp-config p] (--allowedTools t)* [--max-tokens n] query
//
// stream-json requires --verbose, so it is always added for that format.
func BuildArgs(cfg *types.Config, query string) []string {
	args := []string{"-p"}

	format := cfg.StreamFormat.OrDefault()
	switch format {
	case types.StreamFormat_JSON, types.StreamFormat_StreamJSON:
		args = append(args, "--output-format", string(format))
	}
	if format == types.StreamFormat_StreamJSON || cfg.Verbose {
		args = append(args, "--verbose")
	}

	if cfg.SystemPrompt != "" {
		args = append(args, "--system-prompt", cfg.SystemPrompt)
	}
	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}
	if cfg.MCPConfigPath != "" {
		args = append(args, "--mcp-config", cfg.MCPConfigPath)
	}
	for _, tool := range cfg.AllowedTools {
		args = append(args, "--allowedTools", tool)
	}
	if cfg.MaxTokens != nil {
		args = append(args, "--max-tokens", strconv.Itoa(*cfg.MaxTokens))
	}

	return append(args, query)
}
