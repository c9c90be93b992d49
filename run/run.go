// Package run implements the clau command line.
package run

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xhd2015/clau/cli"
	"github.com/xhd2015/clau/types"
)

const help = `
clau drives the claude command line assistant

Usage: clau <cmd> [OPTIONS]

Available commands:
  query <query>                   run a query and print the answer
  stream <query>                  run a query and print messages as they arrive
  view <files...>                 view messages recorded by stream --record
  serve                           start a WebSocket stream server
  mcp-tools <command> [args...]   list tool permissions of an MCP stdio server
  models                          list known models
  example                         show example configuration
  version                         version info
  help                            show help message

Options for query and stream:
  --binary PATH                   the assistant binary(default: claude)
  --model MODEL                   model name or alias: sonnet, opus, haiku
  --system PROMPT                 set the system prompt, PROMPT can also be a file
  --format FORMAT                 output format: text, json, stream-json
  --allow TOOL                    allowed tool: mcp__<server>__<tool>, bash:<command>, *
  --mcp NAME=COMMAND              start an MCP server for the query, all its tools are allowed
  --mcp-config FILE               MCP config file passed through to the binary
  --max-tokens N                  maximum tokens of the answer
  --timeout SECS                  timeout of each invocation(default: 30)
  --dir DIR                       working directory of the binary
  --env KEY=VALUE                 extra environment of the binary
  --var KEY=VALUE                 fill KEY into the query and system prompt
  --session ID                    tag messages with a session id
  --raw                           query: print the raw output
  --json                          stream: print messages as JSON lines
  --record FILE                   stream: append messages to FILE as JSON lines
  --show-usage                    show usage and cost
  -c,--config FILE                load configuration from JSON or YAML file
  -v,--verbose                    show verbose info

When no query is given, it is read from stdin.

Examples:
  clau query 'What is 2+2?'
  clau query --format json --show-usage 'Summarize README.md'
  clau stream --allow 'bash:git log' 'What changed recently?'
  git diff | clau query --model opus
  clau mcp-tools npx -y @modelcontextprotocol/server-filesystem .
`

type Options struct {
	BaseCmd string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ClientOptions are passed to every client, e.g. cli.WithExecutor
	ClientOptions []cli.ClientOption
}

func (o Options) withDefaults() Options {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

func getHelp(baseCmd string) string {
	if baseCmd == "" {
		return help
	}
	return strings.ReplaceAll(help, "clau ", baseCmd+" ")
}

func Main(args []string, opts Options) error {
	opts = opts.withDefaults()
	if len(args) == 0 {
		return fmt.Errorf("requires sub command: query, stream, serve. try `clau --help`")
	}
	cmd := args[0]
	args = args[1:]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		fmt.Fprint(opts.Stdout, strings.TrimPrefix(getHelp(opts.BaseCmd), "\n"))
		return nil
	}
	switch cmd {
	case "query":
		return handleQuery(args, opts)
	case "stream":
		return handleStream(args, opts)
	case "view":
		return handleView(args, opts)
	case "serve":
		return handleServe(args, opts)
	case "mcp-tools":
		return handleMCPTools(args, opts)
	case "models":
		for _, model := range types.GetAllModels() {
			fmt.Fprintln(opts.Stdout, model)
		}
		return nil
	case "example", "examples":
		fmt.Fprint(opts.Stdout, ExampleConfig)
		return nil
	case "version":
		fmt.Fprintln(opts.Stdout, types.Version)
		return nil
	default:
		return fmt.Errorf("unrecognized: %s, use 'clau help' to see available commands", cmd)
	}
}
