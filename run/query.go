package run

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/xhd2015/clau/cli"
	"github.com/xhd2015/clau/internal/jsondecode"
	"github.com/xhd2015/clau/internal/markdown"
	"github.com/xhd2015/clau/internal/strinterplot"
	"github.com/xhd2015/clau/internal/terminal"
	"github.com/xhd2015/clau/mcp"
	"github.com/xhd2015/clau/types"
	"github.com/xhd2015/less-gen/flags"
)

// QueryOptions holds the flags shared by query and stream
type QueryOptions struct {
	Binary       string
	Model        string
	SystemPrompt string
	Format       string
	MCPConfig    string
	MCPServers   []string
	AllowedTools []string
	MaxTokens    int
	Timeout      int
	Dir          string
	Env          []string
	Vars         []string
	Session      string

	Raw       bool
	JSON      bool
	Record    string
	ShowUsage bool
	Verbose   bool
}

func parseQueryFlags(args []string, baseCmd string) (*QueryOptions, []string, error) {
	var opts QueryOptions
	var configFile string
	args, err := flags.String("--binary", &opts.Binary).
		String("--model", &opts.Model).
		String("--system", &opts.SystemPrompt).
		String("--format", &opts.Format).
		StringSlice("--allow", &opts.AllowedTools).
		StringSlice("--mcp", &opts.MCPServers).
		String("--mcp-config", &opts.MCPConfig).
		Int("--max-tokens", &opts.MaxTokens).
		Int("--timeout", &opts.Timeout).
		String("--dir", &opts.Dir).
		StringSlice("--env", &opts.Env).
		StringSlice("--var", &opts.Vars).
		String("--session", &opts.Session).
		Bool("--raw", &opts.Raw).
		Bool("--json", &opts.JSON).
		String("--record", &opts.Record).
		Bool("--show-usage", &opts.ShowUsage).
		String("-c,--config", &configFile).
		Bool("-v,--verbose", &opts.Verbose).
		Help("-h,--help", getHelp(baseCmd)).
		Parse(args)
	if err != nil {
		return nil, nil, err
	}

	// Load and apply configuration file
	config, err := LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	if err := ApplyConfig(config, &opts); err != nil {
		return nil, nil, err
	}
	return &opts, args, nil
}

// prepared is a query ready to be sent
type prepared struct {
	client  *cli.Client
	query   string
	cleanup func()
}

func (p *prepared) builder(opts *QueryOptions) *cli.QueryBuilder {
	q := p.client.Query(p.query)
	if opts.Session != "" {
		q = q.Session(types.SessionID(opts.Session))
	}
	return q
}

func prepare(opts *QueryOptions, args []string, runOpts Options) (*prepared, error) {
	query, err := resolveQuery(args, runOpts.Stdin)
	if err != nil {
		return nil, err
	}
	if opts.MCPConfig != "" && len(opts.MCPServers) > 0 {
		return nil, fmt.Errorf("--mcp and --mcp-config cannot be specified at the same time")
	}

	cfg, err := opts.ToConfig()
	if err != nil {
		return nil, err
	}

	if len(opts.Vars) > 0 {
		vars, err := strinterplot.ParseVars(opts.Vars)
		if err != nil {
			return nil, err
		}
		query, err = strinterplot.Interplot(query, vars)
		if err != nil {
			return nil, err
		}
		if cfg.SystemPrompt != "" {
			cfg.SystemPrompt, err = strinterplot.Interplot(cfg.SystemPrompt, vars)
			if err != nil {
				return nil, err
			}
		}
	}

	cleanup := func() {}
	if len(opts.MCPServers) > 0 {
		mcpConfig, err := parseMCPServers(opts.MCPServers)
		if err != nil {
			return nil, err
		}
		path, remove, err := mcpConfig.WriteTemp()
		if err != nil {
			return nil, err
		}
		cleanup = remove
		types.WithMCPConfig(path)(&cfg)
		types.WithToolPermissions(mcpConfig.AllowAll()...)(&cfg)
	}
	if opts.Verbose {
		cfg.Logger = types.NewWriterLogger(runOpts.Stderr)
	}

	client, err := cli.NewClient(cfg, runOpts.ClientOptions...)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &prepared{client: client, query: query, cleanup: cleanup}, nil
}

// resolveQuery takes the query from args, or from stdin when
// args are empty and stdin is not a terminal
func resolveQuery(args []string, stdin io.Reader) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("unrecognized extra: %s", strings.Join(args[1:], ","))
	}
	if len(args) == 1 {
		if args[0] == "" {
			return "", &types.InvalidInputError{Msg: "query is empty"}
		}
		return args[0], nil
	}
	var data []byte
	var err error
	if stdin == os.Stdin {
		data, err = terminal.RequireReadNonTTYStdin()
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("requires query: %w", err)
	}
	query := strings.TrimSpace(string(data))
	if query == "" {
		return "", &types.InvalidInputError{Msg: "query is empty"}
	}
	return query, nil
}

// parseMCPServers parses NAME=COMMAND [ARGS...] entries
func parseMCPServers(defs []string) (mcp.Config, error) {
	var config mcp.Config
	for _, def := range defs {
		name, command, ok := strings.Cut(def, "=")
		fields := strings.Fields(command)
		if !ok || name == "" || len(fields) == 0 {
			return mcp.Config{}, fmt.Errorf("invalid --mcp %q, expect NAME=COMMAND", def)
		}
		config.Servers = append(config.Servers, mcp.NewServer(name, fields[0], fields[1:]...))
	}
	if err := config.Validate(); err != nil {
		return mcp.Config{}, err
	}
	return config, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func handleQuery(args []string, runOpts Options) error {
	opts, args, err := parseQueryFlags(args, runOpts.BaseCmd)
	if err != nil {
		return err
	}
	p, err := prepare(opts, args, runOpts)
	if err != nil {
		return err
	}
	defer p.cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	resp, err := p.builder(opts).SendFull(ctx)
	if err != nil {
		return err
	}

	out := runOpts.Stdout
	switch {
	case opts.Raw && len(resp.Raw) > 0:
		fmt.Fprintln(out, prettyJSON(resp.Raw))
	case !opts.Raw && out == os.Stdout && terminal.IsStdoutTerminal():
		if err := markdown.Print(out, resp.Content, terminal.StdoutWidth(0)); err != nil {
			return err
		}
	default:
		fmt.Fprintln(out, resp.Content)
	}
	if resp.SkippedLines > 0 {
		fmt.Fprintf(runOpts.Stderr, "skipped %d malformed lines\n", resp.SkippedLines)
	}
	if err := resp.Metadata.PermissionError(); err != nil {
		fmt.Fprintf(runOpts.Stderr, "warning: %v, grant it with --allow\n", err)
	}
	if opts.ShowUsage {
		return printResponseUsage(runOpts.Stderr, resp.Metadata, p.client.Config().Model)
	}
	return nil
}

func handleStream(args []string, runOpts Options) error {
	opts, args, err := parseQueryFlags(args, runOpts.BaseCmd)
	if err != nil {
		return err
	}
	p, err := prepare(opts, args, runOpts)
	if err != nil {
		return err
	}
	defer p.cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	stream, err := p.builder(opts).Stream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	var messages []types.Message
	for {
		msg, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		messages = append(messages, msg)
		if opts.Record != "" {
			if err := appendToRecordFile(opts.Record, msg); err != nil {
				return fmt.Errorf("failed to record message: %v", err)
			}
		}
		if opts.JSON {
			data, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(runOpts.Stdout, string(data))
			continue
		}
		printMessage(runOpts.Stdout, msg)
	}
	if opts.ShowUsage {
		return printStatsUsage(runOpts.Stderr, aggregateStats(messages))
	}
	return nil
}

// prettyJSON indents raw, numbers keep all their digits
func prettyJSON(raw []byte) string {
	v, err := jsondecode.UnmarshalSafeAny(raw)
	if err != nil {
		return string(raw)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(data)
}

const maxLimit = 256

func limitPrintLength(s string) string {
	if len(s) < maxLimit+3 {
		return s
	}
	return s[:maxLimit] + "..."
}

func printMessage(w io.Writer, msg types.Message) {
	switch msg.Type {
	case types.MessageType_Init:
		fmt.Fprintf(w, "init: session %s\n", msg.SessionID)
	case types.MessageType_User, types.MessageType_Assistant, types.MessageType_System:
		fmt.Fprintf(w, "%s: %s\n", msg.Type, msg.Content)
	case types.MessageType_Tool:
		fmt.Fprintf(w, "assistant: <tool_call tool=%q>%s</tool_call>\n", msg.Name, limitPrintLength(string(msg.Parameters)))
	case types.MessageType_ToolResult:
		fmt.Fprintf(w, "user: <tool_result tool=%q>%s</tool_result>\n", msg.ToolName, limitPrintLength(string(msg.Result)))
	case types.MessageType_Result:
		if msg.Stats != nil {
			fmt.Fprintf(w, "result: %d messages, %dms, $%s\n", msg.Stats.TotalMessages, msg.Stats.TotalDurationMs, types.NewCost(msg.Stats.TotalCostUSD).String())
		}
	}
}
