package run

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xhd2015/clau/mcp"
	"github.com/xhd2015/less-gen/flags"
)

const helpMCPTools = `mcp-tools - List the tools of an MCP stdio server as --allow permissions

Usage: clau mcp-tools [OPTIONS --] <command> [args...]

Options:
  --name NAME            server name used in permissions(default: the command name)
  --env KEY=VALUE        extra environment of the server
  --timeout SECS         timeout of the discovery(default: 30)
  -h,--help              show this help message

Options must be separated from the command by --.

Examples:
  clau mcp-tools npx -y @modelcontextprotocol/server-filesystem .
  clau mcp-tools --name fs -- npx -y @modelcontextprotocol/server-filesystem .
`

func handleMCPTools(args []string, runOpts Options) error {
	var name string
	var envs []string
	var timeout int = 30

	command := args
	for i, arg := range args {
		if arg == "--" {
			rest, err := flags.String("--name", &name).
				StringSlice("--env", &envs).
				Int("--timeout", &timeout).
				Help("-h,--help", helpMCPTools).
				Parse(args[:i])
			if err != nil {
				return err
			}
			if len(rest) > 0 {
				return fmt.Errorf("unexpected arguments before --: %v", rest)
			}
			command = args[i+1:]
			break
		}
	}
	if len(command) == 0 {
		return fmt.Errorf("requires command, try `clau mcp-tools --help`")
	}
	if len(command) == 1 && (command[0] == "-h" || command[0] == "--help") {
		fmt.Fprint(runOpts.Stdout, helpMCPTools)
		return nil
	}
	if timeout <= 0 {
		return fmt.Errorf("invalid --timeout: %d, must be positive", timeout)
	}
	if name == "" {
		name = serverName(command[0])
	}

	server := mcp.NewServer(name, command[0], command[1:]...)
	for _, env := range envs {
		k, v, ok := splitEnv(env)
		if !ok {
			return fmt.Errorf("invalid --env %q, expect KEY=VALUE", env)
		}
		server = server.WithEnv(k, v)
	}
	if err := (mcp.Config{Servers: []mcp.Server{server}}).Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()
	tools, err := mcp.ListTools(ctx, server)
	if err != nil {
		return err
	}
	for _, tool := range tools {
		fmt.Fprintf(runOpts.Stdout, "%s\t%s\n", tool.Permission().CLIFormat(), tool.Description)
	}
	return nil
}

// serverName derives a permission-safe name from the command path
func serverName(command string) string {
	name := strings.TrimSuffix(filepath.Base(command), filepath.Ext(command))
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	if name == "" || name == "." {
		return "server"
	}
	return name
}

func splitEnv(env string) (string, string, bool) {
	k, v, ok := strings.Cut(env, "=")
	if !ok || k == "" {
		return "", "", false
	}
	return k, v, true
}
