package types

import (
	"fmt"
	"strings"
)

type PermissionKind string

const (
	PermissionKind_MCP  PermissionKind = "mcp"
	PermissionKind_Bash PermissionKind = "bash"
	PermissionKind_All  PermissionKind = "all"
)

// ToolPermission is a capability granted through --allowedTools
type ToolPermission struct {
	Kind    PermissionKind `json:"type"`
	Server  string         `json:"server,omitempty"`
	Tool    string         `json:"tool,omitempty"`
	Command string         `json:"command,omitempty"`
}

// MCPPermission allows tool of an MCP server, tool "*" allows all of them
func MCPPermission(server string, tool string) ToolPermission {
	return ToolPermission{Kind: PermissionKind_MCP, Server: server, Tool: tool}
}

// BashPermission allows a shell command
func BashPermission(command string) ToolPermission {
	return ToolPermission{Kind: PermissionKind_Bash, Command: command}
}

// AllPermission allows every tool
func AllPermission() ToolPermission {
	return ToolPermission{Kind: PermissionKind_All}
}

// CLIFormat renders the permission as accepted by --allowedTools:
//
//	mcp__<server>__<tool>
//	mcp__<server>__*
//	bash:<command>
//	*
func (p ToolPermission) CLIFormat() string {
	switch p.Kind {
	case PermissionKind_MCP:
		return "mcp__" + p.Server + "__" + p.Tool
	case PermissionKind_Bash:
		return "bash:" + p.Command
	case PermissionKind_All:
		return "*"
	}
	return ""
}

func (p ToolPermission) String() string {
	return p.CLIFormat()
}

// ParseToolPermission is the inverse of CLIFormat
func ParseToolPermission(s string) (ToolPermission, error) {
	if s == "*" {
		return AllPermission(), nil
	}
	if cmd, ok := strings.CutPrefix(s, "bash:"); ok {
		if cmd == "" {
			return ToolPermission{}, &InvalidInputError{Msg: fmt.Sprintf("empty bash command in permission %q", s)}
		}
		return BashPermission(cmd), nil
	}
	if rest, ok := strings.CutPrefix(s, "mcp__"); ok {
		server, tool, found := strings.Cut(rest, "__")
		if !found || server == "" || tool == "" {
			return ToolPermission{}, &InvalidInputError{Msg: fmt.Sprintf("malformed mcp permission %q, expect mcp__<server>__<tool>", s)}
		}
		return MCPPermission(server, tool), nil
	}
	return ToolPermission{}, &InvalidInputError{Msg: fmt.Sprintf("unrecognized tool permission %q", s)}
}
