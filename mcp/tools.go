package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/xhd2015/clau/types"
)

const clientName = "clau"

// Tool is a tool exposed by an MCP server
type Tool struct {
	Server      string `json:"server"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Permission returns the --allowedTools entry for the tool
func (t Tool) Permission() types.ToolPermission {
	return types.MCPPermission(t.Server, t.Name)
}

// ListTools starts the server, asks for its tools and stops it
func ListTools(ctx context.Context, s Server) ([]Tool, error) {
	mcpClient, err := client.NewStdioMCPClient(s.Command, s.Environ(), s.Args...)
	if err != nil {
		return nil, &types.MCPError{Server: s.Name, Err: fmt.Errorf("failed to create MCP client: %w", err)}
	}
	defer mcpClient.Close()

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: types.Version,
	}
	if _, err := mcpClient.Initialize(ctx, req); err != nil {
		return nil, &types.MCPError{Server: s.Name, Err: fmt.Errorf("initialize: %w", err)}
	}

	toolsResponse, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, &types.MCPError{Server: s.Name, Err: fmt.Errorf("failed to list MCP tools: %w", err)}
	}
	tools := make([]Tool, 0, len(toolsResponse.Tools))
	for _, tool := range toolsResponse.Tools {
		tools = append(tools, Tool{
			Server:      s.Name,
			Name:        tool.Name,
			Description: tool.Description,
		})
	}
	return tools, nil
}

// ListAllTools lists the tools of every server in c, in order
func ListAllTools(ctx context.Context, c Config) ([]Tool, error) {
	var all []Tool
	for _, s := range c.Servers {
		tools, err := ListTools(ctx, s)
		if err != nil {
			return nil, err
		}
		all = append(all, tools...)
	}
	return all, nil
}
