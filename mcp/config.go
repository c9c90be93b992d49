// Package mcp describes the MCP servers handed to the binary with
// --mcp-config, and discovers the tools they expose.
package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xhd2015/clau/types"
)

// Server is a stdio MCP server
type Server struct {
	Name    string            `json:"-"`
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

func NewServer(name string, command string, args ...string) Server {
	return Server{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// WithEnv returns a copy of s with key set in its environment
func (s Server) WithEnv(key string, value string) Server {
	env := make(map[string]string, len(s.Env)+1)
	for k, v := range s.Env {
		env[k] = v
	}
	env[key] = value
	s.Env = env
	return s
}

// Environ returns Env as sorted KEY=VALUE pairs
func (s Server) Environ() []string {
	env := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Permission allows one tool of this server, "*" allows all
func (s Server) Permission(tool string) types.ToolPermission {
	return types.MCPPermission(s.Name, tool)
}

// Config is the content of an --mcp-config file:
//
//	{"mcpServers": {"<name>": {"command": "...", "args": [...], "env": {...}}}}
type Config struct {
	Servers []Server
}

type fileConfig struct {
	MCPServers map[string]Server `json:"mcpServers"`
}

// Validate checks that server names are usable in tool permissions
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name == "" {
			return &types.ConfigError{Msg: fmt.Sprintf("mcp server %q: name is required", s.Command)}
		}
		if strings.Contains(s.Name, "__") {
			return &types.ConfigError{Msg: fmt.Sprintf("mcp server %q: name must not contain __", s.Name)}
		}
		if seen[s.Name] {
			return &types.ConfigError{Msg: fmt.Sprintf("duplicate mcp server: %s", s.Name)}
		}
		seen[s.Name] = true
		if s.Command == "" {
			return &types.ConfigError{Msg: fmt.Sprintf("mcp server %s: command is required", s.Name)}
		}
	}
	return nil
}

// Server finds a server by name
func (c Config) Server(name string) (Server, bool) {
	for _, s := range c.Servers {
		if s.Name == name {
			return s, true
		}
	}
	return Server{}, false
}

// AllowAll returns a wildcard permission for every server
func (c Config) AllowAll() []types.ToolPermission {
	perms := make([]types.ToolPermission, 0, len(c.Servers))
	for _, s := range c.Servers {
		perms = append(perms, s.Permission("*"))
	}
	return perms
}

func (c Config) MarshalJSON() ([]byte, error) {
	file := fileConfig{MCPServers: make(map[string]Server, len(c.Servers))}
	for _, s := range c.Servers {
		if s.Args == nil {
			s.Args = []string{}
		}
		file.MCPServers[s.Name] = s
	}
	return json.Marshal(file)
}

// UnmarshalJSON reads the file format, servers are sorted by name
func (c *Config) UnmarshalJSON(data []byte) error {
	var file fileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	servers := make([]Server, 0, len(file.MCPServers))
	for name, s := range file.MCPServers {
		s.Name = name
		servers = append(servers, s)
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Name < servers[j].Name
	})
	c.Servers = servers
	return nil
}

// WriteFile validates c and writes it to path
func (c Config) WriteFile(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &types.IOError{Op: "write mcp config", Err: err}
	}
	return nil
}

// WriteTemp writes c to a temporary file, the returned func removes it
func (c Config) WriteTemp() (string, func(), error) {
	f, err := os.CreateTemp("", "clau-mcp-*.json")
	if err != nil {
		return "", nil, &types.IOError{Op: "create mcp config", Err: err}
	}
	path := f.Name()
	f.Close()
	cleanup := func() {
		os.Remove(path)
	}
	if err := c.WriteFile(path); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// LoadFile reads an --mcp-config file
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &types.IOError{Op: "read mcp config", Err: err}
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, &types.SerializationError{Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return c, nil
}
