package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/tool"
)

// ServerOption configures a server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name            string
	version         string
	includeApproval bool
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) { c.name = name }
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) { c.version = version }
}

// WithApprovalTools also exposes tools that require approval. They are
// left out by default since an MCP client cannot answer the gate.
func WithApprovalTools() ServerOption {
	return func(c *serverConfig) { c.includeApproval = true }
}

// NewServer creates an MCP server exposing the tools in registry.
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{name: "cellmate-tools", version: "1.0.0"}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(cfg.name, cfg.version, server.WithToolCapabilities(true))
	for _, entry := range registry.List() {
		if entry.RequiresApproval && !cfg.includeApproval {
			continue
		}
		s.AddTool(ToMCPTool(entry.Tool), serveEntry(entry))
	}
	return s
}

func serveEntry(entry tool.Entry) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
			}
			args = string(data)
		}
		r := tool.Run(ctx, entry, ai.ToolCall{Name: entry.Name(), Arguments: args})
		if r.IsError {
			return mcp.NewToolResultError(r.Content), nil
		}
		return mcp.NewToolResultText(r.Content), nil
	}
}

// ServeStdio serves registry over stdin and stdout until the input closes.
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(registry, opts...))
}
