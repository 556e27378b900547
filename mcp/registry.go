package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/tool"
)

const clientName = "cellmate"

// RemoteRegistry caches the tool list of one MCP server and proxies calls
// to it. It is safe for concurrent use.
type RemoteRegistry struct {
	client *client.Client
	name   string
	prefix string
	log    *slog.Logger

	mu    sync.RWMutex
	tools map[string]ai.Tool // keyed by remote name

	registered []string
	target     *tool.Registry
	regOpts    []tool.RegisterOption
}

// RemoteOption configures a RemoteRegistry.
type RemoteOption func(*RemoteRegistry)

// WithPrefix namespaces the remote tools when they are registered locally,
// e.g. "nb_" turns "read_cell" into "nb_read_cell".
func WithPrefix(prefix string) RemoteOption {
	return func(r *RemoteRegistry) { r.prefix = prefix }
}

// WithServerName labels the registry in logs and in each entry's Source.
func WithServerName(name string) RemoteOption {
	return func(r *RemoteRegistry) { r.name = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RemoteOption {
	return func(r *RemoteRegistry) { r.log = l }
}

// NewRemoteRegistry starts command as a stdio MCP server and connects to it.
func NewRemoteRegistry(ctx context.Context, command string, env []string, args []string, opts ...RemoteOption) (*RemoteRegistry, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: start %s: %w", command, err)
	}
	return NewRemoteRegistryFromClient(ctx, c, append([]RemoteOption{WithServerName(command)}, opts...)...)
}

// NewRemoteRegistrySSE connects to an MCP server over SSE.
func NewRemoteRegistrySSE(ctx context.Context, baseURL string, opts ...RemoteOption) (*RemoteRegistry, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect %s: %w", baseURL, err)
	}
	return NewRemoteRegistryFromClient(ctx, c, append([]RemoteOption{WithServerName(baseURL)}, opts...)...)
}

// NewRemoteRegistryFromClient initializes an existing client and fetches
// its tools. The client is closed if initialization fails.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client, opts ...RemoteOption) (*RemoteRegistry, error) {
	r := &RemoteRegistry{
		client: c,
		name:   "mcp",
		log:    slog.Default(),
		tools:  make(map[string]ai.Tool),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp: start client: %w", err)
	}
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: clientName, Version: "1.0.0"},
		},
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	if err := r.Refresh(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}
	return r, nil
}

// Close closes the connection to the server.
func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh refetches the server's tool list. Tools previously registered
// into a local registry are re-registered to match.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	tools := make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		tools[t.Name] = FromMCPTool(t)
	}

	r.mu.Lock()
	r.tools = tools
	target, regOpts := r.target, r.regOpts
	r.mu.Unlock()

	r.log.Debug("mcp tools refreshed", "server", r.name, "count", len(tools))
	if target != nil {
		_, err := r.RegisterInto(target, regOpts...)
		return err
	}
	return nil
}

// Tools returns the remote tool definitions under their local names, sorted.
func (r *RemoteRegistry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ai.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		t.Name = r.prefix + t.Name
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of remote tools.
func (r *RemoteRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute calls the remote tool named by call, under its local name.
// Transport failures become error results.
func (r *RemoteRegistry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	remote, ok := strings.CutPrefix(call.Name, r.prefix)
	if ok {
		r.mu.RLock()
		_, ok = r.tools[remote]
		r.mu.RUnlock()
	}
	if !ok {
		return ai.ToolResult{}, &tool.ErrToolNotFound{Name: call.Name}
	}

	result, err := r.client.CallTool(ctx, callRequest(remote, call))
	if err != nil {
		return ai.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}, nil
	}
	content, isErr := resultText(result)
	return ai.ToolResult{ToolCallID: call.ID, Content: content, IsError: isErr}, nil
}

// RegisterInto registers every remote tool into reg, replacing the tools
// this registry registered before. It returns the local names.
func (r *RemoteRegistry) RegisterInto(reg *tool.Registry, opts ...tool.RegisterOption) ([]string, error) {
	r.mu.Lock()
	previous := r.registered
	r.registered = nil
	r.target = reg
	r.regOpts = opts
	r.mu.Unlock()

	for _, name := range previous {
		reg.Unregister(name)
	}

	var (
		names []string
		errs  []error
	)
	opts = append([]tool.RegisterOption{tool.WithSource("mcp:" + r.name)}, opts...)
	for _, t := range r.Tools() {
		if err := reg.Register(t, r.handler(), opts...); err != nil {
			errs = append(errs, err)
			continue
		}
		names = append(names, t.Name)
	}

	r.mu.Lock()
	r.registered = names
	r.mu.Unlock()
	r.log.Info("registered mcp tools", "server", r.name, "count", len(names))
	return names, errors.Join(errs...)
}

func (r *RemoteRegistry) handler() tool.Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		result, err := r.Execute(ctx, call)
		if err != nil {
			return "", err
		}
		if result.IsError {
			return "", errors.New(result.Content)
		}
		return result.Content, nil
	}
}
