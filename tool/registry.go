package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/event"
)

// Entry is a registered tool: its definition, handler, and policy flag.
type Entry struct {
	Tool    ai.Tool
	Handler Handler
	// RequiresApproval forces a human decision before every call.
	RequiresApproval bool
	// Source names where the tool came from, e.g. "builtin" or an MCP server.
	Source string
}

// Name returns the tool name.
func (e Entry) Name() string { return e.Tool.Name }

// RegisterOption adjusts an Entry at registration time.
type RegisterOption func(*Entry)

// WithApproval marks the tool as requiring user approval before each call.
func WithApproval() RegisterOption {
	return func(e *Entry) { e.RequiresApproval = true }
}

// WithSource records where the tool was registered from.
func WithSource(source string) RegisterOption {
	return func(e *Entry) { e.Source = source }
}

// Registry manages registered tools and their handlers.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Entry
	changes event.Signal[[]string]
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Entry),
	}
}

// Register adds a tool with its handler to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(tool ai.Tool, handler Handler, opts ...RegisterOption) error {
	if tool.Name == "" {
		return fmt.Errorf("tool: name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool: %s: handler is required", tool.Name)
	}
	if len(tool.Parameters) == 0 {
		tool.Parameters = EmptySchema
	}

	entry := Entry{Tool: tool, Handler: handler, Source: "builtin"}
	for _, opt := range opts {
		opt(&entry)
	}

	r.mu.Lock()
	if _, exists := r.tools[tool.Name]; exists {
		r.mu.Unlock()
		return &ErrToolAlreadyRegistered{Name: tool.Name}
	}
	r.tools[tool.Name] = entry
	names := r.sortedNamesLocked()
	r.mu.Unlock()

	r.changes.Publish(names)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tool ai.Tool, handler Handler, opts ...RegisterOption) {
	if err := r.Register(tool, handler, opts...); err != nil {
		panic(err)
	}
}

// Unregister removes a tool from the registry.
// It is a no-op if the tool is not registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	if _, ok := r.tools[name]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.tools, name)
	names := r.sortedNamesLocked()
	r.mu.Unlock()

	r.changes.Publish(names)
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	return e, ok
}

// List returns a snapshot of every entry, ordered by name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.tools))
	for _, e := range r.tools {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Tool.Name < entries[j].Tool.Name })
	return entries
}

// Tools returns tool definitions ordered by name. When names is non-nil only
// the listed tools are returned.
func (r *Registry) Tools(names []string) []ai.Tool {
	var tools []ai.Tool
	for _, e := range r.List() {
		if names != nil && !slices.Contains(names, e.Tool.Name) {
			continue
		}
		tools = append(tools, e.Tool)
	}
	return tools
}

// Names returns the names of all registered tools, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Changes subscribes to registry changes. Each value is the full sorted
// list of tool names after the change.
func (r *Registry) Changes() (<-chan []string, func()) {
	return r.changes.Subscribe()
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the handler for a tool call and returns a ToolResult.
// If the tool is not found, returns ErrToolNotFound.
// If the handler returns an error or panics, the error text becomes the
// result content with IsError set, so the model can react to it.
func (r *Registry) Execute(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	entry, ok := r.Lookup(call.Name)
	if !ok {
		return ai.ToolResult{}, &ErrToolNotFound{Name: call.Name}
	}
	return Run(ctx, entry, call), nil
}

// Run invokes entry's handler for call, converting errors and panics into
// an error result.
func Run(ctx context.Context, entry Entry, call ai.ToolCall) (result ai.ToolResult) {
	defer func() {
		if p := recover(); p != nil {
			err := &ErrToolExecution{Name: call.Name, Err: fmt.Errorf("panic: %v", p)}
			result = ai.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
		}
	}()

	content, err := entry.Handler(ctx, call)
	if err != nil {
		return ai.ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}
	return ai.ToolResult{
		ToolCallID: call.ID,
		Content:    content,
	}
}

// Registration holds a tool and its handler for fluent registration.
type Registration struct {
	Tool     ai.Tool
	Handler  Handler
	Approval bool
}

// RequireApproval returns a copy of the registration marked as requiring approval.
func (g Registration) RequireApproval() Registration {
	g.Approval = true
	return g
}

// Func creates a Registration with automatic schema generation from the typed handler.
// Panics if schema generation fails.
func Func[T any](name, description string, fn TypedHandler[T]) Registration {
	return Registration{
		Tool: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  MustSchemaFor[T](),
		},
		Handler: typed(name, fn),
	}
}

// WithHandler creates a Registration from a Handler and schema.
func WithHandler(name, description string, schema json.RawMessage, h Handler) Registration {
	return Registration{
		Tool: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
		Handler: h,
	}
}

// Add registers one or more tools to the registry.
// Panics if any tool is already registered.
// Returns the registry for fluent chaining.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		var opts []RegisterOption
		if reg.Approval {
			opts = append(opts, WithApproval())
		}
		r.MustRegister(reg.Tool, reg.Handler, opts...)
	}
	return r
}
