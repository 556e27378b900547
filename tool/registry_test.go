package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	ai "github.com/spetersoncode/cellmate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	Limit int    `json:"limit,omitempty"`
}

type cellArgs struct {
	Index int `json:"index"`
}

func TestRegistryAdd(t *testing.T) {
	t.Run("registers single tool with Func", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("search", "Search the notebook", func(ctx context.Context, args queryArgs) (string, error) {
				return "result: " + args.Query, nil
			}),
		)

		assert.Equal(t, 1, registry.Len())
		entry, ok := registry.Lookup("search")
		require.True(t, ok)
		assert.Equal(t, "search", entry.Name())
		assert.Equal(t, "Search the notebook", entry.Tool.Description)
		assert.False(t, entry.RequiresApproval)
		assert.Equal(t, "builtin", entry.Source)
	})

	t.Run("marks approval-gated registrations", func(t *testing.T) {
		registry := NewRegistry().Add(
			Func("run_cell", "Execute a cell", func(ctx context.Context, args cellArgs) (string, error) {
				return "ok", nil
			}).RequireApproval(),
		)

		entry, ok := registry.Lookup("run_cell")
		require.True(t, ok)
		assert.True(t, entry.RequiresApproval)
	})

	t.Run("panics on duplicate names", func(t *testing.T) {
		reg := Func("dup", "Duplicate", func(ctx context.Context, args cellArgs) (string, error) {
			return "", nil
		})

		assert.Panics(t, func() { NewRegistry().Add(reg, reg) })
	})
}

func TestRegistryRegister(t *testing.T) {
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) { return "ok", nil }

	t.Run("rejects duplicates with a typed error", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(ai.Tool{Name: "a"}, handler))

		err := registry.Register(ai.Tool{Name: "a"}, handler)
		var dup *ErrToolAlreadyRegistered
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "a", dup.Name)
	})

	t.Run("requires a name and handler", func(t *testing.T) {
		registry := NewRegistry()
		assert.Error(t, registry.Register(ai.Tool{}, handler))
		assert.Error(t, registry.Register(ai.Tool{Name: "a"}, nil))
	})

	t.Run("fills in an empty schema", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(ai.Tool{Name: "a"}, handler))

		entry, _ := registry.Lookup("a")
		assert.JSONEq(t, `{"type":"object","properties":{}}`, string(entry.Tool.Parameters))
	})

	t.Run("applies options", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(ai.Tool{Name: "a"}, handler, WithApproval(), WithSource("mcp:fs")))

		entry, _ := registry.Lookup("a")
		assert.True(t, entry.RequiresApproval)
		assert.Equal(t, "mcp:fs", entry.Source)
	})
}

func TestRegistryListing(t *testing.T) {
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) { return "", nil }
	registry := NewRegistry()
	registry.MustRegister(ai.Tool{Name: "write_cell"}, handler)
	registry.MustRegister(ai.Tool{Name: "read_cell"}, handler)
	registry.MustRegister(ai.Tool{Name: "run_cell"}, handler)

	assert.Equal(t, []string{"read_cell", "run_cell", "write_cell"}, registry.Names())

	entries := registry.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "read_cell", entries[0].Name())

	assert.Len(t, registry.Tools(nil), 3)
	selected := registry.Tools([]string{"run_cell", "missing"})
	require.Len(t, selected, 1)
	assert.Equal(t, "run_cell", selected[0].Name)
	assert.Empty(t, registry.Tools([]string{}))

	_, ok := registry.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryChanges(t *testing.T) {
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) { return "", nil }
	registry := NewRegistry()
	changes, cancel := registry.Changes()
	defer cancel()

	registry.MustRegister(ai.Tool{Name: "a"}, handler)
	select {
	case names := <-changes:
		assert.Equal(t, []string{"a"}, names)
	case <-time.After(time.Second):
		t.Fatal("no change notification after register")
	}

	registry.Unregister("a")
	select {
	case names := <-changes:
		assert.Empty(t, names)
	case <-time.After(time.Second):
		t.Fatal("no change notification after unregister")
	}

	registry.Unregister("a")
	select {
	case names := <-changes:
		t.Fatalf("unexpected notification %v", names)
	default:
	}
}

func TestRegistryExecute(t *testing.T) {
	registry := NewRegistry().Add(
		Func("greet", "Greet someone", func(ctx context.Context, args struct {
			Name string `json:"name"`
		}) (string, error) {
			return "Hello, " + args.Name + "!", nil
		}),
		WithHandler("fail", "Always fails", nil, func(ctx context.Context, call ai.ToolCall) (string, error) {
			return "", errors.New("kernel is dead")
		}),
		WithHandler("explode", "Panics", nil, func(ctx context.Context, call ai.ToolCall) (string, error) {
			panic("bad cell index")
		}),
	)

	t.Run("returns handler output", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{
			ID:        "call_123",
			Name:      "greet",
			Arguments: `{"name": "World"}`,
		})

		require.NoError(t, err)
		assert.Equal(t, "call_123", result.ToolCallID)
		assert.Equal(t, "Hello, World!", result.Content)
		assert.False(t, result.IsError)
	})

	t.Run("handler error becomes an error result", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{ID: "c2", Name: "fail"})

		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "kernel is dead", result.Content)
	})

	t.Run("panic becomes an error result", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{ID: "c3", Name: "explode"})

		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "bad cell index")
	})

	t.Run("invalid arguments become an error result", func(t *testing.T) {
		result, err := registry.Execute(context.Background(), ai.ToolCall{ID: "c4", Name: "greet", Arguments: `{invalid`})

		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "invalid arguments for greet")
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := registry.Execute(context.Background(), ai.ToolCall{ID: "c5", Name: "nope"})

		var notFound *ErrToolNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "nope", notFound.Name)
	})
}

func TestSchemaFor(t *testing.T) {
	raw, err := SchemaFor[queryArgs]()
	require.NoError(t, err)

	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
		Version    string                    `json:"$schema"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.Empty(t, schema.Version)
	assert.Contains(t, schema.Properties, "query")
	assert.Contains(t, schema.Properties, "limit")
	assert.Equal(t, "Search query", schema.Properties["query"]["description"])
	assert.Equal(t, []string{"query"}, schema.Required)
}

func TestBind(t *testing.T) {
	tool, handler := MustBind("count", "Count cells", func(ctx context.Context, args cellArgs) (string, error) {
		return "index", nil
	})
	assert.Equal(t, "count", tool.Name)

	out, err := handler(context.Background(), ai.ToolCall{Name: "count"})
	require.NoError(t, err)
	assert.Equal(t, "index", out)

	registry := NewRegistry()
	require.NoError(t, BindTo(registry, "count", "Count cells", func(ctx context.Context, args cellArgs) (string, error) {
		return "", nil
	}, WithApproval()))
	entry, ok := registry.Lookup("count")
	require.True(t, ok)
	assert.True(t, entry.RequiresApproval)
}
