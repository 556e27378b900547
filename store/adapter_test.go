package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapters(t *testing.T) map[string]Adapter {
	fa, err := NewFileAdapter(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	return map[string]Adapter{
		"memory": NewMemoryAdapter(),
		"file":   fa,
	}
}

func TestAdapters(t *testing.T) {
	for name, adapter := range adapters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := adapter.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, adapter.Set(ctx, "b/session", json.RawMessage(`["one"]`)))
			require.NoError(t, adapter.Set(ctx, "a", json.RawMessage(`{"x":1}`)))

			raw, ok, err := adapter.Get(ctx, "b/session")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `["one"]`, string(raw))

			keys, err := adapter.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b/session"}, keys)

			require.NoError(t, adapter.Delete(ctx, "a"))
			require.NoError(t, adapter.Delete(ctx, "a"))
			keys, err = adapter.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"b/session"}, keys)
		})
	}
}

func TestFileAdapter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fa, err := NewFileAdapter(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, fa.Dir())

	t.Run("rejects invalid JSON", func(t *testing.T) {
		err := fa.Set(ctx, "k", json.RawMessage(`{`))
		var serr *SerializationError
		assert.ErrorAs(t, err, &serr)
	})

	t.Run("escapes keys into file names", func(t *testing.T) {
		require.NoError(t, fa.Set(ctx, "../escape", json.RawMessage(`1`)))
		_, err := os.Stat(filepath.Join(dir, "..%2Fescape.json"))
		assert.NoError(t, err)
	})

	t.Run("ignores foreign files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0o644))
		keys, err := fa.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"../escape"}, keys)
	})
}
