package store

import (
	"context"
	"encoding/json"
	"sync"

	ai "github.com/spetersoncode/cellmate"
)

// History is an append-only conversation log with persistence support.
// Only Clear shrinks it.
type History struct {
	mu       sync.RWMutex
	messages []ai.Message
	adapter  Adapter
}

// NewHistory creates an empty History backed by adapter.
// If adapter is nil, an in-memory adapter is used.
func NewHistory(adapter Adapter) *History {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &History{adapter: adapter}
}

// Snapshot returns a copy of all messages.
func (h *History) Snapshot() []ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneMessages(h.messages)
}

// Append adds messages to the end of the log.
func (h *History) Append(msgs ...ai.Message) {
	if len(msgs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, cloneMessages(msgs)...)
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the last n messages. If n > Len(), returns all messages.
func (h *History) Last(n int) []ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	start := max(len(h.messages)-n, 0)
	return cloneMessages(h.messages[start:])
}

// Clear removes all messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Sync persists the messages to the adapter under key.
func (h *History) Sync(ctx context.Context, key string) error {
	h.mu.RLock()
	raw, err := json.Marshal(h.messages)
	h.mu.RUnlock()
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return h.adapter.Set(ctx, key, raw)
}

// Reload replaces the messages with those stored under key.
// Returns ErrKeyNotFound when nothing was stored.
func (h *History) Reload(ctx context.Context, key string) error {
	raw, ok, err := h.adapter.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}

	var messages []ai.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return &SerializationError{Key: key, Err: err}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = messages
	return nil
}

// Forget deletes the persisted copy stored under key.
func (h *History) Forget(ctx context.Context, key string) error {
	return h.adapter.Delete(ctx, key)
}

func cloneMessages(src []ai.Message) []ai.Message {
	if len(src) == 0 {
		return nil
	}
	out := make([]ai.Message, len(src))
	for i, m := range src {
		m.ToolCalls = append([]ai.ToolCall(nil), m.ToolCalls...)
		m.ToolResults = append([]ai.ToolResult(nil), m.ToolResults...)
		out[i] = m
	}
	return out
}
