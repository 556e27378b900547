package cellmate

import "context"

// ModelInfo describes the model behind a handle.
type ModelInfo struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
	// ContextWindow is the model's context size in tokens, 0 when unknown.
	ContextWindow int `json:"contextWindow"`
}

// ModelHandle is a ready-to-use chat model.
//
// ChatStream sends a conversation and returns a channel of streaming events.
// The channel is closed when the stream is complete or an error occurs.
// The final event has Done set and carries the Response, including tool
// calls and usage. Callers should check StreamEvent.Err for errors.
type ModelHandle interface {
	ChatStream(ctx context.Context, messages []Message, opts ...Option) (<-chan StreamEvent, error)
	Info() ModelInfo
}
