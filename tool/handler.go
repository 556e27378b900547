package tool

import (
	"context"

	ai "github.com/spetersoncode/cellmate"
)

// Handler is a function that executes a tool call and returns a result.
// The context is cancelled when the generation that issued the call stops.
// Returns the result content string, or an error if execution failed.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)

// TypedHandler is a function that executes a tool call with typed arguments.
// The args parameter is automatically unmarshaled from the tool call's JSON arguments.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)
