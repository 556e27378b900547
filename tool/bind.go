package tool

import (
	"context"
	"encoding/json"

	ai "github.com/spetersoncode/cellmate"
)

// Bind creates a Tool and Handler from a typed function.
// The JSON schema for tool parameters is generated from type T.
func Bind[T any](name, description string, fn TypedHandler[T]) (ai.Tool, Handler, error) {
	schema, err := SchemaFor[T]()
	if err != nil {
		return ai.Tool{}, nil, err
	}

	t := ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
	return t, typed(name, fn), nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](name, description string, fn TypedHandler[T]) (ai.Tool, Handler) {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t, h
}

// BindTo creates a tool from a typed function and registers it directly to a Registry.
func BindTo[T any](r *Registry, name, description string, fn TypedHandler[T], opts ...RegisterOption) error {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		return err
	}
	return r.Register(t, h, opts...)
}

func typed[T any](name string, fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
				return "", &ErrInvalidArguments{Name: name, Err: err}
			}
		}
		return fn(ctx, args)
	}
}
