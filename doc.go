// Package cellmate provides the core types for a tool-using chat agent that
// runs inside a document editing environment.
//
// The root package defines the vocabulary every other package speaks:
// messages, tool calls and results, request options, and the [ModelHandle]
// interface implemented by one adapter per model vendor. It is conventionally
// imported as ai:
//
//	import ai "github.com/spetersoncode/cellmate"
//
// # Model Handles
//
// A [ModelHandle] streams a response to a role-tagged message list. Obtain one
// from the provider factory:
//
//	factory := provider.NewFactory(provider.ConfigFromEnv())
//	handle, err := factory.CreateModel(ctx, "anthropic", ai.ModelOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stream, err := handle.ChatStream(ctx, []ai.Message{
//	    {Role: ai.RoleUser, Content: "Summarize this notebook"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range stream {
//	    if ev.Err != nil {
//	        log.Fatal(ev.Err)
//	    }
//	    fmt.Print(ev.Delta)
//	}
//
// # Errors
//
// Provider adapters return [*Error] values categorized as transient,
// permanent, or user input. Use [IsTransient], [StatusCodeOf] and [Describe]
// to decide what to show the user. Requests are never retried automatically.
//
// # Higher-Level Packages
//
//   - [github.com/spetersoncode/cellmate/agent]: sessions, the tool loop, approvals
//   - [github.com/spetersoncode/cellmate/tool]: the tool registry
//   - [github.com/spetersoncode/cellmate/skill]: file-backed skill bundles
//   - [github.com/spetersoncode/cellmate/provider]: the model factory
package cellmate
