// Package anthropic adapts the Anthropic Messages API to [cellmate.ModelHandle].
//
// The client streams text deltas as they arrive and accumulates the full
// message, including tool_use blocks, into the final event:
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"),
//	    anthropic.WithModel(anthropic.ClaudeSonnet45),
//	)
//	stream, err := client.ChatStream(ctx, messages, ai.WithTools(tools...))
//
// Tool results travel back as user messages carrying tool_result blocks.
// Empty text blocks are dropped because the API rejects them.
package anthropic
