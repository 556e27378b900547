// Package event defines the typed event stream an agent session produces
// for the chat layer, plus a small signal type for plain value changes.
// The event types map 1:1 onto AG-UI text message and tool call events.
package event

import (
	"context"
	"encoding/json"
	"time"
)

// Type identifies the kind of event.
type Type string

// Message lifecycle events
const (
	// MessageStart fires when an assistant message begins.
	MessageStart Type = "message_start"

	// MessageChunk fires for each streamed piece of assistant text.
	MessageChunk Type = "message_chunk"

	// MessageComplete fires once when the assistant message is finished.
	MessageComplete Type = "message_complete"
)

// Tool call lifecycle events
const (
	// ToolCallStart fires when the model requests a tool call, before any
	// approval wait or execution.
	ToolCallStart Type = "tool_call_start"

	// ToolCallComplete fires with the tool result, a tool error, or a rejection.
	ToolCallComplete Type = "tool_call_complete"
)

// Error fires when a generation terminates unsuccessfully.
const Error Type = "error"

// Event is one element of a generation's event stream.
// Which fields are set depends on Type.
type Event struct {
	// Type identifies the kind of event.
	Type Type `json:"type"`

	// MessageID correlates message_start, message_chunk and message_complete.
	MessageID string `json:"messageId,omitempty"`

	// Delta is the newly appended text of a message_chunk.
	Delta string `json:"deltaText,omitempty"`

	// FullContent is the whole message text so far. Each chunk's
	// FullContent is a prefix of the next one's.
	FullContent string `json:"fullContent,omitempty"`

	// Content is the final message text of a message_complete.
	Content string `json:"content,omitempty"`

	// CallID identifies the tool call for tool events.
	CallID string `json:"callId,omitempty"`

	// ToolName is the tool being called.
	ToolName string `json:"toolName,omitempty"`

	// Input holds the tool call arguments on tool_call_start.
	Input json.RawMessage `json:"input,omitempty"`

	// Output holds the tool result text on tool_call_complete.
	Output string `json:"output,omitempty"`

	// IsError marks a failed or rejected tool call.
	IsError bool `json:"isError,omitempty"`

	// Err is set on error events.
	Err error `json:"-"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`
}

// ErrorText returns the error message of an error event, or "".
func (e Event) ErrorText() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// IsTerminal reports whether e ends a generation.
func (e Event) IsTerminal() bool {
	return e.Type == MessageComplete || e.Type == Error
}

// Emit stamps e and sends it on ch, blocking until the receiver takes it or
// ctx is done. It reports whether the event was delivered.
func Emit(ctx context.Context, ch chan<- Event, e Event) bool {
	if ctx.Err() != nil {
		return false
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}

// Collect drains ch into a slice. It is meant for tests and for callers
// that do not need incremental delivery.
func Collect(ch <-chan Event) []Event {
	var out []Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}
