package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/cellmate"
)

// Role constants matching AG-UI protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ToMessages converts AG-UI messages to transcript messages.
func ToMessages(msgs []events.Message) []ai.Message {
	result := make([]ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		result = append(result, ToMessage(msg))
	}
	return result
}

// ToMessage converts a single AG-UI message.
func ToMessage(msg events.Message) ai.Message {
	m := ai.Message{ID: msg.ID, Role: toRole(msg.Role)}
	if msg.Content != nil {
		m.Content = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, ai.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if msg.ToolCallID != nil && msg.Content != nil {
		m.ToolResults = []ai.ToolResult{{ToolCallID: *msg.ToolCallID, Content: *msg.Content}}
	}
	return m
}

// FromMessages converts a transcript for a MESSAGES_SNAPSHOT event. A
// message carrying several tool results becomes one tool message per result.
func FromMessages(msgs []ai.Message) []events.Message {
	result := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		if len(msg.ToolResults) > 0 {
			for _, tr := range msg.ToolResults {
				result = append(result, events.Message{
					ID:         events.GenerateMessageID(),
					Role:       RoleTool,
					Content:    &tr.Content,
					ToolCallID: &tr.ToolCallID,
				})
			}
			continue
		}
		result = append(result, FromMessage(msg))
	}
	return result
}

// FromMessage converts a single transcript message without tool results.
func FromMessage(msg ai.Message) events.Message {
	id := msg.ID
	if id == "" {
		id = events.GenerateMessageID()
	}
	m := events.Message{ID: id, Role: fromRole(msg.Role)}
	if msg.Content != "" {
		content := msg.Content
		m.Content = &content
	}
	for _, tc := range msg.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, events.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: events.Function{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return m
}

func toRole(role string) ai.Role {
	switch role {
	case RoleAssistant:
		return ai.RoleAssistant
	case RoleSystem:
		return ai.RoleSystem
	case RoleTool:
		return ai.RoleTool
	default:
		return ai.RoleUser
	}
}

func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleSystem:
		return RoleSystem
	case ai.RoleTool:
		return RoleTool
	default:
		return RoleUser
	}
}
