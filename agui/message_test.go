package agui

import (
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/cellmate"
)

func TestToMessage(t *testing.T) {
	msg := ToMessage(events.Message{
		ID:   "m1",
		Role: RoleAssistant,
		ToolCalls: []events.ToolCall{{
			ID:       "call-1",
			Type:     "function",
			Function: events.Function{Name: "read_cell", Arguments: `{"index":0}`},
		}},
	})
	if msg.Role != ai.RoleAssistant || msg.ID != "m1" {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "read_cell" {
		t.Errorf("unexpected tool calls %+v", msg.ToolCalls)
	}

	tool := ToMessage(events.Message{Role: RoleTool, ToolCallID: strPtr("call-1"), Content: strPtr("x = 1")})
	if len(tool.ToolResults) != 1 || tool.ToolResults[0].Content != "x = 1" {
		t.Errorf("unexpected tool results %+v", tool.ToolResults)
	}

	if got := ToMessage(events.Message{Role: "developer"}).Role; got != ai.RoleUser {
		t.Errorf("expected unknown role to map to user, got %q", got)
	}
}

func TestFromMessages(t *testing.T) {
	history := []ai.Message{
		{ID: "u1", Role: ai.RoleUser, Content: "Summarize"},
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "a", Name: "read_cell"}, {ID: "b", Name: "read_cell"}}},
		{Role: ai.RoleTool, ToolResults: []ai.ToolResult{{ToolCallID: "a", Content: "1"}, {ToolCallID: "b", Content: "2"}}},
	}

	got := FromMessages(history)
	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	if got[0].ID != "u1" || *got[0].Content != "Summarize" {
		t.Errorf("unexpected user message %+v", got[0])
	}
	if got[1].ID == "" || len(got[1].ToolCalls) != 2 {
		t.Errorf("unexpected assistant message %+v", got[1])
	}
	for i, id := range []string{"a", "b"} {
		m := got[2+i]
		if m.Role != RoleTool || *m.ToolCallID != id {
			t.Errorf("unexpected tool message %+v", m)
		}
	}
}
