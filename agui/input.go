package agui

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
)

// RunAgentInput is the AG-UI request body for running an agent. The
// session keeps its own transcript, so only the newest user message and
// the tool list are used.
type RunAgentInput struct {
	ThreadID       string           `json:"threadId"`
	RunID          string           `json:"runId"`
	Messages       []events.Message `json:"messages"`
	Tools          []Tool           `json:"tools,omitempty"`
	Context        []any            `json:"context,omitempty"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwardedProps,omitempty"`
}

// Tool is a tool definition sent by the front end. Only the name is used:
// it selects one of the registered tools for the session.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// PreparedInput is a validated RunAgentInput.
type PreparedInput struct {
	ThreadID  string
	RunID     string
	Text      string
	ToolNames []string // nil when the front end sent no tools
}

var (
	// ErrNoThread is returned when the input has no thread id.
	ErrNoThread = errors.New("agui: no threadId provided")
	// ErrNoUserMessage is returned when the input has no non-empty user message.
	ErrNoUserMessage = errors.New("agui: no user message provided")
)

// Prepare validates the input and extracts the newest user message.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	if r.ThreadID == "" {
		return nil, ErrNoThread
	}
	p := &PreparedInput{ThreadID: r.ThreadID, RunID: r.RunID}
	for i := len(r.Messages) - 1; i >= 0; i-- {
		msg := r.Messages[i]
		if msg.Role == RoleUser && msg.Content != nil && strings.TrimSpace(*msg.Content) != "" {
			p.Text = *msg.Content
			break
		}
	}
	if p.Text == "" {
		return nil, ErrNoUserMessage
	}
	if r.Tools != nil {
		p.ToolNames = make([]string, 0, len(r.Tools))
		for _, t := range r.Tools {
			p.ToolNames = append(p.ToolNames, t.Name)
		}
	}
	return p, nil
}
