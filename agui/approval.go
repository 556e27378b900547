package agui

import (
	"encoding/json"
	"errors"

	"github.com/spetersoncode/cellmate/agent"
)

// ErrNoToolCallID is returned for an approval input without a tool call id.
var ErrNoToolCallID = errors.New("agui: approval input has no toolCallId")

// ApprovalInput is the front end's answer to an approval marker. ThreadID
// names the session that raised it.
type ApprovalInput struct {
	ThreadID   string `json:"threadId"`
	ToolCallID string `json:"toolCallId"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// ParseApprovalInput decodes an approval decision from JSON.
func ParseApprovalInput(data []byte) (*ApprovalInput, error) {
	var input ApprovalInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	if input.ThreadID == "" {
		return nil, ErrNoThread
	}
	if input.ToolCallID == "" {
		return nil, ErrNoToolCallID
	}
	return &input, nil
}

// Decision converts the input to a gate decision.
func (a *ApprovalInput) Decision() agent.Decision {
	d := agent.Decision{Approved: a.Approved}
	if !a.Approved {
		d.Reason = a.Reason
	}
	return d
}

// Apply resolves the thread's pending approval on gate. It reports false
// when that thread has no request with the id pending.
func (a *ApprovalInput) Apply(gate *agent.ApprovalGate) bool {
	return gate.Resolve(a.ThreadID, a.ToolCallID, a.Decision())
}
