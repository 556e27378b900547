package agent

import (
	"slices"
	"sync"
	"time"

	ai "github.com/spetersoncode/cellmate"
)

// ToolCallStatus tracks a tool call through dispatch. Statuses only move forward.
type ToolCallStatus string

const (
	StatusDispatched       ToolCallStatus = "dispatched"
	StatusAwaitingApproval ToolCallStatus = "awaiting_approval"
	StatusApproved         ToolCallStatus = "approved"
	StatusRejected         ToolCallStatus = "rejected"
	StatusExecuting        ToolCallStatus = "executing"
	StatusCompleted        ToolCallStatus = "completed"
	StatusErrored          ToolCallStatus = "errored"
)

var toolCallTransitions = map[ToolCallStatus][]ToolCallStatus{
	StatusDispatched:       {StatusAwaitingApproval, StatusExecuting, StatusErrored},
	StatusAwaitingApproval: {StatusApproved, StatusRejected, StatusErrored},
	StatusApproved:         {StatusExecuting, StatusErrored},
	StatusExecuting:        {StatusCompleted, StatusErrored},
}

// Terminal reports whether no further transition can follow s.
func (s ToolCallStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusErrored || s == StatusRejected
}

// CanMoveTo reports whether next may follow s.
func (s ToolCallStatus) CanMoveTo(next ToolCallStatus) bool {
	return slices.Contains(toolCallTransitions[s], next)
}

// ToolCall is the dispatch record of one tool call requested by the model.
type ToolCall struct {
	ID               string
	Name             string
	Arguments        string
	GenerationID     string
	RequiresApproval bool
	Status           ToolCallStatus
	// Trail lists every status the call has held, oldest first.
	Trail   []ToolCallStatus
	Updated time.Time
}

// toolCallLog holds the records of a session's latest generation.
type toolCallLog struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*ToolCall
}

func (l *toolCallLog) reset() {
	l.mu.Lock()
	l.order = nil
	l.byID = nil
	l.mu.Unlock()
}

func (l *toolCallLog) dispatch(generationID string, call ai.ToolCall, requiresApproval bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byID == nil {
		l.byID = make(map[string]*ToolCall)
	}
	if _, seen := l.byID[call.ID]; !seen {
		l.order = append(l.order, call.ID)
	}
	l.byID[call.ID] = &ToolCall{
		ID:               call.ID,
		Name:             call.Name,
		Arguments:        call.Arguments,
		GenerationID:     generationID,
		RequiresApproval: requiresApproval,
		Status:           StatusDispatched,
		Trail:            []ToolCallStatus{StatusDispatched},
		Updated:          time.Now(),
	}
}

// advance moves id to next. It reports false, leaving the record alone,
// for unknown ids and for moves the status machine does not allow.
func (l *toolCallLog) advance(id string, next ToolCallStatus) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	tc, ok := l.byID[id]
	if !ok || !tc.Status.CanMoveTo(next) {
		return false
	}
	tc.Status = next
	tc.Trail = append(tc.Trail, next)
	tc.Updated = time.Now()
	return true
}

// abandon ends every unfinished call of a cancelled generation. Calls still
// awaiting a decision count as rejected, the rest as errored.
func (l *toolCallLog) abandon() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for _, tc := range l.byID {
		if tc.Status.Terminal() {
			continue
		}
		next := StatusErrored
		if tc.Status == StatusAwaitingApproval {
			next = StatusRejected
		}
		tc.Status = next
		tc.Trail = append(tc.Trail, next)
		tc.Updated = now
	}
}

func (l *toolCallLog) snapshot() []ToolCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ToolCall, 0, len(l.order))
	for _, id := range l.order {
		tc := *l.byID[id]
		tc.Trail = slices.Clone(tc.Trail)
		out = append(out, tc)
	}
	return out
}
