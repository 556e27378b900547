package agent

import (
	"sort"
	"sync"
	"time"
)

// Decision is the outcome of an approval request.
type Decision struct {
	Approved bool
	Reason   string // why a call was rejected; empty on approval
}

// PendingApproval describes an outstanding approval request.
type PendingApproval struct {
	Session string
	ID      string
	Owner   string
	Since   time.Time
}

// gateKey scopes a tool call id to the session that registered it.
type gateKey struct {
	session string
	id      string
}

type pendingEntry struct {
	owner string
	since time.Time
	ch    chan Decision
}

// ApprovalGate is a table of outstanding approval requests keyed by
// session and tool call id. Each entry resolves exactly once and is
// removed when it does, so repeated or late resolutions are no-ops.
// Entries never expire on their own; owners reject what they leave behind.
type ApprovalGate struct {
	mu       sync.Mutex
	pending  map[gateKey]*pendingEntry
	onChange func(pending int)
}

// NewApprovalGate creates an empty gate.
func NewApprovalGate() *ApprovalGate {
	return &ApprovalGate{pending: make(map[gateKey]*pendingEntry)}
}

// Register adds a pending request for id in session on behalf of owner and
// returns the channel that will receive its decision.
func (g *ApprovalGate) Register(session, owner, id string) (<-chan Decision, error) {
	key := gateKey{session: session, id: id}
	g.mu.Lock()
	if _, exists := g.pending[key]; exists {
		g.mu.Unlock()
		return nil, ErrApprovalPending
	}
	ch := make(chan Decision, 1)
	g.pending[key] = &pendingEntry{owner: owner, since: time.Now(), ch: ch}
	n := len(g.pending)
	g.mu.Unlock()

	g.notify(n)
	return ch, nil
}

// Resolve delivers d to the request for id in session and removes it. It
// reports whether a request was pending; unknown ids are ignored.
func (g *ApprovalGate) Resolve(session, id string, d Decision) bool {
	key := gateKey{session: session, id: id}
	g.mu.Lock()
	entry, ok := g.pending[key]
	if ok {
		delete(g.pending, key)
	}
	n := len(g.pending)
	g.mu.Unlock()

	if !ok {
		return false
	}
	entry.ch <- d
	g.notify(n)
	return true
}

// Approve resolves id in session as approved.
func (g *ApprovalGate) Approve(session, id string) bool {
	return g.Resolve(session, id, Decision{Approved: true})
}

// Reject resolves id in session as rejected with reason.
func (g *ApprovalGate) Reject(session, id, reason string) bool {
	return g.Resolve(session, id, Decision{Reason: reason})
}

// RejectOwner rejects every request registered by owner and returns how many there were.
func (g *ApprovalGate) RejectOwner(owner, reason string) int {
	g.mu.Lock()
	var entries []*pendingEntry
	for key, e := range g.pending {
		if e.owner == owner {
			entries = append(entries, e)
			delete(g.pending, key)
		}
	}
	n := len(g.pending)
	g.mu.Unlock()

	for _, e := range entries {
		e.ch <- Decision{Reason: reason}
	}
	if len(entries) > 0 {
		g.notify(n)
	}
	return len(entries)
}

// Pending lists outstanding requests, oldest first.
func (g *ApprovalGate) Pending() []PendingApproval {
	g.mu.Lock()
	out := make([]PendingApproval, 0, len(g.pending))
	for key, e := range g.pending {
		out = append(out, PendingApproval{Session: key.session, ID: key.id, Owner: e.owner, Since: e.since})
	}
	g.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Since.Equal(out[j].Since) {
			if out[i].Session != out[j].Session {
				return out[i].Session < out[j].Session
			}
			return out[i].ID < out[j].ID
		}
		return out[i].Since.Before(out[j].Since)
	})
	return out
}

// Len returns the number of outstanding requests.
func (g *ApprovalGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *ApprovalGate) notify(n int) {
	if g.onChange != nil {
		g.onChange(n)
	}
}
