package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/skill"
	"github.com/spetersoncode/cellmate/store"
	"github.com/spetersoncode/cellmate/tool"
)

// ModelFactory creates model handles for a provider id.
type ModelFactory interface {
	CreateModel(ctx context.Context, providerID string, opts ai.ModelOptions) (ai.ModelHandle, error)
}

// ToolRegistry is the source of tools offered to the model.
type ToolRegistry interface {
	Lookup(name string) (tool.Entry, bool)
	List() []tool.Entry
}

// SkillRegistry lists skills for the system prompt.
type SkillRegistry interface {
	ListSkills(query string) []skill.Summary
}

// Manager owns agent sessions and the collaborators they share: the model
// factory, tool registry, settings and approval gate.
type Manager struct {
	factory  ModelFactory
	tools    ToolRegistry
	settings Settings
	gate     *ApprovalGate
	opts     *Options
	log      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a Manager. A nil tools registry means no tools and nil
// settings means StaticSettings defaults.
func NewManager(factory ModelFactory, tools ToolRegistry, settings Settings, opts ...Option) *Manager {
	if tools == nil {
		tools = tool.NewRegistry()
	}
	if settings == nil {
		settings = &StaticSettings{}
	}
	o := ApplyOptions(opts...)

	gate := NewApprovalGate()
	gate.onChange = o.Metrics.setPending

	return &Manager{
		factory:  factory,
		tools:    tools,
		settings: settings,
		gate:     gate,
		opts:     o,
		log:      o.Logger,
		sessions: make(map[string]*Session),
	}
}

// Gate returns the approval gate shared by all sessions.
func (m *Manager) Gate() *ApprovalGate {
	return m.gate
}

// NewSession creates a session. An empty id gets a generated one.
//
// A provider that cannot be instantiated does not fail session creation;
// the session's GenerateResponse reports a ConfigurationError instead, and
// SetActiveProvider can repair it.
func (m *Manager) NewSession(ctx context.Context, id string, opts ...SessionOption) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	so := &SessionOptions{}
	for _, opt := range opts {
		opt(so)
	}
	if so.Provider == "" {
		so.Provider = m.settings.DefaultProvider()
	}
	selected := so.SelectedTools
	if selected == nil {
		selected = m.settings.SelectedTools()
	}

	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	s := &Session{
		id:        id,
		manager:   m,
		log:       m.log.With("session_id", id),
		history:   store.NewHistory(m.opts.HistoryAdapter),
		provider:  so.Provider,
		modelOpts: so.Model,
		selected:  selected,
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if m.opts.HistoryAdapter != nil {
		if err := s.history.Reload(ctx, id); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			s.log.Warn("history reload failed", "error", err)
		}
	}

	if err := s.loadModel(ctx, so.Provider); err != nil {
		s.log.Warn("session has no usable model", "provider", so.Provider, "error", err)
	}
	return s, nil
}

// Session returns the session with the given id.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Sessions returns the ids of open sessions, sorted.
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseSession stops and removes a session.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	return nil
}

// Close closes every session.
func (m *Manager) Close() {
	for _, id := range m.Sessions() {
		_ = m.CloseSession(id)
	}
}

// ApproveToolCall approves a pending tool call of the named session.
// Unknown or already resolved ids are ignored; the result reports whether
// anything was pending.
func (m *Manager) ApproveToolCall(sessionID, id string) bool {
	ok := m.gate.Approve(sessionID, id)
	m.log.Debug("approve tool call", "session_id", sessionID, "call_id", id, "pending", ok)
	return ok
}

// RejectToolCall rejects a pending tool call of the named session.
func (m *Manager) RejectToolCall(sessionID, id string) bool {
	ok := m.gate.Reject(sessionID, id, ReasonRejectedByUser)
	m.log.Debug("reject tool call", "session_id", sessionID, "call_id", id, "pending", ok)
	return ok
}

func (m *Manager) systemPrompt() string {
	return buildSystemPrompt(m.opts.SystemPrompt, m.opts.Skills)
}
