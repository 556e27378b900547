package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/event"
	"github.com/spetersoncode/cellmate/store"
)

// Session is one conversation: its history, tool selection, active
// provider, token account and at most one in-flight generation.
type Session struct {
	id      string
	manager *Manager
	log     *slog.Logger
	history *store.History

	// genMu orders GenerateResponse, StopStreaming, ClearHistory and Close.
	genMu sync.Mutex

	// switchMu orders provider switches. It is never held with genMu so a
	// slow model build cannot delay StopStreaming.
	switchMu sync.Mutex

	calls toolCallLog

	mu        sync.Mutex
	provider  string
	modelOpts ai.ModelOptions
	model     ai.ModelHandle
	modelErr  error
	selected  []string
	usage     TokenUsage
	current   *generation
	closed    bool

	usageSignal    event.Signal[TokenUsage]
	providerSignal event.Signal[string]
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// GenerateResponse sends text to the model and runs the tool loop until the
// model answers without tool calls.
//
// If the session has no usable model it returns a *ConfigurationError and
// no channel. Otherwise any generation still in flight is cancelled first,
// and the returned channel delivers this generation's events. It is closed
// after message_complete, after error, or on cancellation.
func (s *Session) GenerateResponse(ctx context.Context, text string) (<-chan event.Event, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	model, provider, modelErr := s.model, s.provider, s.modelErr
	s.mu.Unlock()

	if model == nil {
		return nil, &ConfigurationError{Provider: provider, Err: modelErr}
	}

	s.stopCurrent(ReasonCancelled)
	s.calls.reset()

	rc := s.prepare(model, provider, text)
	g := newGeneration(ctx)

	s.mu.Lock()
	s.current = g
	s.mu.Unlock()

	s.log.Info("generation started", "generation_id", g.id, "provider", provider, "tools", len(rc.tools))
	go s.run(g, rc)
	return g.events, nil
}

// StopStreaming cancels the in-flight generation, if any. No event is sent
// for it once StopStreaming returns.
func (s *Session) StopStreaming() {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.stopCurrent(ReasonCancelled)
}

// ApproveToolCall approves a pending tool call of this session. Unknown or
// already resolved ids, and ids pending in other sessions, are ignored.
func (s *Session) ApproveToolCall(id string) bool {
	return s.manager.ApproveToolCall(s.id, id)
}

// RejectToolCall rejects a pending tool call. Unknown or already resolved
// ids are ignored.
func (s *Session) RejectToolCall(id string) bool {
	return s.manager.RejectToolCall(s.id, id)
}

// ClearHistory stops any generation, rejects its pending approvals and
// empties the history.
func (s *Session) ClearHistory() {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	s.stopCurrent(ReasonSessionCleared)
	s.history.Clear()
	s.calls.reset()

	s.mu.Lock()
	s.usage.LastRequestInputTokens = 0
	s.usage.ContextPercent = 0
	s.usage.EstimatedPromptTokens = 0
	u := s.usage
	s.mu.Unlock()
	s.usageSignal.Publish(u)

	if s.manager.opts.HistoryAdapter != nil {
		if err := s.history.Forget(context.Background(), s.id); err != nil {
			s.log.Warn("forget history failed", "error", err)
		}
	}
	s.log.Info("history cleared")
}

// SetSelectedTools replaces the tool selection used by the next generation
// and persists it through the settings.
func (s *Session) SetSelectedTools(names []string) error {
	selected := slices.Clone(names)
	if selected == nil {
		selected = []string{}
	}
	s.mu.Lock()
	s.selected = selected
	s.mu.Unlock()

	if err := s.manager.settings.SaveSelectedTools(selected); err != nil {
		return fmt.Errorf("agent: save tool selection: %w", err)
	}
	return nil
}

// SelectedTools returns the names of the tools offered to the model.
func (s *Session) SelectedTools() []string {
	s.mu.Lock()
	selected := slices.Clone(s.selected)
	s.mu.Unlock()

	if selected != nil {
		return selected
	}
	var names []string
	for _, e := range s.manager.tools.List() {
		names = append(names, e.Name())
	}
	return names
}

// SetActiveProvider switches the session to another provider. A generation
// in flight keeps the model it started with. On failure the session is left
// without a model until a later call succeeds.
func (s *Session) SetActiveProvider(ctx context.Context, providerID string) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	return s.loadModel(ctx, providerID)
}

// ActiveProvider returns the current provider id.
func (s *Session) ActiveProvider() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// ModelInfo describes the active model, if any.
func (s *Session) ModelInfo() (ai.ModelInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return ai.ModelInfo{}, false
	}
	return s.model.Info(), true
}

// TokenUsage returns the session's token account.
func (s *Session) TokenUsage() TokenUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// TokenUsageChanges subscribes to token usage updates.
func (s *Session) TokenUsageChanges() (<-chan TokenUsage, func()) {
	return s.usageSignal.Subscribe()
}

// ProviderChanges subscribes to active provider changes.
func (s *Session) ProviderChanges() (<-chan string, func()) {
	return s.providerSignal.Subscribe()
}

// ToolCalls returns the dispatch records of the latest generation in
// dispatch order.
func (s *Session) ToolCalls() []ToolCall {
	return s.calls.snapshot()
}

// History returns a snapshot of the conversation.
func (s *Session) History() []ai.Message {
	return s.history.Snapshot()
}

// Generating reports whether a generation is in flight.
func (s *Session) Generating() bool {
	s.mu.Lock()
	g := s.current
	s.mu.Unlock()
	if g == nil {
		return false
	}
	select {
	case <-g.done:
		return false
	default:
		return true
	}
}

// Close stops the session for good.
func (s *Session) Close() {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	s.stopCurrent(ReasonSessionClosed)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.usageSignal.Close()
	s.providerSignal.Close()
}

// stopCurrent cancels the current generation and waits for it to finish
// so history is never written by two generations. Callers hold genMu.
func (s *Session) stopCurrent(reason string) {
	s.mu.Lock()
	g := s.current
	s.current = nil
	s.mu.Unlock()

	if g == nil {
		return
	}
	g.stop(reason)
	<-g.done
}

// loadModel builds a handle for providerID and swaps it in. Only the swap
// takes the session lock.
func (s *Session) loadModel(ctx context.Context, providerID string) error {
	var (
		model ai.ModelHandle
		err   error
	)
	switch {
	case providerID == "":
		err = errors.New("no provider selected")
	case s.manager.factory == nil:
		err = errors.New("no model factory")
	default:
		s.mu.Lock()
		opts := s.modelOpts
		s.mu.Unlock()
		model, err = s.manager.factory.CreateModel(ctx, providerID, opts)
	}

	s.mu.Lock()
	changed := s.provider != providerID
	s.provider = providerID
	s.model = model
	s.modelErr = err
	if err == nil {
		s.usage.ContextWindow = model.Info().ContextWindow
	}
	s.mu.Unlock()

	if changed || err == nil {
		s.providerSignal.Publish(providerID)
	}
	if err != nil {
		return &ConfigurationError{Provider: providerID, Err: err}
	}
	return nil
}

func (s *Session) recordUsage(provider string, info ai.ModelInfo, usage ai.Usage) {
	s.mu.Lock()
	s.usage = s.usage.Record(usage, info.ContextWindow)
	u := s.usage
	s.mu.Unlock()

	s.usageSignal.Publish(u)
	s.manager.opts.Metrics.addTokens(provider, usage.InputTokens, usage.OutputTokens)
}

func (s *Session) recordEstimate(n int) {
	s.mu.Lock()
	s.usage.EstimatedPromptTokens = n
	u := s.usage
	s.mu.Unlock()
	s.usageSignal.Publish(u)
}
