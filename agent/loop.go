package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/event"
	"github.com/spetersoncode/cellmate/tool"
	"golang.org/x/sync/errgroup"
)

// Generation outcomes, used for logs and metrics.
const (
	outcomeComplete  = "complete"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

var errStreamEnded = errors.New("model stream ended without a response")

// runConfig is everything a generation reads from the session, captured
// when it starts so later changes only affect the next generation.
type runConfig struct {
	provider string
	model    ai.ModelHandle
	info     ai.ModelInfo
	policy   approvalPolicy
	maxTurns int
	selected []string // nil offers every registered tool
	tools    []ai.Tool
	messages []ai.Message
}

// transcript is the assistant message shown to the user. Text from every
// turn and the approval markers accumulate in it.
type transcript struct {
	id      string
	started bool
	content strings.Builder
}

func (s *Session) prepare(model ai.ModelHandle, provider, text string) runConfig {
	s.mu.Lock()
	selected := slices.Clone(s.selected)
	s.mu.Unlock()

	var tools []ai.Tool
	for _, e := range s.manager.tools.List() {
		if selected != nil && !slices.Contains(selected, e.Name()) {
			continue
		}
		tools = append(tools, e.Tool)
	}

	user := ai.Message{ID: ai.GenerateMessageID(), Role: ai.RoleUser, Content: text}
	messages := []ai.Message{{Role: ai.RoleSystem, Content: s.manager.systemPrompt()}}
	messages = append(messages, s.history.Snapshot()...)
	messages = append(messages, user)
	s.history.Append(user)

	return runConfig{
		provider: provider,
		model:    model,
		info:     model.Info(),
		policy:   newApprovalPolicy(s.manager.settings),
		maxTurns: maxTurns(s.manager.settings),
		selected: selected,
		tools:    tools,
		messages: messages,
	}
}

func (s *Session) run(g *generation, rc runConfig) {
	start := time.Now()
	log := s.log.With("generation_id", g.id, "provider", rc.provider)

	outcome := s.loop(g, rc, log)
	s.calls.abandon()

	if n := s.manager.gate.RejectOwner(g.id, g.cancelReason()); n > 0 {
		log.Info("rejected pending approvals", "count", n, "reason", g.cancelReason())
	}
	if s.manager.opts.HistoryAdapter != nil {
		if err := s.history.Sync(context.Background(), s.id); err != nil {
			log.Warn("history sync failed", "error", err)
		}
	}
	s.manager.opts.Metrics.generationDone(rc.provider, outcome)
	log.Info("generation finished", "outcome", outcome, "duration", time.Since(start))
	g.finish()
}

func (s *Session) loop(g *generation, rc runConfig, log *slog.Logger) string {
	tr := &transcript{id: ai.GenerateMessageID()}
	messages := rc.messages

	for turn := 1; ; turn++ {
		if turn > rc.maxTurns {
			g.emit(event.Event{Type: event.Error, MessageID: tr.id, Err: &TurnLimitError{MaxTurns: rc.maxTurns}})
			return outcomeError
		}

		resp, turnText, err := s.streamTurn(g, rc, messages, tr)
		if err != nil {
			s.commitPartial(turnText)
			if g.cancelled() {
				return outcomeCancelled
			}
			log.Warn("model request failed", "turn", turn, "error", err)
			g.emit(event.Event{Type: event.Error, MessageID: tr.id, Err: &ProviderError{Provider: rc.provider, Err: err}})
			return outcomeError
		}
		s.recordUsage(rc.provider, rc.info, resp.Usage)

		if len(resp.ToolCalls) == 0 {
			s.history.Append(ai.Message{ID: tr.id, Role: ai.RoleAssistant, Content: resp.Content})
			if !g.emit(event.Event{Type: event.MessageComplete, MessageID: tr.id, Content: tr.content.String()}) {
				return outcomeCancelled
			}
			return outcomeComplete
		}

		calls := assignCallIDs(resp.ToolCalls)
		log.Debug("tool calls requested", "turn", turn, "count", len(calls))
		results, ok := s.dispatch(g, rc, calls, tr, log)
		if !ok {
			s.commitPartial(resp.Content)
			return outcomeCancelled
		}

		assistant := ai.Message{Role: ai.RoleAssistant, Content: resp.Content, ToolCalls: calls}
		toolMsg := ai.NewToolResultMessage(results...)
		s.history.Append(assistant, toolMsg)
		messages = append(messages, assistant, toolMsg)
	}
}

// streamTurn makes one model request and relays its text as chunks. It
// returns the text this turn produced even on failure.
func (s *Session) streamTurn(g *generation, rc runConfig, messages []ai.Message, tr *transcript) (*ai.Response, string, error) {
	if c := s.manager.opts.TokenCounter; c != nil {
		s.recordEstimate(estimateTokens(c, messages))
	}

	opts := append(slices.Clone(s.manager.opts.ChatOptions), ai.WithTools(rc.tools...))
	started := time.Now()
	defer func() { s.manager.opts.Metrics.observeRequest(rc.provider, time.Since(started)) }()

	stream, err := rc.model.ChatStream(g.ctx, messages, opts...)
	if err != nil {
		return nil, "", err
	}
	if !tr.started {
		if !g.emit(event.Event{Type: event.MessageStart, MessageID: tr.id}) {
			return nil, "", context.Canceled
		}
		tr.started = true
	}

	var text strings.Builder
	for {
		select {
		case <-g.ctx.Done():
			return nil, text.String(), g.ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				if g.cancelled() {
					return nil, text.String(), g.ctx.Err()
				}
				return nil, text.String(), errStreamEnded
			}
			if ev.Err != nil {
				return nil, text.String(), ev.Err
			}
			if ev.Delta != "" {
				delta := ev.Delta
				if text.Len() == 0 && tr.content.Len() > 0 {
					delta = "\n\n" + delta
				}
				text.WriteString(ev.Delta)
				if !s.appendText(g, tr, delta) {
					return nil, text.String(), context.Canceled
				}
			}
			if ev.Done {
				resp := ev.Response
				if resp == nil {
					resp = &ai.Response{Content: text.String()}
				}
				return resp, text.String(), nil
			}
		}
	}
}

// appendText grows the transcript and emits the chunk.
func (s *Session) appendText(g *generation, tr *transcript, delta string) bool {
	tr.content.WriteString(delta)
	return g.emit(event.Event{
		Type:        event.MessageChunk,
		MessageID:   tr.id,
		Delta:       delta,
		FullContent: tr.content.String(),
	})
}

// dispatch handles the tool calls of one turn in order. Runs of consecutive
// calls that need approval are decided together. It reports false when the
// generation was cancelled.
func (s *Session) dispatch(g *generation, rc runConfig, calls []ai.ToolCall, tr *transcript, log *slog.Logger) ([]ai.ToolResult, bool) {
	results := make([]ai.ToolResult, len(calls))
	needs := make([]bool, len(calls))
	for i, c := range calls {
		entry, found := s.manager.tools.Lookup(c.Name)
		needs[i] = rc.policy.requiresApproval(c.Name, entry, found)
		s.calls.dispatch(g.id, c, needs[i])
	}

	for i := 0; i < len(calls); {
		if !needs[i] {
			if !s.startCall(g, calls[i]) {
				return nil, false
			}
			r, ok := s.execute(g, rc, calls[i])
			if !ok || !s.completeCall(g, calls[i], r, StatusCompleted) {
				return nil, false
			}
			results[i] = r
			i++
			continue
		}

		j := i
		for j < len(calls) && needs[j] {
			j++
		}
		if !s.approveAndRun(g, rc, calls[i:j], results[i:j], tr, log) {
			return nil, false
		}
		i = j
	}
	return results, true
}

// approveAndRun registers every call in group with the gate, announces them
// with one marker, waits for all decisions, then runs the approved calls.
// More than one approved call run concurrently.
func (s *Session) approveAndRun(g *generation, rc runConfig, group []ai.ToolCall, out []ai.ToolResult, tr *transcript, log *slog.Logger) bool {
	gate := s.manager.gate
	waits := make([]<-chan Decision, len(group))
	ids := make([]string, len(group))
	for k, c := range group {
		ids[k] = c.ID
		ch, err := gate.Register(s.id, g.id, c.ID)
		if err != nil {
			out[k] = ai.ToolResult{ToolCallID: c.ID, Content: fmt.Sprintf("%v: %s", err, c.ID), IsError: true}
			continue
		}
		waits[k] = ch
		s.calls.advance(c.ID, StatusAwaitingApproval)
	}

	for _, c := range group {
		if !s.startCall(g, c) {
			return false
		}
	}

	marker := ApprovalMarker(ids[0])
	if len(group) > 1 {
		marker = GroupApprovalMarker(uuid.NewString(), ids)
	}
	if tr.content.Len() > 0 {
		marker = "\n\n" + marker
	}
	if !s.appendText(g, tr, marker) {
		return false
	}
	log.Info("awaiting approval", "calls", ids)

	decisions := make([]Decision, len(group))
	for k, ch := range waits {
		if ch == nil {
			continue
		}
		select {
		case d := <-ch:
			decisions[k] = d
		case <-g.ctx.Done():
			return false
		}
	}

	var approved []int
	for k, c := range group {
		switch {
		case waits[k] == nil:
			if !s.completeCall(g, c, out[k], StatusErrored) {
				return false
			}
		case !decisions[k].Approved:
			out[k] = rejectionResult(c, decisions[k].Reason)
			if !s.completeCall(g, c, out[k], StatusRejected) {
				return false
			}
		default:
			s.calls.advance(c.ID, StatusApproved)
			approved = append(approved, k)
		}
	}

	if len(approved) == 1 {
		k := approved[0]
		r, ok := s.execute(g, rc, group[k])
		if !ok {
			return false
		}
		out[k] = r
		return s.completeCall(g, group[k], r, StatusCompleted)
	}

	var eg errgroup.Group
	for _, k := range approved {
		eg.Go(func() error {
			r, ok := s.execute(g, rc, group[k])
			if !ok {
				return context.Canceled
			}
			out[k] = r
			if !s.completeCall(g, group[k], r, StatusCompleted) {
				return context.Canceled
			}
			return nil
		})
	}
	return eg.Wait() == nil
}

// execute runs one call. The handler's result is abandoned if the
// generation is cancelled first.
func (s *Session) execute(g *generation, rc runConfig, call ai.ToolCall) (ai.ToolResult, bool) {
	s.calls.advance(call.ID, StatusExecuting)
	entry, found := s.manager.tools.Lookup(call.Name)
	if !found {
		return toolError(call, &tool.ErrToolNotFound{Name: call.Name}), true
	}
	if rc.selected != nil && !slices.Contains(rc.selected, call.Name) {
		return toolError(call, fmt.Errorf("tool: not enabled: %s", call.Name)), true
	}

	done := make(chan ai.ToolResult, 1)
	go func() {
		done <- tool.Run(g.ctx, entry, call)
	}()

	select {
	case r := <-done:
		return r, !g.cancelled()
	case <-g.ctx.Done():
		return ai.ToolResult{}, false
	}
}

func (s *Session) startCall(g *generation, call ai.ToolCall) bool {
	return g.emit(event.Event{
		Type:     event.ToolCallStart,
		CallID:   call.ID,
		ToolName: call.Name,
		Input:    call.Input(),
	})
}

func (s *Session) completeCall(g *generation, call ai.ToolCall, r ai.ToolResult, status ToolCallStatus) bool {
	if status == StatusCompleted && r.IsError {
		status = StatusErrored
	}
	s.calls.advance(call.ID, status)
	s.manager.opts.Metrics.toolCallDone(call.Name, string(status))
	s.log.Debug("tool call finished", "call_id", call.ID, "tool", call.Name, "status", status)

	return g.emit(event.Event{
		Type:     event.ToolCallComplete,
		CallID:   call.ID,
		ToolName: call.Name,
		Output:   r.Content,
		IsError:  r.IsError,
	})
}

// commitPartial keeps text the user already saw when a turn ends early.
func (s *Session) commitPartial(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	s.history.Append(ai.Message{Role: ai.RoleAssistant, Content: text})
}

func rejectionResult(call ai.ToolCall, reason string) ai.ToolResult {
	content := ReasonRejectedByUser
	if reason != "" && reason != ReasonRejectedByUser {
		content = "Tool call rejected: " + reason
	}
	return ai.ToolResult{ToolCallID: call.ID, Content: content, IsError: true}
}

func toolError(call ai.ToolCall, err error) ai.ToolResult {
	return ai.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
}

// assignCallIDs fills in ids for providers that omit them.
func assignCallIDs(calls []ai.ToolCall) []ai.ToolCall {
	out := slices.Clone(calls)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = "call_" + uuid.NewString()
		}
	}
	return out
}

func estimateTokens(c TokenCounter, messages []ai.Message) int {
	n := 0
	for _, m := range messages {
		n += c.Count(m.Content)
		for _, tc := range m.ToolCalls {
			n += c.Count(tc.Name) + c.Count(tc.Arguments)
		}
		for _, tr := range m.ToolResults {
			n += c.Count(tr.Content)
		}
	}
	return n
}
