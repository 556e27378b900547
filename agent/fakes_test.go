package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/event"
	"github.com/spetersoncode/cellmate/tool"
	"github.com/stretchr/testify/require"
)

// scriptedTurn is one model response played back by fakeModel.
type scriptedTurn struct {
	deltas   []string
	resp     *ai.Response
	err      error // sent on the stream after deltas
	startErr error // returned by ChatStream
	block    bool  // hold the stream open after deltas until cancelled
}

type fakeModel struct {
	mu       sync.Mutex
	turns    []scriptedTurn
	calls    int
	requests [][]ai.Message
	options  []*ai.Options
	info     ai.ModelInfo
}

func newFakeModel(turns ...scriptedTurn) *fakeModel {
	return &fakeModel{
		turns: turns,
		info:  ai.ModelInfo{Provider: "fake", Model: "fake-1", ContextWindow: 1000},
	}
}

func (m *fakeModel) Info() ai.ModelInfo { return m.info }

func (m *fakeModel) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.requests = append(m.requests, append([]ai.Message(nil), messages...))
	m.options = append(m.options, ai.ApplyOptions(opts...))
	t := scriptedTurn{deltas: []string{"done"}}
	if idx < len(m.turns) {
		t = m.turns[idx]
	}
	m.mu.Unlock()

	if t.startErr != nil {
		return nil, t.startErr
	}

	ch := make(chan ai.StreamEvent)
	go func() {
		defer close(ch)
		send := func(ev ai.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, d := range t.deltas {
			if !send(ai.StreamEvent{Delta: d}) {
				return
			}
		}
		if t.block {
			<-ctx.Done()
			return
		}
		if t.err != nil {
			send(ai.StreamEvent{Err: t.err})
			return
		}
		resp := t.resp
		if resp == nil {
			resp = &ai.Response{Content: strings.Join(t.deltas, "")}
		}
		send(ai.StreamEvent{Done: true, Response: resp})
	}()
	return ch, nil
}

func (m *fakeModel) request(i int) []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[i]
}

func (m *fakeModel) requestOptions(i int) *ai.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.options[i]
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeFactory struct {
	models map[string]ai.ModelHandle
}

func (f *fakeFactory) CreateModel(_ context.Context, providerID string, _ ai.ModelOptions) (ai.ModelHandle, error) {
	m, ok := f.models[providerID]
	if !ok {
		return nil, errors.New("unknown provider " + providerID)
	}
	return m, nil
}

// countingTool registers a tool whose executions are counted.
type countingTool struct {
	calls atomic.Int32
	out   string
	err   error
}

func (c *countingTool) handler(ctx context.Context, call ai.ToolCall) (string, error) {
	c.calls.Add(1)
	return c.out, c.err
}

func toolCallResp(text string, calls ...ai.ToolCall) *ai.Response {
	return &ai.Response{Content: text, ToolCalls: calls}
}

type harness struct {
	model    *fakeModel
	manager  *Manager
	session  *Session
	registry *tool.Registry
	settings *StaticSettings
}

func newHarness(t *testing.T, model *fakeModel, settings *StaticSettings, opts ...Option) *harness {
	t.Helper()
	if settings == nil {
		settings = &StaticSettings{}
	}
	settings.Provider = "fake"
	registry := tool.NewRegistry()
	mgr := NewManager(&fakeFactory{models: map[string]ai.ModelHandle{"fake": model}}, registry, settings, opts...)
	sess, err := mgr.NewSession(context.Background(), "s1")
	require.NoError(t, err)
	t.Cleanup(mgr.Close)
	return &harness{model: model, manager: mgr, session: sess, registry: registry, settings: settings}
}

func next(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "event channel closed early")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return event.Event{}
	}
}

func nextOfType(t *testing.T, ch <-chan event.Event, typ event.Type) event.Event {
	t.Helper()
	for {
		e := next(t, ch)
		if e.Type == typ {
			return e
		}
	}
}

func drain(t *testing.T, ch <-chan event.Event) []event.Event {
	t.Helper()
	var out []event.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatal("timed out draining events")
			return out
		}
	}
}

func assertQuiet(t *testing.T, ch <-chan event.Event) {
	t.Helper()
	select {
	case e, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %s", e.Type)
		}
		t.Fatal("event channel closed unexpectedly")
	case <-time.After(50 * time.Millisecond):
	}
}

func types(events []event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func terminals(events []event.Event) int {
	n := 0
	for _, e := range events {
		if e.IsTerminal() {
			n++
		}
	}
	return n
}

// blockingFactory holds CreateModel for provider "slow" until released.
type blockingFactory struct {
	fakeFactory
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFactory) CreateModel(ctx context.Context, providerID string, opts ai.ModelOptions) (ai.ModelHandle, error) {
	if providerID == "slow" {
		close(f.entered)
		<-f.release
	}
	return f.fakeFactory.CreateModel(ctx, providerID, opts)
}
