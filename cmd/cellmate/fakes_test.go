package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/agent"
	"github.com/spetersoncode/cellmate/tool"
)

// cannedModel plays back one response per request.
type cannedModel struct {
	mu    sync.Mutex
	turns []*ai.Response
	calls int
	fail  error // sent instead of any response when set
}

func (m *cannedModel) Info() ai.ModelInfo {
	return ai.ModelInfo{Provider: "fake", Model: "fake-1", ContextWindow: 1000}
}

func (m *cannedModel) ChatStream(ctx context.Context, _ []ai.Message, _ ...ai.Option) (<-chan ai.StreamEvent, error) {
	m.mu.Lock()
	resp := &ai.Response{Content: "done"}
	if m.calls < len(m.turns) {
		resp = m.turns[m.calls]
	}
	m.calls++
	m.mu.Unlock()

	ch := make(chan ai.StreamEvent, 2)
	if m.fail != nil {
		ch <- ai.StreamEvent{Err: m.fail}
		close(ch)
		return ch, nil
	}
	if resp.Content != "" {
		ch <- ai.StreamEvent{Delta: resp.Content}
	}
	ch <- ai.StreamEvent{Done: true, Response: resp}
	close(ch)
	return ch, nil
}

type fakeFactory map[string]ai.ModelHandle

func (f fakeFactory) CreateModel(_ context.Context, id string, _ ai.ModelOptions) (ai.ModelHandle, error) {
	m, ok := f[id]
	if !ok {
		return nil, errors.New("unknown provider " + id)
	}
	return m, nil
}

// notebookTools registers run_cell, which needs approval.
func notebookTools() *tool.Registry {
	type runArgs struct {
		Code string `json:"code"`
	}
	return tool.NewRegistry().Add(
		tool.Func("run_cell", "Run code", func(_ context.Context, a runArgs) (string, error) {
			return "ran " + strings.TrimSpace(a.Code), nil
		}).RequireApproval(),
	)
}

func newTestManager(model ai.ModelHandle) *agent.Manager {
	return agent.NewManager(
		fakeFactory{"fake": model},
		notebookTools(),
		&agent.StaticSettings{Provider: "fake"},
	)
}

func toolTurn(id, code string) *ai.Response {
	return &ai.Response{
		Content:   "Running it.",
		ToolCalls: []ai.ToolCall{{ID: id, Name: "run_cell", Arguments: `{"code":"` + code + `"}`}},
	}
}
