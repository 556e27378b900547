package agent

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)
	assert.Same(t, m.generations, MustNewMetrics(reg).generations, "collectors are reused")

	model := newFakeModel(
		scriptedTurn{resp: &ai.Response{ToolCalls: []ai.ToolCall{{ID: "c1", Name: "run_cell"}}, Usage: ai.Usage{InputTokens: 10, OutputTokens: 2}}},
		scriptedTurn{deltas: []string{"ok"}},
	)
	h := newHarness(t, model, &StaticSettings{ApprovalCommands: []string{"run_cell"}}, WithMetrics(m))
	h.registry.MustRegister(ai.Tool{Name: "run_cell"}, (&countingTool{}).handler)

	events, err := h.session.GenerateResponse(context.Background(), "go")
	require.NoError(t, err)
	nextOfType(t, events, event.ToolCallStart)
	next(t, events)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pendingApprovals))

	h.session.RejectToolCall("c1")
	drain(t, events)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.pendingApprovals))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("fake", outcomeComplete)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("run_cell", string(StatusRejected))))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.tokens.WithLabelValues("fake", "input")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.generationDone("x", "y") })
}
