package agent

import ai "github.com/spetersoncode/cellmate"

// TokenUsage is the running token account of a session.
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`

	// LastRequestInputTokens is the input size of the most recent request.
	LastRequestInputTokens int `json:"lastRequestInputTokens"`
	// ContextWindow is the active model's context size, 0 when unknown.
	ContextWindow int `json:"contextWindow"`
	// ContextPercent is LastRequestInputTokens as a percentage of ContextWindow.
	ContextPercent float64 `json:"contextPercent"`
	// EstimatedPromptTokens is a local estimate of the next request's input,
	// computed before it is sent. It never feeds the running totals.
	EstimatedPromptTokens int `json:"estimatedPromptTokens,omitempty"`
}

// Record adds one response's usage to the totals. A response without usage
// contributes zero.
func (u TokenUsage) Record(usage ai.Usage, contextWindow int) TokenUsage {
	u.InputTokens += usage.InputTokens
	u.OutputTokens += usage.OutputTokens
	u.LastRequestInputTokens = usage.InputTokens
	u.ContextWindow = contextWindow
	u.ContextPercent = contextPercent(usage.InputTokens, contextWindow)
	return u
}

// Total returns input plus output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

func contextPercent(tokens, window int) float64 {
	if window <= 0 {
		return 0
	}
	return float64(tokens) / float64(window) * 100
}
