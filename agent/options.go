package agent

import (
	"log/slog"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/store"
)

// TokenCounter estimates the token count of text.
type TokenCounter interface {
	Count(text string) int
}

// Options contains configuration shared by every session of a Manager.
type Options struct {
	// Logger receives structured logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records Prometheus metrics. Nil disables metrics.
	Metrics *Metrics

	// Skills are listed in the system prompt when set.
	Skills SkillRegistry

	// SystemPrompt replaces DefaultSystemPrompt.
	SystemPrompt string

	// HistoryAdapter persists session history under the session id.
	// Nil keeps history in memory only.
	HistoryAdapter store.Adapter

	// TokenCounter estimates prompt size before each request.
	TokenCounter TokenCounter

	// ChatOptions are passed through on every model request.
	ChatOptions []ai.Option
}

// Option is a functional option for configuring a Manager.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithSkills lists the registry's skills in the system prompt.
func WithSkills(s SkillRegistry) Option {
	return func(o *Options) {
		o.Skills = s
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithHistoryAdapter persists session history through adapter.
func WithHistoryAdapter(adapter store.Adapter) Option {
	return func(o *Options) {
		o.HistoryAdapter = adapter
	}
}

// WithTokenCounter enables prompt size estimates.
func WithTokenCounter(c TokenCounter) Option {
	return func(o *Options) {
		o.TokenCounter = c
	}
}

// WithChatOptions adds options passed to every model request.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		SystemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// SessionOptions configures a single session.
type SessionOptions struct {
	// Provider selects the model vendor. Defaults to Settings.DefaultProvider().
	Provider string
	// Model is passed to the model factory.
	Model ai.ModelOptions
	// SelectedTools is the initial tool selection. Nil uses the persisted
	// selection, or every registered tool if none was saved.
	SelectedTools []string
}

// SessionOption is a functional option for configuring a session.
type SessionOption func(*SessionOptions)

// WithProvider sets the session's provider id.
func WithProvider(id string) SessionOption {
	return func(o *SessionOptions) {
		o.Provider = id
	}
}

// WithModelOptions sets the options passed to the model factory.
func WithModelOptions(m ai.ModelOptions) SessionOption {
	return func(o *SessionOptions) {
		o.Model = m
	}
}

// WithSelectedTools sets the initial tool selection.
func WithSelectedTools(names ...string) SessionOption {
	return func(o *SessionOptions) {
		o.SelectedTools = append([]string{}, names...)
	}
}
