package cellmate

// Options contains configuration for a single model request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	Tools       []Tool
	ToolChoice  ToolChoice
}

// Option is a functional option for configuring model requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTools offers the given tools to the model.
func WithTools(tools ...Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// WithToolChoice controls whether the model must, may, or must not call tools.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) {
		o.ToolChoice = choice
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ModelOptions configures a model handle at creation time.
type ModelOptions struct {
	// Model overrides the provider's default model.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// MaxTokens caps generated tokens per request. Zero uses the provider default.
	MaxTokens int `json:"maxTokens,omitempty" yaml:"max_tokens,omitempty"`
	// Temperature is passed through when set.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// ContextWindow overrides the known context window size, in tokens.
	ContextWindow int `json:"contextWindow,omitempty" yaml:"context_window,omitempty"`
}
