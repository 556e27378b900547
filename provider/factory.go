package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/internal/provider/anthropic"
	"github.com/spetersoncode/cellmate/internal/provider/bedrock"
	"github.com/spetersoncode/cellmate/internal/provider/google"
	"github.com/spetersoncode/cellmate/internal/provider/openai"
)

var (
	// ErrUnknownProvider is returned for provider ids without a builder.
	ErrUnknownProvider = errors.New("provider: unknown provider")

	// ErrMissingAPIKey is returned when a provider's credentials are absent.
	ErrMissingAPIKey = errors.New("provider: missing API key")
)

const defaultCacheSize = 16

// Builder creates a handle for one provider.
type Builder func(ctx context.Context, cfg Config, opts ai.ModelOptions) (ai.ModelHandle, error)

// Factory creates model handles by provider id. It is safe for concurrent use.
type Factory struct {
	cfg      Config
	log      *slog.Logger
	mu       sync.RWMutex
	build    map[string]Builder
	defaults map[string]ai.ModelOptions
	cache    *lru.Cache[cacheKey, ai.ModelHandle]
}

// Option configures a Factory.
type Option func(*Factory)

// WithBuilder registers or replaces the builder for id.
func WithBuilder(id string, b Builder) Option {
	return func(f *Factory) {
		f.build[id] = b
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		f.log = l
	}
}

// WithModelDefaults sets per-provider options used for any field a
// CreateModel call leaves at its zero value.
func WithModelDefaults(defaults map[string]ai.ModelOptions) Option {
	return func(f *Factory) {
		f.defaults = defaults
	}
}

// WithCacheSize bounds the number of cached handles.
func WithCacheSize(n int) Option {
	return func(f *Factory) {
		if n > 0 {
			f.cache, _ = lru.New[cacheKey, ai.ModelHandle](n)
		}
	}
}

type cacheKey struct {
	provider      string
	model         string
	maxTokens     int
	temperature   string
	contextWindow int
}

func keyFor(id string, o ai.ModelOptions) cacheKey {
	k := cacheKey{provider: id, model: o.Model, maxTokens: o.MaxTokens, contextWindow: o.ContextWindow}
	if o.Temperature != nil {
		k.temperature = fmt.Sprintf("%g", *o.Temperature)
	}
	return k
}

// NewFactory creates a factory with the built-in providers.
func NewFactory(cfg Config, opts ...Option) *Factory {
	cache, _ := lru.New[cacheKey, ai.ModelHandle](defaultCacheSize)
	f := &Factory{
		cfg:   cfg,
		log:   slog.Default(),
		cache: cache,
		build: map[string]Builder{
			ai.ProviderAnthropic.String(): buildAnthropic,
			ai.ProviderOpenAI.String():    buildOpenAI,
			ai.ProviderGoogle.String():    buildGoogle,
			ai.ProviderBedrock.String():   buildBedrock,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateModel returns a handle for providerID, reusing a cached one built
// with the same options.
func (f *Factory) CreateModel(ctx context.Context, providerID string, opts ai.ModelOptions) (ai.ModelHandle, error) {
	opts = withDefaults(opts, f.defaults[providerID])
	key := keyFor(providerID, opts)
	if h, ok := f.cache.Get(key); ok {
		return h, nil
	}

	f.mu.RLock()
	build, ok := f.build[providerID]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}

	h, err := build(ctx, f.cfg, opts)
	if err != nil {
		return nil, err
	}
	f.cache.Add(key, h)
	info := h.Info()
	f.log.Debug("model handle created", "provider", providerID, "model", info.Model, "context_window", info.ContextWindow)
	return h, nil
}

func withDefaults(o, d ai.ModelOptions) ai.ModelOptions {
	if o.Model == "" {
		o.Model = d.Model
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = d.MaxTokens
	}
	if o.Temperature == nil {
		o.Temperature = d.Temperature
	}
	if o.ContextWindow == 0 {
		o.ContextWindow = d.ContextWindow
	}
	return o
}

// Register adds or replaces a builder after construction.
func (f *Factory) Register(id string, b Builder) {
	f.mu.Lock()
	f.build[id] = b
	f.mu.Unlock()
	f.cache.Purge()
}

// Providers lists the registered provider ids, sorted.
func (f *Factory) Providers() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]string, 0, len(f.build))
	for id := range f.build {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Configured reports whether the built-in provider id has credentials.
// Bedrock always reports true because AWS credentials are resolved lazily.
func (f *Factory) Configured(id string) bool {
	switch ai.Provider(id) {
	case ai.ProviderAnthropic:
		return f.cfg.AnthropicAPIKey != ""
	case ai.ProviderOpenAI:
		return f.cfg.OpenAIAPIKey != "" || f.cfg.OpenAIBaseURL != ""
	case ai.ProviderGoogle:
		return f.cfg.GoogleAPIKey != ""
	case ai.ProviderBedrock:
		return true
	default:
		f.mu.RLock()
		defer f.mu.RUnlock()
		_, ok := f.build[id]
		return ok
	}
}

func buildAnthropic(_ context.Context, cfg Config, o ai.ModelOptions) (ai.ModelHandle, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrMissingAPIKey)
	}
	return anthropic.New(cfg.AnthropicAPIKey,
		anthropic.WithModel(anthropic.ChatModel(o.Model)),
		anthropic.WithMaxTokens(o.MaxTokens),
		anthropic.WithTemperature(o.Temperature),
		anthropic.WithContextWindow(o.ContextWindow),
	), nil
}

func buildOpenAI(_ context.Context, cfg Config, o ai.ModelOptions) (ai.ModelHandle, error) {
	// A custom base URL usually means a local compatible server without keys.
	if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}
	opts := []openai.ClientOption{
		openai.WithModel(openai.ChatModel(o.Model)),
		openai.WithMaxTokens(o.MaxTokens),
		openai.WithTemperature(o.Temperature),
		openai.WithContextWindow(o.ContextWindow),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return openai.New(cfg.OpenAIAPIKey, opts...), nil
}

func buildGoogle(ctx context.Context, cfg Config, o ai.ModelOptions) (ai.ModelHandle, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("%w: set GOOGLE_API_KEY", ErrMissingAPIKey)
	}
	return google.New(ctx, cfg.GoogleAPIKey,
		google.WithModel(google.ChatModel(o.Model)),
		google.WithMaxTokens(o.MaxTokens),
		google.WithTemperature(o.Temperature),
		google.WithContextWindow(o.ContextWindow),
	)
}

func buildBedrock(ctx context.Context, cfg Config, o ai.ModelOptions) (ai.ModelHandle, error) {
	return bedrock.New(ctx, cfg.BedrockRegion,
		bedrock.WithModel(o.Model),
		bedrock.WithMaxTokens(o.MaxTokens),
		bedrock.WithTemperature(o.Temperature),
		bedrock.WithContextWindow(o.ContextWindow),
	)
}
