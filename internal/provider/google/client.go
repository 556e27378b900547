package google

import (
	"context"
	"errors"
	"strings"

	ai "github.com/spetersoncode/cellmate"
	"google.golang.org/genai"
)

var errEmptyStream = errors.New("google: stream returned no data")

// Client wraps the genai SDK to implement ai.ModelHandle.
type Client struct {
	client        *genai.Client
	model         ChatModel
	maxTokens     int
	temperature   *float64
	contextWindow int
}

// ClientOption configures the Gemini client.
type ClientOption func(*Client, *genai.ClientConfig)

// New creates a Gemini API client.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	c := &Client{model: DefaultChatModel, contextWindow: DefaultContextWindow}
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	for _, opt := range opts {
		opt(c, cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.client = client
	return c, nil
}

// WithModel sets the default model for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *Client, _ *genai.ClientConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps output tokens.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client, _ *genai.ClientConfig) {
		c.maxTokens = n
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t *float64) ClientOption {
	return func(c *Client, _ *genai.ClientConfig) {
		c.temperature = t
	}
}

// WithContextWindow overrides the reported context window.
func WithContextWindow(n int) ClientOption {
	return func(c *Client, _ *genai.ClientConfig) {
		if n > 0 {
			c.contextWindow = n
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) ClientOption {
	return func(_ *Client, cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// Info describes the configured model.
func (c *Client) Info() ai.ModelInfo {
	return ai.ModelInfo{Provider: ai.ProviderGoogle, Model: c.model.String(), ContextWindow: c.contextWindow}
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = ChatModel(options.Model)
	}
	contents, system := convertMessages(messages)
	config := c.buildConfig(options, system)

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

		var (
			text     strings.Builder
			finish   string
			usage    ai.Usage
			allParts []*genai.Part
			chunks   int
		)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, model.String(), contents, config) {
			chunks++
			if err != nil {
				send(ai.StreamEvent{Err: wrapError(err)})
				return
			}
			if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
				send(ai.StreamEvent{Err: &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}})
				return
			}
			if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				for _, part := range resp.Candidates[0].Content.Parts {
					allParts = append(allParts, part)
					if part.Text == "" || part.Thought {
						continue
					}
					text.WriteString(part.Text)
					if !send(ai.StreamEvent{Delta: part.Text}) {
						return
					}
				}
				finish = string(resp.Candidates[0].FinishReason)
			}
			if resp.UsageMetadata != nil {
				usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
				usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
		}

		if chunks == 0 {
			send(ai.StreamEvent{Err: errEmptyStream})
			return
		}
		send(ai.StreamEvent{
			Done: true,
			Response: &ai.Response{
				Content:      text.String(),
				FinishReason: finish,
				Usage:        usage,
				ToolCalls:    extractToolCalls(allParts),
			},
		})
	}()

	return ch, nil
}

func (c *Client) buildConfig(options *ai.Options, system *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	maxTokens := c.maxTokens
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	temperature := c.temperature
	if options.Temperature != nil {
		temperature = options.Temperature
	}
	if temperature != nil {
		t := float32(*temperature)
		config.Temperature = &t
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}
	return config
}

var _ ai.ModelHandle = (*Client)(nil)
