package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/spetersoncode/cellmate"
)

const defaultMaxTokens = 4096

// Client wraps the Anthropic SDK to implement ai.ModelHandle.
type Client struct {
	client        *anthropic.Client
	model         ChatModel
	maxTokens     int
	temperature   *float64
	contextWindow int
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		model:         DefaultChatModel,
		maxTokens:     defaultMaxTokens,
		contextWindow: DefaultContextWindow,
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, opt := range opts {
		opt(c, &reqOpts)
	}
	client := anthropic.NewClient(reqOpts...)
	c.client = &client
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client, *[]option.RequestOption)

// WithModel sets the default model for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens sets the default output cap.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t *float64) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		c.temperature = t
	}
}

// WithContextWindow overrides the reported context window.
func WithContextWindow(n int) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		if n > 0 {
			c.contextWindow = n
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) ClientOption {
	return func(_ *Client, opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithBaseURL(url))
	}
}

// Info describes the configured model.
func (c *Client) Info() ai.ModelInfo {
	return ai.ModelInfo{
		Provider:      ai.ProviderAnthropic,
		Model:         c.model.String(),
		ContextWindow: c.contextWindow,
	}
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	params := c.buildParams(messages, ai.ApplyOptions(opts...))

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := make(chan ai.StreamEvent)

	go func() {
		defer close(ch)
		defer stream.Close()

		send := func(ev ai.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var acc anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				send(ai.StreamEvent{Err: err})
				return
			}

			if event.Type != "content_block_delta" {
				continue
			}
			delta := event.AsContentBlockDelta()
			if text := delta.Delta.AsTextDelta(); text.Type == "text_delta" && text.Text != "" {
				if !send(ai.StreamEvent{Delta: text.Text}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(ai.StreamEvent{Err: wrapError(err)})
			return
		}
		send(ai.StreamEvent{Done: true, Response: convertResponse(&acc)})
	}()

	return ch, nil
}

func (c *Client) buildParams(messages []ai.Message, options *ai.Options) anthropic.MessageNewParams {
	model := c.model
	if options.Model != "" {
		model = ChatModel(options.Model)
	}
	maxTokens := c.maxTokens
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.String()),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	temperature := c.temperature
	if options.Temperature != nil {
		temperature = options.Temperature
	}
	if temperature != nil {
		params.Temperature = anthropic.Float(*temperature)
	}
	if len(options.Tools) > 0 && options.ToolChoice != ai.ToolChoiceNone {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}
	return params
}

var _ ai.ModelHandle = (*Client)(nil)
