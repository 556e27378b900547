package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/cellmate"
)

// Client wraps the OpenAI SDK to implement ai.ModelHandle.
type Client struct {
	client        *openai.Client
	model         ChatModel
	maxTokens     int
	temperature   *float64
	contextWindow int
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultChatModel}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, opt := range opts {
		opt(c, &reqOpts)
	}
	client := openai.NewClient(reqOpts...)
	c.client = &client
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client, *[]option.RequestOption)

// WithModel sets the default model for requests.
func WithModel(model ChatModel) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps completion tokens. Zero leaves the API default.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		c.maxTokens = n
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
		c.contextWindow = n
	}
}

// WithBaseURL points the client at another endpoint, such as a compatible
// local server.
func WithBaseURL(url string) ClientOption {
	return func(_ *Client, opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithBaseURL(url))
	}
}

// Info describes the configured model.
func (c *Client) Info() ai.ModelInfo {
	window := c.contextWindow
	if window == 0 {
		window = c.model.ContextWindow()
	}
	return ai.ModelInfo{Provider: ai.ProviderOpenAI, Model: c.model.String(), ContextWindow: window}
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	params := c.buildParams(messages, ai.ApplyOptions(opts...))

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
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

		var acc openai.ChatCompletionAccumulator
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !send(ai.StreamEvent{Delta: chunk.Choices[0].Delta.Content}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(ai.StreamEvent{Err: wrapError(err)})
			return
		}

		resp := &ai.Response{
			Usage: ai.Usage{
				InputTokens:  int(acc.Usage.PromptTokens),
				OutputTokens: int(acc.Usage.CompletionTokens),
			},
		}
		if len(acc.Choices) > 0 {
			choice := acc.Choices[0]
			resp.Content = choice.Message.Content
			resp.FinishReason = string(choice.FinishReason)
			resp.ToolCalls = extractToolCalls(choice.Message.ToolCalls)
		}
		send(ai.StreamEvent{Done: true, Response: resp})
	}()

	return ch, nil
}

func (c *Client) buildParams(messages []ai.Message, options *ai.Options) openai.ChatCompletionNewParams {
	model := c.model
	if options.Model != "" {
		model = ChatModel(options.Model)
	}

	params := openai.ChatCompletionNewParams{
		Model:    model.String(),
		Messages: convertMessages(messages),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	maxTokens := c.maxTokens
	if options.MaxTokens > 0 {
		maxTokens = options.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}
	temperature := c.temperature
	if options.Temperature != nil {
		temperature = options.Temperature
	}
	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(options.ToolChoice)),
			}
		}
	}
	return params
}

var _ ai.ModelHandle = (*Client)(nil)
