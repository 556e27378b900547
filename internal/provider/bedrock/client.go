package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/internal/provider/httperr"
)

const (
	// DefaultModel is a cross-region Claude inference profile.
	DefaultModel = "us.anthropic.claude-sonnet-4-5-20250929-v1:0"

	DefaultContextWindow = 200_000
	defaultMaxTokens     = 4096
)

// Invoker is the subset of the Bedrock runtime client used here.
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client implements ai.ModelHandle on Bedrock.
type Client struct {
	runtime       Invoker
	model         string
	maxTokens     int
	temperature   *float64
	contextWindow int
}

// ClientOption configures the Bedrock client.
type ClientOption func(*Client)

// WithModel sets the Bedrock model or inference profile id.
func WithModel(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.model = id
		}
	}
}

// WithMaxTokens sets the default output cap.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t *float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithContextWindow overrides the reported context window.
func WithContextWindow(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.contextWindow = n
		}
	}
}

// New loads the default AWS configuration, optionally pinned to region,
// and creates a client.
func New(ctx context.Context, region string, opts ...ClientOption) (*Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return NewWithInvoker(bedrockruntime.NewFromConfig(cfg), opts...), nil
}

// NewWithInvoker creates a client around an existing runtime client.
func NewWithInvoker(runtime Invoker, opts ...ClientOption) *Client {
	c := &Client{
		runtime:       runtime,
		model:         DefaultModel,
		maxTokens:     defaultMaxTokens,
		contextWindow: DefaultContextWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info describes the configured model.
func (c *Client) Info() ai.ModelInfo {
	return ai.ModelInfo{Provider: ai.ProviderBedrock, Model: c.model, ContextWindow: c.contextWindow}
}

// ChatStream invokes the model and relays the reply as one delta.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}
	payload, err := json.Marshal(buildBody(messages, options, c.maxTokens, c.temperature))
	if err != nil {
		return nil, fmt.Errorf("bedrock: encode request: %w", err)
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

		out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(model),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        payload,
		})
		if err != nil {
			send(ai.StreamEvent{Err: wrapError(err)})
			return
		}

		var body responseBody
		if err := json.Unmarshal(out.Body, &body); err != nil {
			send(ai.StreamEvent{Err: fmt.Errorf("bedrock: decode response: %w", err)})
			return
		}
		resp := body.toResponse()
		if resp.Content != "" && !send(ai.StreamEvent{Delta: resp.Content}) {
			return
		}
		send(ai.StreamEvent{Done: true, Response: resp})
	}()
	return ch, nil
}

func wrapError(err error) error {
	var re *awshttp.ResponseError
	if !errors.As(err, &re) {
		return err
	}
	return httperr.Categorize(err.Error(), re.HTTPStatusCode(), 0, err)
}

var _ ai.ModelHandle = (*Client)(nil)
