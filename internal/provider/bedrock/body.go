package bedrock

import (
	"encoding/json"
	"strings"

	ai "github.com/spetersoncode/cellmate"
)

const anthropicVersion = "bedrock-2023-05-31"

type requestBody struct {
	AnthropicVersion string         `json:"anthropic_version"`
	MaxTokens        int            `json:"max_tokens"`
	System           string         `json:"system,omitempty"`
	Messages         []message      `json:"messages"`
	Tools            []toolSpec     `json:"tools,omitempty"`
	ToolChoice       map[string]any `json:"tool_choice,omitempty"`
	Temperature      *float64       `json:"temperature,omitempty"`
}

type message struct {
	Role    string  `json:"role"`
	Content []block `json:"content"`
}

type block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type toolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type responseBody struct {
	Content    []block `json:"content"`
	StopReason string  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

var emptyObject = json.RawMessage(`{"type":"object","properties":{}}`)

func buildBody(messages []ai.Message, options *ai.Options, maxTokens int, temperature *float64) requestBody {
	body := requestBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
	}
	if options.MaxTokens > 0 {
		body.MaxTokens = options.MaxTokens
	}
	if options.Temperature != nil {
		body.Temperature = options.Temperature
	}

	var system []string
	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
		case ai.RoleAssistant:
			var blocks []block
			if msg.Content != "" {
				blocks = append(blocks, block{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, block{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: tc.Input()})
			}
			if len(blocks) > 0 {
				body.Messages = append(body.Messages, message{Role: "assistant", Content: blocks})
			}
		case ai.RoleTool:
			var blocks []block
			for _, tr := range msg.ToolResults {
				blocks = append(blocks, block{Type: "tool_result", ToolUseID: tr.ToolCallID, Content: tr.Content, IsError: tr.IsError})
			}
			if len(blocks) > 0 {
				body.Messages = append(body.Messages, message{Role: "user", Content: blocks})
			}
		default:
			if msg.Content != "" {
				body.Messages = append(body.Messages, message{Role: "user", Content: []block{{Type: "text", Text: msg.Content}}})
			}
		}
	}
	body.System = strings.Join(system, "\n\n")

	if len(options.Tools) > 0 && options.ToolChoice != ai.ToolChoiceNone {
		for _, t := range options.Tools {
			schema := t.Parameters
			if len(schema) == 0 {
				schema = emptyObject
			}
			body.Tools = append(body.Tools, toolSpec{Name: t.Name, Description: t.Description, InputSchema: schema})
		}
		if options.ToolChoice == ai.ToolChoiceRequired {
			body.ToolChoice = map[string]any{"type": "any"}
		}
	}
	return body
}

func (r *responseBody) toResponse() *ai.Response {
	var text strings.Builder
	var calls []ai.ToolCall
	for _, b := range r.Content {
		switch b.Type {
		case "text":
			text.WriteString(b.Text)
		case "tool_use":
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			calls = append(calls, ai.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	return &ai.Response{
		Content:      text.String(),
		FinishReason: r.StopReason,
		Usage:        ai.Usage{InputTokens: r.Usage.InputTokens, OutputTokens: r.Usage.OutputTokens},
		ToolCalls:    calls,
	}
}
