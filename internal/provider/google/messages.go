package google

import (
	"encoding/json"
	"strings"

	ai "github.com/spetersoncode/cellmate"
	"google.golang.org/genai"
)

// convertMessages splits out the system instruction and maps the rest to
// Gemini contents.
func convertMessages(messages []ai.Message) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   []string
	)
	callNames := make(map[string]string)

	for _, msg := range messages {
		var parts []*genai.Part
		role := "user"

		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		case ai.RoleAssistant:
			role = "model"
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				callNames[tc.ID] = tc.Name
				args := map[string]any{}
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &args)
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
				})
			}
		case ai.RoleTool:
			for _, tr := range msg.ToolResults {
				key := "output"
				if tr.IsError {
					key = "error"
				}
				name := callNames[tr.ToolCallID]
				if name == "" {
					name = tr.ToolCallID
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       tr.ToolCallID,
						Name:     name,
						Response: map[string]any{key: tr.Content},
					},
				})
			}
		default:
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}

	if len(system) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
}

func convertTools(tools []ai.Tool) []*genai.Tool {
	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func convertToolChoice(choice ai.ToolChoice) *genai.ToolConfig {
	mode := genai.FunctionCallingConfigModeAuto
	switch choice {
	case ai.ToolChoiceNone:
		mode = genai.FunctionCallingConfigModeNone
	case ai.ToolChoiceRequired:
		mode = genai.FunctionCallingConfigModeAny
	}
	return &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode}}
}

// extractToolCalls collects function calls. Gemini may omit call ids; those
// calls keep an empty id and the agent assigns a unique one.
func extractToolCalls(parts []*genai.Part) []ai.ToolCall {
	var calls []ai.ToolCall
	for _, part := range parts {
		if part.FunctionCall == nil {
			continue
		}
		args, _ := json.Marshal(part.FunctionCall.Args)
		calls = append(calls, ai.ToolCall{
			ID:        part.FunctionCall.ID,
			Name:      part.FunctionCall.Name,
			Arguments: string(args),
		})
	}
	return calls
}
