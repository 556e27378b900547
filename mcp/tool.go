package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/spetersoncode/cellmate"
)

// ToMCPTool converts a tool definition to an MCP tool. The parameter
// schema is passed through as the raw input schema.
func ToMCPTool(t ai.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// FromMCPTool converts an MCP tool to a tool definition, preferring the
// raw input schema when the server sent one.
func FromMCPTool(t mcp.Tool) ai.Tool {
	schema := t.RawInputSchema
	if len(schema) == 0 {
		if data, err := json.Marshal(t.InputSchema); err == nil {
			schema = data
		}
	}
	return ai.Tool{Name: t.Name, Description: t.Description, Parameters: schema}
}

// callRequest builds the MCP request for call under the remote name.
// Arguments that are not valid JSON are sent as a plain string.
func callRequest(remoteName string, call ai.ToolCall) mcp.CallToolRequest {
	var args any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			args = call.Arguments
		}
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: remoteName, Arguments: args},
	}
}

// resultText flattens an MCP result into text. Non-text content and
// structured content are rendered as JSON, one item per line.
func resultText(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", true
	}
	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n"), result.IsError
}
