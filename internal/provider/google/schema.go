package google

import (
	"encoding/json"

	"google.golang.org/genai"
)

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// convertSchema maps the subset of JSON Schema that tool parameters use
// onto genai.Schema. Unknown keywords are dropped.
func convertSchema(raw json.RawMessage) *genai.Schema {
	if len(raw) == 0 {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil
	}
	return convertSchemaObject(schema)
}

func convertSchemaObject(schema map[string]any) *genai.Schema {
	result := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		result.Type = schemaTypes[t]
	}
	if desc, ok := schema["description"].(string); ok {
		result.Description = desc
	}
	for _, e := range stringList(schema["enum"]) {
		result.Enum = append(result.Enum, e)
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				result.Properties[name] = convertSchemaObject(pm)
			}
		}
	}
	result.Required = stringList(schema["required"])
	if items, ok := schema["items"].(map[string]any); ok {
		result.Items = convertSchemaObject(items)
	}
	return result
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
