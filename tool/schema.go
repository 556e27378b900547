package tool

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor generates a JSON schema for the parameters struct T.
// Struct fields are inlined and "$schema" is omitted, which is the shape
// model vendors expect for tool parameters.
func SchemaFor[T any]() (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	var zero T
	s := r.Reflect(&zero)
	s.Version = ""
	s.ID = ""

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("tool: generate schema: %w", err)
	}
	return data, nil
}

// MustSchemaFor is like SchemaFor but panics on error.
func MustSchemaFor[T any]() json.RawMessage {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// EmptySchema is the parameter schema of a tool that takes no arguments.
var EmptySchema = json.RawMessage(`{"type":"object","properties":{}}`)
