package processor

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// visionResponseSchema accepts any non-empty object. Keys the record does not
// read may hold anything.
var visionResponseSchema = map[string]any{
	"$schema":       "http://json-schema.org/draft-07/schema#",
	"type":          "object",
	"minProperties": 1,
}

// visionFieldSchema is checked against the value of every key that maps onto a
// record field. Nested objects, arrays and booleans there mean the model
// ignored the instruction.
var visionFieldSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    []string{"string", "number", "null"},
}

func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(name)
}
