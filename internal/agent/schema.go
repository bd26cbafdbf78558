package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// mustCompileSchema compiles a tool's input schema. Schemas are package
// constants, so a compile failure is a programming error.
func mustCompileSchema(name, src string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := c.AddResource(url, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("tool %s: invalid schema: %v", name, err))
	}
	s, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("tool %s: invalid schema: %v", name, err))
	}
	return s
}

// decodeInput validates raw against schema and decodes it into out.
// A missing input is validated as JSON null. Non-object input is reported
// with the schema's required fields.
func decodeInput(schema *jsonschema.Schema, raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		reason := schemaReason(err)
		if _, isObject := doc.(map[string]any); !isObject && len(schema.Required) > 0 {
			reason += fmt.Sprintf(" (requires %s)", strings.Join(schema.Required, ", "))
		}
		return fmt.Errorf("invalid input: %s", reason)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// schemaReason flattens a validation error to its leaf messages.
func schemaReason(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	var reasons []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "input"
			}
			reasons = append(reasons, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(reasons, "; ")
}
