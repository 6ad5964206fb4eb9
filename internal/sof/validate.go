package sof

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError reports that an externally sourced payload does not conform
// to the SOF schema. It is a hard failure: nonconforming payloads are never
// coerced or defaulted.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sof record does not conform to schema: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// compiledSchema compiles the canonical schema once per process.
func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(JSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("failed to serialize sof schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("sof.json", bytes.NewReader(raw)); err != nil {
			compileErr = fmt.Errorf("failed to load sof schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("sof.json")
	})
	return compiled, compileErr
}

// Validate checks a raw JSON payload against the canonical schema.
// Returns a *ValidationError when the payload is not valid JSON or does not
// conform to the schema.
func Validate(raw json.RawMessage) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ValidationError{Err: fmt.Errorf("payload is not valid JSON: %w", err)}
	}
	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Decode validates a raw JSON payload and unmarshals it into a Record.
func Decode(raw json.RawMessage) (*Record, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, &ValidationError{Err: err}
	}
	return &rec, nil
}
