package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "memes-config.schema.json"

var (
	compileOnce sync.Once
	compiled    *validator.Schema
	compileErr  error
)

// Schema returns the JSON schema of Config.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		Anonymous:      true,
	}
	s := r.Reflect(&Config{})
	s.Title = "memes extension configuration"

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling config schema: %w", err)
	}
	return b, nil
}

// ValidateDocument checks a decoded JSON document against Schema.
func ValidateDocument(doc any) error {
	compileOnce.Do(func() {
		var raw []byte
		if raw, compileErr = Schema(); compileErr != nil {
			return
		}
		c := validator.NewCompiler()
		c.Draft = validator.Draft2020
		if compileErr = c.AddResource(schemaURL, bytes.NewReader(raw)); compileErr != nil {
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	if compileErr != nil {
		return fmt.Errorf("compiling config schema: %w", compileErr)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
