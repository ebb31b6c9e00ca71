package httpvalidator

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// metaSchemaURL is the identifier the embedded OpenAPI 3.0 schema is
// registered under.
const metaSchemaURL = "https://spec.openapis.org/oas/3.0/schema/2021-09-28"

//go:embed metaschema/openapi-3.0.json
var metaSchemaSource string

var (
	metaSchemaOnce sync.Once
	metaSchema     *jsonschema.Schema
	metaSchemaErr  error
)

// loadMetaSchema compiles the embedded meta-schema exactly once.
func loadMetaSchema() (*jsonschema.Schema, error) {
	metaSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft4
		if err := compiler.AddResource(metaSchemaURL, strings.NewReader(metaSchemaSource)); err != nil {
			metaSchemaErr = fmt.Errorf("httpvalidator: loading meta-schema: %w", err)
			return
		}
		metaSchema, metaSchemaErr = compiler.Compile(metaSchemaURL)
		if metaSchemaErr != nil {
			metaSchemaErr = fmt.Errorf("httpvalidator: compiling meta-schema: %w", metaSchemaErr)
		}
	})
	return metaSchema, metaSchemaErr
}

// CheckDocument validates raw document data against the OpenAPI 3.0
// meta-schema. It returns nil when the document is structurally sound,
// otherwise one violation per failing instance location.
func CheckDocument(data map[string]any) ([]ValidationError, error) {
	schema, err := loadMetaSchema()
	if err != nil {
		return nil, err
	}

	// The validator understands json.Number but not every Go numeric type,
	// so the document goes through a JSON round trip first.
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("httpvalidator: encoding document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("httpvalidator: decoding document: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("httpvalidator: meta-schema validation: %w", err)
	}
	return flattenSchemaErrors(ve), nil
}

// flattenSchemaErrors collects the leaves of a validation error tree.
// Leaves sharing a location and message are reported once.
func flattenSchemaErrors(ve *jsonschema.ValidationError) []ValidationError {
	seen := make(map[string]bool)
	var out []ValidationError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		field := e.InstanceLocation
		if field == "" {
			field = "/"
		}
		key := field + "\x00" + e.Message
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, ValidationError{Field: field, Location: LocationDocument, Reason: e.Message})
	}
	walk(ve)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
