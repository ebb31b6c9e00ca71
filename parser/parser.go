package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/oasgate/oaserrors"
)

// objectSource is the SourcePath reported for in-memory documents.
const objectSource = "<object>"

// ParseResult contains a loaded document in two forms: the raw decoded data
// (served verbatim by the gateway's spec endpoint) and the typed Document
// used to compile validators.
//
// Callers should treat ParseResult as read-only after parsing.
type ParseResult struct {
	// SourcePath is the file the document was read from, or "<object>".
	SourcePath string
	// SourceFormat is the format the document was decoded from.
	SourceFormat SourceFormat
	// SourceVersion is the version declared by the source ("2.0" or "3.0.x").
	SourceVersion string
	// Version is the OpenAPI version of Data and Document. It differs from
	// SourceVersion only when a Swagger 2.0 document was converted.
	Version string
	// Converted reports whether the source was a Swagger 2.0 document.
	Converted bool
	// Data is the OpenAPI 3.0 document as generic JSON-compatible values:
	// map[string]any, []any, string, float64/int, bool and nil.
	Data map[string]any
	// Document is the typed view of Data.
	Document *Document
	// Warnings are non-fatal observations made while loading.
	Warnings []string
}

// JSON renders Data as JSON.
func (r *ParseResult) JSON() ([]byte, error) {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal document: %w", err)
	}
	return data, nil
}

// Title returns info.title, or an empty string.
func (r *ParseResult) Title() string {
	if r == nil || r.Document == nil || r.Document.Info == nil {
		return ""
	}
	return r.Document.Info.Title
}

// Option is a function that configures a parse operation
type Option func(*parseConfig) error

// parseConfig holds configuration for a parse operation
type parseConfig struct {
	// Input source (exactly one must be set)
	filePath *string
	object   map[string]any
	bytes    []byte

	format     SourceFormat
	sourceName *string
	logger     Logger
}

// ParseWithOptions loads an OpenAPI document using functional options.
//
// Example:
//
//	result, err := parser.ParseWithOptions(
//	    parser.WithFilePath("openapi.yaml"),
//	    parser.WithLogger(logger),
//	)
func ParseWithOptions(opts ...Option) (*ParseResult, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("parser: invalid options: %w", err)
	}
	log := cfg.logger

	var (
		source string
		format SourceFormat
		raw    map[string]any
	)
	switch {
	case cfg.filePath != nil:
		source = *cfg.filePath
		format, err = DetectFormatFromPath(source)
		if err != nil {
			return nil, err
		}
		data, readErr := os.ReadFile(filepath.Clean(source))
		if readErr != nil {
			return nil, fmt.Errorf("parser: failed to read file: %w", readErr)
		}
		raw, err = decodeBytes(source, data, format)
	case cfg.bytes != nil:
		source = objectSource
		format = cfg.format
		if format == "" || format == SourceFormatUnknown {
			format = detectFormatFromContent(cfg.bytes)
		}
		raw, err = decodeBytes(source, cfg.bytes, format)
	default:
		source = objectSource
		format = SourceFormatObject
		raw, err = normalizeObject(cfg.object)
		if err != nil {
			err = &oaserrors.ParseError{Path: source, Message: "document object is not JSON-compatible", Cause: err}
		}
	}
	if err != nil {
		return nil, err
	}
	if cfg.sourceName != nil {
		source = *cfg.sourceName
	}

	result, err := buildResult(source, format, raw, log)
	if err != nil {
		return nil, err
	}
	log.Debug("document loaded",
		"source", result.SourcePath,
		"format", result.SourceFormat,
		"version", result.Version,
		"converted", result.Converted,
		"paths", len(result.Document.Paths))
	return result, nil
}

// buildResult detects the version, converts Swagger 2.0 and decodes the typed view.
func buildResult(source string, format SourceFormat, raw map[string]any, log Logger) (*ParseResult, error) {
	sourceVersion, err := detectVersion(source, raw)
	if err != nil {
		return nil, err
	}
	result := &ParseResult{
		SourcePath:    source,
		SourceFormat:  format,
		SourceVersion: sourceVersion,
		Version:       sourceVersion,
		Data:          raw,
	}

	if sourceVersion == VersionSwagger2 {
		converted, convErr := convertSwagger2(raw)
		if convErr != nil {
			return nil, convErr
		}
		result.Data = converted
		result.Converted = true
		if v, ok := converted["openapi"].(string); ok {
			result.Version = v
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("converted Swagger %s document to OpenAPI %s", sourceVersion, result.Version))
		log.Info("converted Swagger 2.0 document", "source", source, "version", result.Version)
	}

	doc, err := decodeDocument(result.Data)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: source, Message: "failed to decode OpenAPI 3.0 document", Cause: err}
	}
	result.Document = doc
	return result, nil
}

// decodeBytes decodes JSON or YAML into normalized generic data.
func decodeBytes(source string, data []byte, format SourceFormat) (map[string]any, error) {
	var raw any
	switch format {
	case SourceFormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &oaserrors.ParseError{Path: source, Message: "invalid JSON", Cause: err}
		}
	case SourceFormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &oaserrors.ParseError{Path: source, Message: "invalid YAML", Cause: err}
		}
	default:
		return nil, &oaserrors.ParseError{Path: source, Message: "empty document"}
	}
	normalized, err := normalizeValue(raw)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: source, Message: "document is not JSON-compatible", Cause: err}
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil, &oaserrors.ParseError{Path: source, Message: fmt.Sprintf("document root must be an object, got %T", normalized)}
	}
	return m, nil
}

// decodeDocument decodes the typed Document from generic data.
func decodeDocument(data map[string]any) (*Document, error) {
	var doc Document
	if err := remarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		doc.Paths = Paths{}
	}
	return &doc, nil
}

// applyOptions applies option functions and validates configuration
func applyOptions(opts ...Option) (*parseConfig, error) {
	cfg := &parseConfig{logger: NopLogger{}}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	sources := 0
	for _, set := range []bool{cfg.filePath != nil, cfg.object != nil, cfg.bytes != nil} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return nil, &oaserrors.ConfigError{Option: "source", Message: "must specify an input source (use WithFilePath, WithObject, or WithBytes)", Cause: oaserrors.ErrMissingDocument}
	case sources > 1:
		return nil, &oaserrors.ConfigError{Option: "source", Message: "must specify exactly one input source"}
	}
	return cfg, nil
}

// WithFilePath specifies a .json, .yaml or .yml file as the input source
func WithFilePath(path string) Option {
	return func(cfg *parseConfig) error {
		cfg.filePath = &path
		return nil
	}
}

// WithObject specifies an already-decoded document as the input source.
// The object is deep-copied; later changes by the caller are not observed.
func WithObject(doc map[string]any) Option {
	return func(cfg *parseConfig) error {
		if doc == nil {
			return &oaserrors.ConfigError{Option: "object", Message: "document object cannot be nil"}
		}
		cfg.object = doc
		return nil
	}
}

// WithBytes specifies raw document bytes as the input source.
// Pass SourceFormatUnknown to detect JSON or YAML from the content.
func WithBytes(data []byte, format SourceFormat) Option {
	return func(cfg *parseConfig) error {
		if data == nil {
			return &oaserrors.ConfigError{Option: "bytes", Message: "bytes cannot be nil"}
		}
		cfg.bytes = data
		cfg.format = format
		return nil
	}
}

// WithSourceName overrides the SourcePath reported in the result and in errors
// raised after decoding.
func WithSourceName(name string) Option {
	return func(cfg *parseConfig) error {
		cfg.sourceName = &name
		return nil
	}
}

// WithLogger sets the structured logger.
// Default: NopLogger (no output)
func WithLogger(l Logger) Option {
	return func(cfg *parseConfig) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	}
}
