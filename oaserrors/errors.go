package oaserrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrParse indicates the document could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrUnsupportedFormat indicates a document source whose format cannot be determined.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidDocument indicates the document failed meta-schema validation or compilation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrReference indicates a $ref that could not be resolved.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a $ref chain that never reaches a definition.
	ErrCircularReference = errors.New("circular reference")

	// ErrConversion indicates a Swagger 2.0 to OpenAPI 3.0 conversion failure.
	ErrConversion = errors.New("conversion error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")

	// ErrMissingDocument indicates the gateway was configured without a document source.
	ErrMissingDocument = errors.New("missing document")

	// ErrRouteNotFound indicates no operation matched the request path and method.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotAllowed indicates the path matched but the method is not declared.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRequestValidation indicates a request that violates its operation.
	ErrRequestValidation = errors.New("request validation failed")

	// ErrResponseValidation indicates a response that violates its operation.
	ErrResponseValidation = errors.New("response validation failed")

	// ErrDecoding indicates a body decoder failure.
	ErrDecoding = errors.New("decoding failed")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")
)

// Violation is a single field-level failure.
type Violation struct {
	// Field is the parameter name or dotted body path ("owner.name", "tags[0]").
	// Empty for the body root.
	Field string `json:"field" yaml:"field"`
	// Location is where the field lives: path, query, header, cookie, body,
	// response, or document.
	Location string `json:"location" yaml:"location"`
	// Reason describes the failure.
	Reason string `json:"reason" yaml:"reason"`
}

// String renders the violation as "location.field: reason".
func (v Violation) String() string {
	var sb strings.Builder
	sb.WriteString(v.Location)
	if v.Field != "" {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(v.Field)
	}
	if sb.Len() > 0 {
		sb.WriteString(": ")
	}
	sb.WriteString(v.Reason)
	return sb.String()
}

func joinViolations(prefix string, vs []Violation) string {
	if len(vs) == 0 {
		return prefix
	}
	if len(vs) == 1 {
		return prefix + ": " + vs[0].String()
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s (%d violations): %s", prefix, len(vs), strings.Join(parts, "; "))
}

// ParseError represents a failure to decode a document.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// UnsupportedFormatError is returned when a document source's format cannot
// be determined from its file extension.
type UnsupportedFormatError struct {
	// Path is the rejected source path
	Path string
	// Extension is the offending extension, including the dot (may be empty)
	Extension string
}

// Error returns a human-readable error message.
func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported document format %s for %q: expected .json, .yaml or .yml", ext, e.Path)
}

// Is reports whether target matches this error type.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// InvalidDocumentError aggregates every structural problem found while
// validating a document against the OpenAPI meta-schema or compiling it.
type InvalidDocumentError struct {
	// Source is the document path or "<object>" for in-memory documents
	Source string
	// Violations lists every problem found, in document order where known
	Violations []Violation
}

// Error returns a human-readable error message.
func (e *InvalidDocumentError) Error() string {
	prefix := "invalid document"
	if e.Source != "" {
		prefix += " " + e.Source
	}
	return joinViolations(prefix, e.Violations)
}

// Is reports whether target matches this error type.
func (e *InvalidDocumentError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// IsCircular is true if the chain loops without reaching a definition
	IsCircular bool
	// Message provides additional context about the failure
	Message string
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
// Matches ErrReference, and ErrCircularReference when IsCircular is set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	return target == ErrCircularReference && e.IsCircular
}

// ConversionError represents a failure during OAS version conversion.
type ConversionError struct {
	// SourceVersion is the source OAS version (e.g., "2.0")
	SourceVersion string
	// TargetVersion is the target OAS version
	TargetVersion string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConversionError) Error() string {
	msg := "conversion error"
	if e.SourceVersion != "" && e.TargetVersion != "" {
		msg += fmt.Sprintf(" (%s -> %s)", e.SourceVersion, e.TargetVersion)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewMissingDocumentError reports a gateway configured without a document source.
func NewMissingDocumentError() *ConfigError {
	return &ConfigError{
		Option:  "document",
		Message: "a document file path or in-memory document is required",
		Cause:   ErrMissingDocument,
	}
}

// RouteNotFoundError is returned when a request does not resolve to an operation.
type RouteNotFoundError struct {
	Method string
	Path   string
	// MethodNotAllowed is true when the path matched a template that does not
	// declare Method.
	MethodNotAllowed bool
	// Allowed lists the declared methods when MethodNotAllowed is set.
	Allowed []string
}

// Error returns a human-readable error message.
func (e *RouteNotFoundError) Error() string {
	if e.MethodNotAllowed {
		return fmt.Sprintf("method %s not allowed for %s (allowed: %s)", e.Method, e.Path, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("no operation matches %s %s", e.Method, e.Path)
}

// Is reports whether target matches this error type.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrRouteNotFound {
		return true
	}
	return target == ErrMethodNotAllowed && e.MethodNotAllowed
}

// RequestValidationError carries every violation found in a request.
type RequestValidationError struct {
	// OperationID of the matched operation (may be empty)
	OperationID string
	Violations  []Violation
}

// Error returns a human-readable error message.
func (e *RequestValidationError) Error() string {
	return joinViolations("request validation failed", e.Violations)
}

// Is reports whether target matches this error type.
func (e *RequestValidationError) Is(target error) bool {
	return target == ErrRequestValidation
}

// ResponseValidationError carries every violation found in a response.
type ResponseValidationError struct {
	// OperationID of the matched operation (may be empty)
	OperationID string
	StatusCode  int
	Violations  []Violation
}

// Error returns a human-readable error message.
func (e *ResponseValidationError) Error() string {
	return joinViolations(fmt.Sprintf("response validation failed (status %d)", e.StatusCode), e.Violations)
}

// Is reports whether target matches this error type.
func (e *ResponseValidationError) Is(target error) bool {
	return target == ErrResponseValidation
}

// DecodingError wraps the error raised by a body decoder.
// The decoder's error is preserved unchanged and reachable through errors.As.
type DecodingError struct {
	// ContentType is the request media type the decoder was selected for
	ContentType string
	Cause       error
}

// Error returns a human-readable error message.
func (e *DecodingError) Error() string {
	msg := "decoding failed"
	if e.ContentType != "" {
		msg += " for " + e.ContentType
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the decoder's error.
func (e *DecodingError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}

// ResourceLimitError represents a resource exhaustion condition, such as a
// request body above the configured maximum size.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded (e.g., "body_size")
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d)", e.Limit)
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// Violations extracts the field-level violations carried by err, if any.
func Violations(err error) []Violation {
	var reqErr *RequestValidationError
	if errors.As(err, &reqErr) {
		return reqErr.Violations
	}
	var respErr *ResponseValidationError
	if errors.As(err, &respErr) {
		return respErr.Violations
	}
	var docErr *InvalidDocumentError
	if errors.As(err, &docErr) {
		return docErr.Violations
	}
	return nil
}

// HTTPStatus maps an error to the status code the default error handler responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRequestValidation), errors.Is(err, ErrDecoding):
		return http.StatusBadRequest
	case errors.Is(err, ErrResourceLimit):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
