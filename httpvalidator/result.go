package httpvalidator

import (
	"github.com/erraggy/oasgate/oaserrors"
)

// ValidationError represents a single field-level validation issue.
// This is an alias to oaserrors.Violation so results convert to errors without copying.
type ValidationError = oaserrors.Violation

// ValidationLocation indicates where in the HTTP message the error occurred.
type ValidationLocation = string

// Validation location constants.
const (
	LocationPath     ValidationLocation = "path"
	LocationQuery    ValidationLocation = "query"
	LocationHeader   ValidationLocation = "header"
	LocationCookie   ValidationLocation = "cookie"
	LocationBody     ValidationLocation = "body"
	LocationResponse ValidationLocation = "response"
	LocationDocument ValidationLocation = "document"
)

// RequestValidationResult contains the results of validating an HTTP request
// against its operation. It is the per-request validation context: raw path
// values plus coerced parameters and the decoded body. A result belongs to a
// single request and is never reused.
type RequestValidationResult struct {
	// Valid is true if the request passes all validation checks.
	Valid bool

	// Errors contains all validation errors found.
	Errors []ValidationError

	// Warnings contains non-fatal findings such as format mismatches
	// (only when IncludeWarnings is enabled).
	Warnings []ValidationError

	// Operation is the operation the request was validated against.
	Operation *Operation

	// RawPathParams holds the percent-decoded path segment values.
	RawPathParams map[string]string

	// PathParams, QueryParams, HeaderParams and CookieParams hold coerced
	// values keyed by parameter name. Undeclared query parameters are passed
	// through as raw strings (or []string when repeated).
	// All four are nil when Valid is false.
	PathParams   map[string]any
	QueryParams  map[string]any
	HeaderParams map[string]any
	CookieParams map[string]any

	// Body is the decoded (and, for form bodies, coerced) request body.
	// Nil when no body was validated or when Valid is false.
	Body any

	// BodyValidated reports whether body validation ran.
	BodyValidated bool
}

// ResponseValidationResult contains the results of validating an HTTP
// response against its operation.
type ResponseValidationResult struct {
	// Valid is true if the response passes all validation checks.
	Valid bool

	// Errors contains all validation errors found.
	Errors []ValidationError

	// Warnings contains non-fatal findings.
	Warnings []ValidationError

	// Operation is the operation of the originating request.
	Operation *Operation

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// ContentType is the media type of the response (without parameters).
	ContentType string

	// MatchedResponse is the responses key that was used: an exact code,
	// a range such as "2XX", "default", or empty when undeclared.
	MatchedResponse string
}

// newRequestResult creates a new RequestValidationResult with initialized maps.
func newRequestResult(op *Operation) *RequestValidationResult {
	return &RequestValidationResult{
		Valid:         true,
		Operation:     op,
		RawPathParams: make(map[string]string),
		PathParams:    make(map[string]any),
		QueryParams:   make(map[string]any),
		HeaderParams:  make(map[string]any),
		CookieParams:  make(map[string]any),
	}
}

// newResponseResult creates a new ResponseValidationResult.
func newResponseResult(op *Operation, status int) *ResponseValidationResult {
	return &ResponseValidationResult{
		Valid:      true,
		Operation:  op,
		StatusCode: status,
	}
}

// addError adds an error to the request result and marks it as invalid.
func (r *RequestValidationResult) addError(location ValidationLocation, field, reason string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Location: location, Reason: reason})
}

// seal drops coerced values from a failed result so callers never observe
// a partially valid request.
func (r *RequestValidationResult) seal() {
	if r.Valid {
		return
	}
	r.PathParams = nil
	r.QueryParams = nil
	r.HeaderParams = nil
	r.CookieParams = nil
	r.Body = nil
}

// Err returns nil for a valid result, or an *oaserrors.RequestValidationError
// carrying every violation.
func (r *RequestValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	err := &oaserrors.RequestValidationError{Violations: r.Errors}
	if r.Operation != nil {
		err.OperationID = r.Operation.ID
	}
	return err
}

// addError adds an error to the response result and marks it as invalid.
func (r *ResponseValidationResult) addError(location ValidationLocation, field, reason string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Location: location, Reason: reason})
}

// addWarning adds a warning to the response result.
func (r *ResponseValidationResult) addWarning(location ValidationLocation, field, reason string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Location: location, Reason: reason})
}

// Err returns nil for a valid result, or an *oaserrors.ResponseValidationError.
func (r *ResponseValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	err := &oaserrors.ResponseValidationError{StatusCode: r.StatusCode, Violations: r.Errors}
	if r.Operation != nil {
		err.OperationID = r.Operation.ID
	}
	return err
}
