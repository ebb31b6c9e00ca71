// Package oaserrors provides structured error types for oasgate.
//
// Import path: github.com/erraggy/oasgate/oaserrors
//
// This package enables programmatic error handling via [errors.Is] and [errors.As],
// allowing callers to distinguish startup failures (a broken document) from
// per-request failures (a request that violates its operation).
//
// # Error Types
//
// Startup:
//
//   - [ParseError]: YAML/JSON decoding failures
//   - [UnsupportedFormatError]: a document file whose extension is not .json, .yaml or .yml
//   - [InvalidDocumentError]: meta-schema and compilation violations, aggregated
//   - [ReferenceError]: unresolved or circular $ref chains
//   - [ConversionError]: Swagger 2.0 to OpenAPI 3.0 conversion failures
//   - [ConfigError]: invalid options, including a missing document ([ErrMissingDocument])
//
// Per request:
//
//   - [RouteNotFoundError]: unknown route or method not allowed
//   - [RequestValidationError]: request violations (400)
//   - [ResponseValidationError]: response violations (500)
//   - [DecodingError]: a body decoder failed; unwraps to the decoder's error
//   - [ResourceLimitError]: request body above the configured limit (413)
//
// # Usage Examples
//
// Check error category with errors.Is():
//
//	if errors.Is(err, oaserrors.ErrRequestValidation) {
//	    for _, v := range oaserrors.Violations(err) {
//	        fmt.Printf("%s %s: %s\n", v.Location, v.Field, v.Reason)
//	    }
//	}
//
// Distinguish unknown routes from undeclared methods:
//
//	var rnf *oaserrors.RouteNotFoundError
//	if errors.As(err, &rnf) && rnf.MethodNotAllowed {
//	    w.Header().Set("Allow", strings.Join(rnf.Allowed, ", "))
//	}
//
// [HTTPStatus] maps any of these errors to the status code used by the
// gateway's default error handler.
package oaserrors
