// Package parser loads OpenAPI documents for the gateway.
//
// Import path: github.com/erraggy/oasgate/parser
//
// A document can come from a file (format chosen by extension: .json, .yaml
// or .yml), from raw bytes, or from an already-decoded object. Swagger 2.0
// documents are converted to OpenAPI 3.0 on load, so everything downstream
// sees a single version.
//
// # Quick Start
//
//	result, err := parser.ParseWithOptions(parser.WithFilePath("openapi.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Version, len(result.Document.Paths))
//
// # Result
//
// [ParseResult] keeps the decoded document twice: Data holds generic
// JSON-compatible values (what the gateway serves at its spec endpoint) and
// Document holds the typed OpenAPI 3.0 model that the httpvalidator package
// compiles. Local references are not inlined; use [Document.ResolveSchema]
// and friends to follow a $ref chain into components.
//
// # Errors
//
// Loading failures use the oaserrors types: [oaserrors.UnsupportedFormatError]
// for unknown extensions, [oaserrors.ParseError] for undecodable or
// unversioned documents (only 2.0 and 3.0.x are accepted), and
// [oaserrors.ConversionError] when a Swagger 2.0 document cannot be converted.
//
// # Logging
//
// [Logger] is the small structured-logging interface shared by every oasgate
// package. [NopLogger] is the default and [SlogAdapter] wraps log/slog.
package parser
