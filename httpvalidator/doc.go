// Package httpvalidator validates HTTP requests and responses against OpenAPI 3.0
// documents.
//
// A document is compiled once into a CompiledSpec: the document is checked
// against the OpenAPI 3.0 meta-schema, every path template is turned into a
// segment matcher, and every parameter, body and response schema is resolved
// and compiled. A CompiledSpec is immutable and safe for concurrent use.
//
// # Features
//
//   - Compile-time checks: meta-schema conformance, malformed or ambiguous path
//     templates, unresolved $ref chains, invalid patterns, duplicate parameters
//     and operationIds, path parameters missing from templates
//   - Request validation: header, query, path and cookie parameters, then body
//   - Parameter deserialization: simple, label, matrix, form, spaceDelimited,
//     pipeDelimited and deepObject styles, followed by type coercion
//   - Response validation: status lookup (exact, range, default), headers, body
//   - Content negotiation: media-type tables ranked exact > type/* > */subtype > */*
//   - Strict mode: reject unknown parameters, headers, cookies and undeclared
//     response statuses
//
// # Basic Usage
//
//	parsed, _ := parser.ParseWithOptions(parser.WithFilePath("openapi.yaml"))
//	v, err := httpvalidator.New(parsed)
//	if err != nil {
//	    log.Fatal(err) // *oaserrors.InvalidDocumentError lists every problem
//	}
//
//	result, err := v.ValidateRequest(req)
//	if err != nil {
//	    // no matching operation, body too large, or undecodable body
//	}
//	if !result.Valid {
//	    for _, e := range result.Errors {
//	        log.Printf("%s", e)
//	    }
//	}
//
//	// Coerced values: limit=10 arrives as int64(10)
//	limit := result.QueryParams["limit"]
//
// # Pre-split requests
//
// Middleware that has already routed the request and decoded its body calls
// ValidateRequestFor with a RequestInput, and ValidateResponseFor with a
// ResponseInput. Results convert to typed errors with Err.
//
// # Path matching
//
// Templates are matched segment by segment. When several templates match a
// path, the one with more literal segments wins, then the one with fewer
// variable segments; a mixed segment ("{name}.json") counts as neither. Two
// templates that can match the same path and tie on both counts, such as
// "/{kind}/mine" and "/pets/{id}", are rejected at compile time.
package httpvalidator
