// Package gateway puts OpenAPI validation in front of an HTTP handler.
//
// A Gateway loads a document once, compiles it with httpvalidator and then,
// for every request:
//
//   - serves the document as JSON at the spec endpoint (default /openapi.json)
//   - serves a Swagger UI page at the UI endpoint (default /openapi.html)
//   - skips validation for paths outside the whitelisted prefixes
//   - routes the request to its operation, decodes the body with the most
//     specific registered decoder and validates every parameter and the body
//   - hands the request downstream with a ValidationContext attached
//   - optionally buffers and validates the downstream response
//
// # Basic Usage
//
//	gw, err := gateway.New(
//	    gateway.WithDocumentFile("openapi.yaml"),
//	    gateway.WithValidatePathPrefixes("/api"),
//	)
//	if err != nil {
//	    log.Fatal(err) // *oaserrors.InvalidDocumentError lists every problem
//	}
//	http.ListenAndServe(":8080", gw.Middleware(mux))
//
// Downstream handlers read the coerced values:
//
//	vc, ok := gateway.FromContext(r.Context())
//	limit := vc.QueryParams["limit"].(int64)
//
// # gin
//
// Gin returns a gin.HandlerFunc for the same gateway:
//
//	router := gin.New()
//	router.Use(gin.Recovery(), gateway.Gin(gw))
//
// # Errors
//
// Failures reach the configured ErrorHandler as typed errors from package
// oaserrors. DefaultErrorHandler writes
//
//	{"message": "...", "code": 400, "details": [{"field": "name", "location": "body", "reason": "is required"}]}
//
// with the status from oaserrors.HTTPStatus. A handler that returns an error
// re-raises it to the host: Handle returns it, Middleware falls back to
// DefaultErrorHandler and the gin adapter records it with c.Error.
//
// # Telemetry
//
// The gateway records an oasgate.requests counter (by outcome), an
// oasgate.violations counter (by location), an oasgate.validation.duration
// histogram and an oasgate.validate span through the global OpenTelemetry
// providers, or the ones given with WithMeterProvider and WithTracerProvider.
package gateway
