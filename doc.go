// Package oasgate validates HTTP traffic against an OpenAPI document.
//
// oasgate loads an OpenAPI 3.0 document (Swagger 2.0 documents are converted
// on load), compiles it into an immutable validation model, and checks every
// request, and optionally every response, before the wrapped handler sees it.
//
// # Overview
//
// The module is split into small packages:
//
//   - parser: load documents from files or in-memory objects
//   - httpvalidator: compile documents, match paths, validate requests and responses
//   - gateway: net/http and gin middleware built on httpvalidator
//   - oaserrors: typed errors shared by every package
//
// # Installation
//
//	go get github.com/erraggy/oasgate
//
// # Quick Start
//
// Wrap an existing handler:
//
//	import "github.com/erraggy/oasgate/gateway"
//
//	gw, err := gateway.New(gateway.WithDocumentFile("openapi.yaml"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", gw.Middleware(api))
//
// Handlers read the coerced values through the request context:
//
//	vc, ok := gateway.FromContext(r.Context())
//	if ok {
//		limit := vc.QueryParams["limit"].(int64)
//	}
//
// Validate a request without the middleware:
//
//	import "github.com/erraggy/oasgate/httpvalidator"
//
//	v, err := httpvalidator.New(parsed)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := v.ValidateRequest(req)
//
// # Command Line
//
// The oasgate command hosts the gateway in front of an upstream service:
//
//	oasgate serve --spec openapi.yaml --upstream http://localhost:9000
//	oasgate check openapi.yaml
//	oasgate routes openapi.yaml
package oasgate
