package httpvalidator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/erraggy/oasgate/oaserrors"
	"github.com/erraggy/oasgate/parser"
)

// DefaultMaxBodySize is the body size limit used when MaxBodySize is zero.
const DefaultMaxBodySize int64 = 10 << 20

// Validator validates HTTP requests and responses against a compiled
// OpenAPI specification.
//
// Create a Validator using the New function:
//
//	parsed, _ := parser.ParseWithOptions(parser.WithFilePath("openapi.yaml"))
//	v, err := httpvalidator.New(parsed)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := v.ValidateRequest(req)
//	if !result.Valid {
//	    // Handle validation errors
//	}
//
// Configure the exported fields before sharing a Validator between
// goroutines; each validation call snapshots them.
type Validator struct {
	spec *CompiledSpec

	// IncludeWarnings determines whether non-fatal findings (format
	// mismatches, undeclared response statuses) are reported. Default is true.
	IncludeWarnings bool

	// StrictMode enables stricter validation behavior:
	//   - Rejects requests with unknown query parameters
	//   - Rejects requests with unknown headers (except standard HTTP headers)
	//   - Rejects requests with unknown cookies
	//   - Rejects request bodies with undeclared content types
	//   - Rejects responses with undocumented status codes or content types
	StrictMode bool

	// FailFast stops request validation after the first location
	// (header, query, path, cookie, body) that reports an error.
	FailFast bool

	// Query controls query string parsing.
	Query QueryOptions

	// MaxBodySize limits bodies read by ValidateRequest and
	// ValidateResponseData. Zero means DefaultMaxBodySize.
	MaxBodySize int64
}

// validationFlags is a snapshot of the Validator's settings for one call.
type validationFlags struct {
	includeWarnings bool
	strictMode      bool
	failFast        bool
	deserializer    *ParamDeserializer
}

func (v *Validator) flags() validationFlags {
	return validationFlags{
		includeWarnings: v.IncludeWarnings,
		strictMode:      v.StrictMode,
		failFast:        v.FailFast,
		deserializer:    NewParamDeserializer(v.Query),
	}
}

// New compiles a parsed OpenAPI specification and returns a Validator for it.
//
// Returns an *oaserrors.InvalidDocumentError if the document fails the
// meta-schema or cannot be compiled.
func New(parsed *parser.ParseResult) (*Validator, error) {
	if parsed == nil {
		return nil, fmt.Errorf("httpvalidator: parsed result cannot be nil")
	}
	spec, err := Compile(parsed)
	if err != nil {
		return nil, err
	}
	return NewFromSpec(spec), nil
}

// NewFromSpec returns a Validator over an already compiled specification.
func NewFromSpec(spec *CompiledSpec) *Validator {
	return &Validator{
		spec:            spec,
		IncludeWarnings: true,
	}
}

// Spec returns the compiled specification.
func (v *Validator) Spec() *CompiledSpec {
	return v.spec
}

// Match resolves a request to its operation. See CompiledSpec.Match.
func (v *Validator) Match(req *http.Request) (*Operation, map[string]string, error) {
	return v.spec.Match(req.URL.EscapedPath(), req.Method)
}

// ValidateRequest validates an HTTP request against the specification.
// The request body is read (up to MaxBodySize) and replaced with an
// equivalent reader, so it can still be consumed downstream.
//
// The error is non-nil only when the request cannot be validated at all:
// no matching operation (*oaserrors.RouteNotFoundError), an oversized body
// (*oaserrors.ResourceLimitError), or a body that fails to decode
// (*oaserrors.DecodingError). Validation failures are reported in the result.
func (v *Validator) ValidateRequest(req *http.Request) (*RequestValidationResult, error) {
	op, pathParams, err := v.Match(req)
	if err != nil {
		return nil, err
	}

	in := &RequestInput{
		PathParams: pathParams,
		Query:      req.URL.Query(),
		Header:     req.Header,
		Cookies:    req.Cookies(),
	}

	if req.Body != nil && req.Body != http.NoBody {
		data, err := ReadBody(req.Body, v.bodyLimit())
		_ = req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			in.HasBody = true
			in.MediaType, _ = ParseMediaType(req.Header.Get("Content-Type"))
			body, ok, err := DecodeBody(in.MediaType, data)
			if err != nil {
				return nil, &oaserrors.DecodingError{ContentType: in.MediaType, Cause: err}
			}
			in.Body = body
			in.Undecoded = !ok
		}
	}

	return v.ValidateRequestFor(op, in), nil
}

// ValidateResponseData validates captured response parts, which is useful in
// middleware that records a response without building an *http.Response.
func (v *Validator) ValidateResponseData(req *http.Request, statusCode int, headers http.Header, body []byte) (*ResponseValidationResult, error) {
	op, _, err := v.Match(req)
	if err != nil {
		return nil, err
	}
	if limit := v.bodyLimit(); limit > 0 && int64(len(body)) > limit {
		return nil, &oaserrors.ResourceLimitError{ResourceType: "response_body_size", Limit: limit}
	}
	return v.ValidateResponseBytes(op, req.Method, statusCode, headers, body), nil
}

// ValidateResponseBytes validates a raw response for an already matched
// operation. The body is decoded according to its Content-Type; a body
// that fails to decode is reported as a response violation.
func (v *Validator) ValidateResponseBytes(op *Operation, method string, statusCode int, headers http.Header, body []byte) *ResponseValidationResult {
	in := &ResponseInput{
		StatusCode: statusCode,
		Header:     headers,
		Method:     method,
	}
	if len(body) > 0 {
		in.HasBody = true
		in.MediaType, _ = ParseMediaType(headers.Get("Content-Type"))
		decoded, ok, err := DecodeBody(in.MediaType, body)
		if err != nil {
			res := newResponseResult(op, statusCode)
			res.ContentType = in.MediaType
			res.addError(LocationResponse, "", "body "+err.Error())
			return res
		}
		in.Body = decoded
		in.Undecoded = !ok
	}
	return v.ValidateResponseFor(op, in)
}

func (v *Validator) bodyLimit() int64 {
	if v.MaxBodySize == 0 {
		return DefaultMaxBodySize
	}
	return v.MaxBodySize
}

// ReadBody reads r up to limit bytes. A negative limit disables the check.
// Exceeding the limit returns the bytes read so far and an
// *oaserrors.ResourceLimitError.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	if limit < 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return data, fmt.Errorf("httpvalidator: reading body: %w", err)
	}
	if int64(len(data)) > limit {
		return data, &oaserrors.ResourceLimitError{ResourceType: "body_size", Limit: limit}
	}
	return data, nil
}

// DecodeBody decodes a body of the given normalized media type: JSON (and
// +json types) into generic values, urlencoded forms into url.Values and
// text/* into a string. For other media types it reports false and
// returns the raw bytes as a string.
func DecodeBody(mediaType string, data []byte) (any, bool, error) {
	switch {
	case isJSONMediaType(mediaType):
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, true, err
		}
		return v, true, nil
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, true, err
		}
		return values, true, nil
	case strings.HasPrefix(mediaType, "text/"):
		return string(data), true, nil
	}
	return string(data), false, nil
}
