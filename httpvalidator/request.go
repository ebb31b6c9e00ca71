package httpvalidator

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/erraggy/oasgate/parser"
)

// RequestInput is a request already split into its validated parts.
// The gateway builds one per request after routing and body decoding.
type RequestInput struct {
	// PathParams are the raw, percent-decoded path template values.
	PathParams map[string]string
	Query      url.Values
	Header     http.Header
	Cookies    []*http.Cookie

	// Body is the decoded request body: generic JSON values, url.Values for
	// form bodies, *multipart.Form, a string, or nil.
	Body any
	// HasBody reports whether the request carried a non-empty body.
	HasBody bool
	// MediaType is the normalized request media type (no parameters).
	MediaType string
	// Undecoded reports that no decoder accepted the media type. The body is
	// then not checked against its schema.
	Undecoded bool
}

// standardHeaders are accepted in strict mode without being declared.
var standardHeaders = map[string]bool{
	"Accept":            true,
	"Accept-Charset":    true,
	"Accept-Encoding":   true,
	"Accept-Language":   true,
	"Authorization":     true,
	"Baggage":           true,
	"Cache-Control":     true,
	"Connection":        true,
	"Content-Encoding":  true,
	"Content-Length":    true,
	"Content-Type":      true,
	"Cookie":            true,
	"Date":              true,
	"Expect":            true,
	"Forwarded":         true,
	"Host":              true,
	"If-Match":          true,
	"If-Modified-Since": true,
	"If-None-Match":     true,
	"Origin":            true,
	"Pragma":            true,
	"Referer":           true,
	"Te":                true,
	"Traceparent":       true,
	"Tracestate":        true,
	"Upgrade":           true,
	"User-Agent":        true,
	"Via":               true,
	"X-Forwarded-For":   true,
	"X-Forwarded-Host":  true,
	"X-Forwarded-Proto": true,
	"X-Real-Ip":         true,
}

// ValidateRequestFor validates request parts against op in the order
// header, query, path, cookie, body. All violations are collected unless
// FailFast is set. A failed result carries no coerced values.
func (v *Validator) ValidateRequestFor(op *Operation, in *RequestInput) *RequestValidationResult {
	flags := v.flags()
	res := newRequestResult(op)
	for k, val := range in.PathParams {
		res.RawPathParams[k] = val
	}

	phases := []func(*Operation, *RequestInput, *RequestValidationResult, validationFlags){
		validateHeaderParams,
		validateQueryParams,
		validatePathParams,
		validateCookieParams,
		validateRequestBody,
	}
	for _, phase := range phases {
		phase(op, in, res, flags)
		if flags.failFast && !res.Valid {
			break
		}
	}

	if !flags.includeWarnings {
		res.Warnings = nil
	}
	res.seal()
	return res
}

// record moves schema issues into the result.
func (r *RequestValidationResult) record(iss *schemaIssues) {
	if len(iss.errors) > 0 {
		r.Valid = false
		r.Errors = append(r.Errors, iss.errors...)
	}
	r.Warnings = append(r.Warnings, iss.warnings...)
}

func validateHeaderParams(op *Operation, in *RequestInput, res *RequestValidationResult, flags validationFlags) {
	for _, p := range op.ParametersIn(parser.ParamInHeader) {
		values := in.Header.Values(p.Name)
		if len(values) == 0 {
			if p.Required {
				res.addError(LocationHeader, p.Name, "is required")
			}
			continue
		}
		value, err := flags.deserializer.DeserializeHeaderParam(values, p)
		if err != nil {
			res.addError(LocationHeader, p.Name, err.Error())
			continue
		}
		iss := &schemaIssues{location: LocationHeader, dir: directionRequest, redact: true}
		validateValue(p.schema, value, p.Name, iss)
		res.record(iss)
		res.HeaderParams[p.Name] = value
	}

	if !flags.strictMode {
		return
	}
	names := make([]string, 0, len(in.Header))
	for name := range in.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		canonical := http.CanonicalHeaderKey(name)
		if standardHeaders[canonical] || op.Parameter(parser.ParamInHeader, canonical) != nil {
			continue
		}
		res.addError(LocationHeader, canonical, "is not a declared header")
	}
}

func validateQueryParams(op *Operation, in *RequestInput, res *RequestValidationResult, flags validationFlags) {
	query := in.Query
	if limit := flags.deserializer.opts.limit(); limit >= 0 {
		count := 0
		for _, values := range query {
			count += len(values)
		}
		if count > limit {
			res.addError(LocationQuery, "", fmt.Sprintf("too many query parameters (limit %d)", limit))
			return
		}
	}

	consumed := make(map[string]bool, len(query))
	for _, p := range op.ParametersIn(parser.ParamInQuery) {
		value, keys, err := flags.deserializer.DeserializeQueryParam(query, p)
		for _, k := range keys {
			consumed[k] = true
		}
		if len(keys) == 0 {
			if p.Required {
				res.addError(LocationQuery, p.Name, "is required")
			}
			continue
		}
		if err != nil {
			res.addError(LocationQuery, p.Name, err.Error())
			continue
		}
		iss := &schemaIssues{location: LocationQuery, dir: directionRequest}
		validateValue(p.schema, value, p.Name, iss)
		res.record(iss)
		res.QueryParams[p.Name] = value
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if !consumed[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if flags.strictMode || !op.AllowUnknownQuery {
			res.addError(LocationQuery, k, "is not a declared query parameter")
			continue
		}
		if _, taken := res.QueryParams[k]; taken {
			continue
		}
		// Undeclared parameters pass through uncoerced.
		if values := query[k]; len(values) == 1 {
			res.QueryParams[k] = values[0]
		} else {
			res.QueryParams[k] = values
		}
	}
}

func validatePathParams(op *Operation, in *RequestInput, res *RequestValidationResult, flags validationFlags) {
	for _, p := range op.ParametersIn(parser.ParamInPath) {
		raw, ok := in.PathParams[p.Name]
		if !ok {
			res.addError(LocationPath, p.Name, "is required")
			continue
		}
		value, err := flags.deserializer.DeserializePathParam(raw, p)
		if err != nil {
			res.addError(LocationPath, p.Name, err.Error())
			continue
		}
		iss := &schemaIssues{location: LocationPath, dir: directionRequest}
		validateValue(p.schema, value, p.Name, iss)
		res.record(iss)
		res.PathParams[p.Name] = value
	}
}

func validateCookieParams(op *Operation, in *RequestInput, res *RequestValidationResult, flags validationFlags) {
	cookies := make(map[string]string, len(in.Cookies))
	for _, c := range in.Cookies {
		if _, dup := cookies[c.Name]; !dup {
			cookies[c.Name] = c.Value
		}
	}

	for _, p := range op.ParametersIn(parser.ParamInCookie) {
		raw, ok := cookies[p.Name]
		if !ok {
			if p.Required {
				res.addError(LocationCookie, p.Name, "is required")
			}
			continue
		}
		value, err := flags.deserializer.DeserializeCookieParam(raw, p)
		if err != nil {
			res.addError(LocationCookie, p.Name, err.Error())
			continue
		}
		iss := &schemaIssues{location: LocationCookie, dir: directionRequest, redact: true}
		validateValue(p.schema, value, p.Name, iss)
		res.record(iss)
		res.CookieParams[p.Name] = value
	}

	if !flags.strictMode {
		return
	}
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if op.Parameter(parser.ParamInCookie, name) == nil {
			res.addError(LocationCookie, name, "is not a declared cookie")
		}
	}
}

// validateRequestBody validates the decoded body. It is skipped when the
// operation declares no body schema for the media type, or when there is
// no body and none is required.
func validateRequestBody(op *Operation, in *RequestInput, res *RequestValidationResult, flags validationFlags) {
	rb := op.RequestBody
	if rb == nil {
		return
	}
	if !in.HasBody {
		if rb.Required {
			res.addError(LocationBody, "", "is required")
		}
		return
	}

	decl, _, ok := rb.Content.Lookup(in.MediaType)
	if !ok {
		if flags.strictMode && rb.Content.Len() > 0 {
			res.addError(LocationBody, "", fmt.Sprintf("content type %q is not declared (expected one of %s)",
				in.MediaType, strings.Join(rb.Content.Keys(), ", ")))
		}
		return
	}
	if !decl.HasSchema() || in.Undecoded {
		return
	}

	body := in.Body
	switch b := body.(type) {
	case url.Values:
		obj, problems := coerceFormBody(b, decl.schema)
		if len(problems) > 0 {
			res.Valid = false
			res.Errors = append(res.Errors, problems...)
			return
		}
		body = obj
	case *multipart.Form:
		obj, problems := coerceFormBody(url.Values(b.Value), decl.schema)
		if len(problems) > 0 {
			res.Valid = false
			res.Errors = append(res.Errors, problems...)
			return
		}
		// File parts validate as their file names; contents are not inspected.
		for name, files := range b.File {
			if len(files) > 0 {
				obj[name] = files[0].Filename
			}
		}
		body = obj
	case []byte:
		body = string(b)
	}

	iss := &schemaIssues{location: LocationBody, dir: directionRequest}
	validateValue(decl.schema, body, "", iss)
	res.record(iss)
	res.Body = body
	res.BodyValidated = true
}
