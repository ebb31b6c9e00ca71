package httpvalidator

import (
	"fmt"
	"net/http"
	"strings"
)

// ResponseInput is a response already split into its validated parts.
type ResponseInput struct {
	StatusCode int
	Header     http.Header

	// Body is the decoded response body. HasBody reports whether one was written.
	Body    any
	HasBody bool
	// MediaType is the normalized response media type (no parameters).
	MediaType string

	// Undecoded reports that the body could not be decoded for its media
	// type; it is then not checked against its schema.
	Undecoded bool

	// Method is the request method; HEAD responses are not expected to
	// carry a body.
	Method string
}

// ValidateResponseFor validates response parts against op. The status code
// is looked up exactly, then by range ("2XX"), then as default. An
// undeclared status is an error in strict mode and a warning otherwise.
func (v *Validator) ValidateResponseFor(op *Operation, in *ResponseInput) *ResponseValidationResult {
	flags := v.flags()
	res := newResponseResult(op, in.StatusCode)
	res.ContentType = in.MediaType

	resp, key := op.Response(in.StatusCode)
	if resp == nil {
		reason := fmt.Sprintf("status %d is not declared", in.StatusCode)
		if flags.strictMode {
			res.addError(LocationResponse, "status", reason)
		} else {
			res.addWarning(LocationResponse, "status", reason)
		}
		return finishResponse(res, flags)
	}
	res.MatchedResponse = key

	validateResponseHeaders(resp, in, res, flags)
	validateResponseBody(resp, in, res, flags)
	return finishResponse(res, flags)
}

func finishResponse(res *ResponseValidationResult, flags validationFlags) *ResponseValidationResult {
	if !flags.includeWarnings {
		res.Warnings = nil
	}
	return res
}

func (r *ResponseValidationResult) record(iss *schemaIssues) {
	if len(iss.errors) > 0 {
		r.Valid = false
		r.Errors = append(r.Errors, iss.errors...)
	}
	r.Warnings = append(r.Warnings, iss.warnings...)
}

func validateResponseHeaders(resp *Response, in *ResponseInput, res *ResponseValidationResult, flags validationFlags) {
	for _, h := range resp.Headers {
		values := in.Header.Values(h.Name)
		if len(values) == 0 {
			if h.Required {
				res.addError(LocationHeader, h.Name, "is required")
			}
			continue
		}
		value, err := flags.deserializer.DeserializeHeaderParam(values, h)
		if err != nil {
			res.addError(LocationHeader, h.Name, err.Error())
			continue
		}
		iss := &schemaIssues{location: LocationHeader, dir: directionResponse, redact: true}
		validateValue(h.schema, value, h.Name, iss)
		res.record(iss)
	}
}

func validateResponseBody(resp *Response, in *ResponseInput, res *ResponseValidationResult, flags validationFlags) {
	if resp.Content.Len() == 0 {
		if in.HasBody && flags.strictMode {
			res.addError(LocationResponse, "", fmt.Sprintf("no content is declared for status %s", resp.Code))
		}
		return
	}
	if !in.HasBody {
		if in.Method == http.MethodHead || in.StatusCode == http.StatusNoContent || in.StatusCode == http.StatusNotModified {
			return
		}
		res.addError(LocationResponse, "", "body is required")
		return
	}

	decl, _, ok := resp.Content.Lookup(in.MediaType)
	if !ok {
		reason := fmt.Sprintf("content type %q is not declared (expected one of %s)",
			in.MediaType, strings.Join(resp.Content.Keys(), ", "))
		if flags.strictMode {
			res.addError(LocationResponse, "", reason)
		} else {
			res.addWarning(LocationResponse, "", reason)
		}
		return
	}
	if !decl.HasSchema() || in.Undecoded {
		return
	}

	body := in.Body
	if b, ok := body.([]byte); ok {
		body = string(b)
	}
	iss := &schemaIssues{location: LocationResponse, dir: directionResponse}
	validateValue(decl.schema, body, "", iss)
	res.record(iss)
}
