package parser

import (
	"strings"

	"github.com/erraggy/oasgate/oaserrors"
)

// Component sections addressable by a local $ref.
const (
	componentSchemas       = "schemas"
	componentParameters    = "parameters"
	componentRequestBodies = "requestBodies"
	componentResponses     = "responses"
	componentHeaders       = "headers"
)

// maxRefChain bounds how many $ref hops are followed before a chain is
// reported as circular.
const maxRefChain = 64

// ResolveSchema follows a schema's $ref chain to its definition.
// A schema without $ref is returned unchanged.
func (d *Document) ResolveSchema(s *Schema) (*Schema, error) {
	var table map[string]*Schema
	if d.Components != nil {
		table = d.Components.Schemas
	}
	return resolveChain(s, componentSchemas, table, func(v *Schema) string { return v.Ref })
}

// ResolveParameter follows a parameter's $ref chain to its definition.
func (d *Document) ResolveParameter(p *Parameter) (*Parameter, error) {
	var table map[string]*Parameter
	if d.Components != nil {
		table = d.Components.Parameters
	}
	return resolveChain(p, componentParameters, table, func(v *Parameter) string { return v.Ref })
}

// ResolveRequestBody follows a request body's $ref chain to its definition.
func (d *Document) ResolveRequestBody(rb *RequestBody) (*RequestBody, error) {
	var table map[string]*RequestBody
	if d.Components != nil {
		table = d.Components.RequestBodies
	}
	return resolveChain(rb, componentRequestBodies, table, func(v *RequestBody) string { return v.Ref })
}

// ResolveResponse follows a response's $ref chain to its definition.
func (d *Document) ResolveResponse(r *Response) (*Response, error) {
	var table map[string]*Response
	if d.Components != nil {
		table = d.Components.Responses
	}
	return resolveChain(r, componentResponses, table, func(v *Response) string { return v.Ref })
}

// ResolveHeader follows a header's $ref chain to its definition.
func (d *Document) ResolveHeader(h *Header) (*Header, error) {
	var table map[string]*Header
	if d.Components != nil {
		table = d.Components.Headers
	}
	return resolveChain(h, componentHeaders, table, func(v *Header) string { return v.Ref })
}

func resolveChain[T any](v *T, section string, table map[string]*T, refOf func(*T) string) (*T, error) {
	if v == nil {
		return nil, nil
	}
	seen := make(map[string]bool)
	for hops := 0; ; hops++ {
		ref := refOf(v)
		if ref == "" {
			return v, nil
		}
		if seen[ref] || hops >= maxRefChain {
			return nil, &oaserrors.ReferenceError{Ref: ref, IsCircular: true}
		}
		seen[ref] = true

		name, err := localComponentName(ref, section)
		if err != nil {
			return nil, err
		}
		next, ok := table[name]
		if !ok || next == nil {
			return nil, &oaserrors.ReferenceError{Ref: ref, Message: "no such component"}
		}
		v = next
	}
}

// localComponentName extracts the component name from "#/components/<section>/<name>".
func localComponentName(ref, section string) (string, error) {
	if !strings.HasPrefix(ref, "#/") {
		return "", &oaserrors.ReferenceError{Ref: ref, Message: "only local references are supported"}
	}
	prefix := "#/components/" + section + "/"
	if !strings.HasPrefix(ref, prefix) {
		return "", &oaserrors.ReferenceError{Ref: ref, Message: "expected a reference into components/" + section}
	}
	name := ref[len(prefix):]
	if name == "" || strings.Contains(name, "/") {
		return "", &oaserrors.ReferenceError{Ref: ref, Message: "malformed component reference"}
	}
	return unescapePointerToken(name), nil
}

// unescapePointerToken applies RFC 6901 unescaping to one JSON pointer token.
func unescapePointerToken(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(token)
}
