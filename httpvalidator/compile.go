package httpvalidator

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/erraggy/oasgate/oaserrors"
	"github.com/erraggy/oasgate/parser"
)

// CompiledSpec is the indexed, queryable form of an OpenAPI document: path
// matchers, operations and pre-compiled schemas. It is immutable once Compile
// returns and safe for concurrent use.
type CompiledSpec struct {
	parsed     *parser.ParseResult
	paths      *PathMatcherSet
	byPath     map[string]map[string]*Operation
	byID       map[string]*Operation
	operations []*Operation
}

// Operation is one HTTP method on one path template, with every parameter,
// body and response schema compiled.
type Operation struct {
	// ID is the operationId, or empty when none was declared.
	ID string
	// Method is the upper-case HTTP method.
	Method string
	// PathTemplate is the template the operation is declared under.
	PathTemplate string
	// Summary is the operation summary.
	Summary string
	// Tags are the operation tags.
	Tags []string
	// Deprecated reports whether the operation is deprecated.
	Deprecated bool

	// Parameters are ordered header, query, path, cookie; declaration order
	// within each location.
	Parameters []*Parameter

	// RequestBody is nil when the operation declares none.
	RequestBody *RequestBody

	// Responses maps status codes and ranges ("200", "2XX") to responses.
	Responses map[string]*Response
	// Default is the "default" response, or nil.
	Default *Response

	// AllowUnknownQuery is false when the operation declares
	// x-additionalProperties: false.
	AllowUnknownQuery bool

	index map[string]*Parameter
}

// Parameter is a compiled operation parameter or response header.
type Parameter struct {
	Name            string
	In              string
	Required        bool
	Deprecated      bool
	AllowEmptyValue bool
	AllowReserved   bool
	Style           string
	Explode         bool

	// ContentType is set when the parameter is declared with content
	// instead of schema.
	ContentType string

	schema *compiledSchema
}

// Type returns the parameter's effective schema type, or "" when untyped.
func (p *Parameter) Type() string {
	return p.schema.effectiveType()
}

// RequestBody is a compiled request body declaration.
type RequestBody struct {
	Required bool
	Content  *MediaTypeTable[*MediaType]
}

// MediaType is one declared content type with its compiled schema.
type MediaType struct {
	// Name is the normalized media type key, such as "application/json".
	Name string

	schema *compiledSchema
}

// HasSchema reports whether a body schema is declared for the media type.
func (m *MediaType) HasSchema() bool {
	return m != nil && m.schema != nil
}

// Response is a compiled response declaration.
type Response struct {
	// Code is the responses key: a status code, a range such as "2XX", or "default".
	Code    string
	Headers []*Parameter
	Content *MediaTypeTable[*MediaType]
}

// problemList aggregates compile-time problems into document violations.
type problemList struct {
	items []ValidationError
}

func (p *problemList) add(where, reason string) {
	p.items = append(p.items, ValidationError{Field: where, Location: LocationDocument, Reason: reason})
}

func (p *problemList) empty() bool {
	return len(p.items) == 0
}

// escapePointerToken escapes a JSON Pointer reference token (RFC 6901).
func escapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Compile validates a parsed document against the OpenAPI meta-schema and
// builds its validation model. Every problem found is reported in a single
// *oaserrors.InvalidDocumentError; meta-schema violations are reported alone,
// before any index is built.
func Compile(parsed *parser.ParseResult) (*CompiledSpec, error) {
	if parsed == nil || parsed.Data == nil || parsed.Document == nil {
		return nil, oaserrors.NewMissingDocumentError()
	}

	violations, err := CheckDocument(parsed.Data)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, &oaserrors.InvalidDocumentError{Source: parsed.SourcePath, Violations: violations}
	}

	problems := &problemList{}
	b := &specBuilder{
		doc:      parsed.Document,
		problems: problems,
		schemas:  newSchemaCompiler(parsed.Document, problems),
	}
	spec := b.build(parsed)
	b.schemas.checkCompositionCycles()

	if !problems.empty() {
		return nil, &oaserrors.InvalidDocumentError{Source: parsed.SourcePath, Violations: problems.items}
	}
	return spec, nil
}

type specBuilder struct {
	doc      *parser.Document
	problems *problemList
	schemas  *schemaCompiler
}

func (b *specBuilder) build(parsed *parser.ParseResult) *CompiledSpec {
	spec := &CompiledSpec{
		parsed: parsed,
		byPath: make(map[string]map[string]*Operation),
		byID:   make(map[string]*Operation),
	}

	templates := make([]string, 0, len(b.doc.Paths))
	for tmpl := range b.doc.Paths {
		templates = append(templates, tmpl)
	}
	sort.Strings(templates)

	matchers := make(map[string]*PathMatcher, len(templates))
	groups := make(map[int][]*PathMatcher)
	valid := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		where := "/paths/" + escapePointerToken(tmpl)
		pm, err := NewPathMatcher(tmpl)
		if err != nil {
			b.problems.add(where, err.Error())
			continue
		}
		n := len(pm.segments)
		if prev := pm.ambiguousIn(groups[n]); prev != nil {
			b.problems.add(where, (&AmbiguousPathsError{Templates: []string{prev.template, tmpl}}).Error())
			continue
		}
		groups[n] = append(groups[n], pm)
		matchers[tmpl] = pm
		valid = append(valid, tmpl)
	}

	paths, err := NewPathMatcherSet(valid)
	if err != nil {
		b.problems.add("/paths", err.Error())
		return spec
	}
	spec.paths = paths

	for _, tmpl := range paths.Templates() {
		item := b.doc.Paths[tmpl]
		where := "/paths/" + escapePointerToken(tmpl)
		if item == nil {
			continue
		}
		if item.Ref != "" {
			b.problems.add(where, "path item references are not supported")
			continue
		}
		byMethod := make(map[string]*Operation)
		for _, method := range parser.Methods {
			raw := item.Operation(method)
			if raw == nil {
				continue
			}
			opWhere := where + "/" + strings.ToLower(method)
			op := b.buildOperation(tmpl, method, item, raw, matchers[tmpl], opWhere)
			if op.ID != "" {
				if prev, dup := spec.byID[op.ID]; dup {
					b.problems.add(opWhere+"/operationId",
						fmt.Sprintf("duplicate operationId %q (also on %s %s)", op.ID, prev.Method, prev.PathTemplate))
				} else {
					spec.byID[op.ID] = op
				}
			}
			byMethod[method] = op
			spec.operations = append(spec.operations, op)
		}
		spec.byPath[tmpl] = byMethod
	}
	return spec
}

func (b *specBuilder) buildOperation(tmpl, method string, item *parser.PathItem, raw *parser.Operation, pm *PathMatcher, where string) *Operation {
	op := &Operation{
		ID:                raw.OperationID,
		Method:            method,
		PathTemplate:      tmpl,
		Summary:           raw.Summary,
		Tags:              raw.Tags,
		Deprecated:        raw.Deprecated,
		Responses:         make(map[string]*Response),
		AllowUnknownQuery: true,
		index:             make(map[string]*Parameter),
	}
	if v, ok := raw.Extension("x-additionalProperties"); ok {
		if allowed, isBool := v.(bool); isBool && !allowed {
			op.AllowUnknownQuery = false
		}
	}

	// Path-level parameters first; operation-level ones replace them.
	pathParams := b.compileParameters(item.Parameters, "/paths/"+escapePointerToken(tmpl)+"/parameters")
	opParams := b.compileParameters(raw.Parameters, where+"/parameters")
	merged := make(map[string]*Parameter, len(pathParams)+len(opParams))
	var order []string
	for _, group := range [][]*Parameter{pathParams, opParams} {
		for _, p := range group {
			key := parameterKey(p.In, p.Name)
			if _, ok := merged[key]; !ok {
				order = append(order, key)
			}
			merged[key] = p
		}
	}
	for _, in := range []string{parser.ParamInHeader, parser.ParamInQuery, parser.ParamInPath, parser.ParamInCookie} {
		for _, key := range order {
			if p := merged[key]; p.In == in {
				op.Parameters = append(op.Parameters, p)
				op.index[key] = p
			}
		}
	}

	if pm != nil {
		declared := make(map[string]bool, len(pm.ParamNames()))
		for _, name := range pm.ParamNames() {
			declared[name] = true
			if op.index[parameterKey(parser.ParamInPath, name)] == nil {
				b.problems.add(where, fmt.Sprintf("path parameter %q in template has no matching parameter declaration", name))
			}
		}
		for _, p := range op.Parameters {
			if p.In == parser.ParamInPath && !declared[p.Name] {
				b.problems.add(where, fmt.Sprintf("path parameter %q is not part of template %q", p.Name, tmpl))
			}
		}
	}

	if raw.RequestBody != nil {
		op.RequestBody = b.compileRequestBody(raw.RequestBody, where+"/requestBody")
	}

	if raw.Responses != nil {
		if raw.Responses.Default != nil {
			op.Default = b.compileResponse("default", raw.Responses.Default, where+"/responses/default")
		}
		for code, resp := range raw.Responses.Codes {
			if r := b.compileResponse(code, resp, where+"/responses/"+code); r != nil {
				op.Responses[code] = r
			}
		}
	}
	return op
}

// parameterKey identifies a parameter within an operation. Header names are
// case-insensitive.
func parameterKey(in, name string) string {
	if in == parser.ParamInHeader {
		name = http.CanonicalHeaderKey(name)
	}
	return in + ":" + name
}

func (b *specBuilder) compileParameters(params []*parser.Parameter, where string) []*Parameter {
	out := make([]*Parameter, 0, len(params))
	seen := make(map[string]bool, len(params))
	for i, raw := range params {
		pw := where + "/" + strconv.Itoa(i)
		p, err := b.doc.ResolveParameter(raw)
		if err != nil {
			b.problems.add(pw, err.Error())
			continue
		}
		key := parameterKey(p.In, p.Name)
		if seen[key] {
			b.problems.add(pw, fmt.Sprintf("duplicate %s parameter %q", p.In, p.Name))
			continue
		}
		seen[key] = true

		cp := &Parameter{
			Name:            p.Name,
			In:              p.In,
			Required:        p.Required,
			Deprecated:      p.Deprecated,
			AllowEmptyValue: p.AllowEmptyValue,
			AllowReserved:   p.AllowReserved,
			Style:           p.EffectiveStyle(),
			Explode:         p.EffectiveExplode(),
		}
		switch {
		case p.Schema != nil:
			cp.schema = b.schemas.compile(p.Schema, pw+"/schema")
		case len(p.Content) > 0:
			cp.ContentType, cp.schema = b.singleContent(p.Content, pw+"/content")
		}
		out = append(out, cp)
	}
	return out
}

// singleContent compiles the one media type allowed in a parameter or
// header content map.
func (b *specBuilder) singleContent(content map[string]*parser.MediaType, where string) (string, *compiledSchema) {
	for key, mt := range content {
		name, err := ParseMediaType(key)
		if err != nil {
			b.problems.add(where, err.Error())
			return "", nil
		}
		if mt == nil {
			return name, nil
		}
		return name, b.schemas.compile(mt.Schema, where+"/"+escapePointerToken(key)+"/schema")
	}
	return "", nil
}

func (b *specBuilder) compileRequestBody(raw *parser.RequestBody, where string) *RequestBody {
	rb, err := b.doc.ResolveRequestBody(raw)
	if err != nil {
		b.problems.add(where, err.Error())
		return nil
	}
	return &RequestBody{
		Required: rb.Required,
		Content:  b.compileContent(rb.Content, where+"/content"),
	}
}

func (b *specBuilder) compileResponse(code string, raw *parser.Response, where string) *Response {
	resp, err := b.doc.ResolveResponse(raw)
	if err != nil {
		b.problems.add(where, err.Error())
		return nil
	}
	out := &Response{
		Code:    code,
		Content: b.compileContent(resp.Content, where+"/content"),
	}

	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		hw := where + "/headers/" + escapePointerToken(name)
		h, err := b.doc.ResolveHeader(resp.Headers[name])
		if err != nil {
			b.problems.add(hw, err.Error())
			continue
		}
		// Content-Type is described by content, not by a header declaration.
		if strings.EqualFold(name, "Content-Type") {
			continue
		}
		hp := &Parameter{
			Name:       http.CanonicalHeaderKey(name),
			In:         parser.ParamInHeader,
			Required:   h.Required,
			Deprecated: h.Deprecated,
			Style:      parser.StyleSimple,
		}
		if h.Explode != nil {
			hp.Explode = *h.Explode
		}
		switch {
		case h.Schema != nil:
			hp.schema = b.schemas.compile(h.Schema, hw+"/schema")
		case len(h.Content) > 0:
			hp.ContentType, hp.schema = b.singleContent(h.Content, hw+"/content")
		}
		out.Headers = append(out.Headers, hp)
	}
	return out
}

func (b *specBuilder) compileContent(content map[string]*parser.MediaType, where string) *MediaTypeTable[*MediaType] {
	entries := make(map[string]*MediaType, len(content))
	for key, mt := range content {
		name, err := ParseMediaType(key)
		if err != nil {
			b.problems.add(where+"/"+escapePointerToken(key), err.Error())
			continue
		}
		entry := &MediaType{Name: name}
		if mt != nil {
			entry.schema = b.schemas.compile(mt.Schema, where+"/"+escapePointerToken(key)+"/schema")
		}
		entries[key] = entry
	}
	table, err := NewMediaTypeTable(entries)
	if err != nil {
		b.problems.add(where, err.Error())
		return nil
	}
	return table
}

// Match resolves a request path and method to an operation and its raw,
// percent-decoded path parameters. Templates are tried in precedence order;
// a template that matches the path but does not declare the method yields to
// the next matching template. When no template declares the method the error
// is a *oaserrors.RouteNotFoundError with MethodNotAllowed set.
func (cs *CompiledSpec) Match(rawPath, method string) (*Operation, map[string]string, error) {
	method = strings.ToUpper(method)
	candidates := cs.paths.Candidates(rawPath)
	if len(candidates) == 0 {
		return nil, nil, &oaserrors.RouteNotFoundError{Method: method, Path: rawPath}
	}

	allowed := make(map[string]bool)
	for _, c := range candidates {
		ops := cs.byPath[c.Template]
		if op, ok := ops[method]; ok {
			return op, c.Params, nil
		}
		for m := range ops {
			allowed[m] = true
		}
	}

	err := &oaserrors.RouteNotFoundError{Method: method, Path: rawPath, MethodNotAllowed: true}
	for _, m := range parser.Methods {
		if allowed[m] {
			err.Allowed = append(err.Allowed, m)
		}
	}
	return nil, nil, err
}

// Operations returns every operation, ordered by template precedence and
// then by method.
func (cs *CompiledSpec) Operations() []*Operation {
	return cs.operations
}

// OperationByID returns the operation with the given operationId, or nil.
func (cs *CompiledSpec) OperationByID(id string) *Operation {
	return cs.byID[id]
}

// Document returns the parsed document the spec was compiled from.
func (cs *CompiledSpec) Document() *parser.ParseResult {
	return cs.parsed
}

// Templates returns the path templates in precedence order.
func (cs *CompiledSpec) Templates() []string {
	return cs.paths.Templates()
}

// Parameter returns the parameter declared at location in with the given
// name, or nil. Header names are matched case-insensitively.
func (o *Operation) Parameter(in, name string) *Parameter {
	return o.index[parameterKey(in, name)]
}

// ParametersIn returns the parameters declared at location in.
func (o *Operation) ParametersIn(in string) []*Parameter {
	var out []*Parameter
	for _, p := range o.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

// Response returns the response declared for status, trying the exact code,
// then its range ("2XX"), then default. The second result is the responses
// key used, or "" when nothing applies.
func (o *Operation) Response(status int) (*Response, string) {
	code := strconv.Itoa(status)
	if r, ok := o.Responses[code]; ok {
		return r, code
	}
	if len(code) == 3 {
		rng := code[:1] + "XX"
		if r, ok := o.Responses[rng]; ok {
			return r, rng
		}
	}
	if o.Default != nil {
		return o.Default, "default"
	}
	return nil, ""
}

// String returns "METHOD /template".
func (o *Operation) String() string {
	return o.Method + " " + o.PathTemplate
}
