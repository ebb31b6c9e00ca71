package httpvalidator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/erraggy/oasgate/parser"
)

// QueryOptions controls query string parsing.
type QueryOptions struct {
	// MaxParams caps the number of query values a request may carry.
	// Zero means DefaultMaxQueryParams; a negative value disables the limit.
	MaxParams int `yaml:"maxParams,omitempty" json:"maxParams,omitempty"`

	// AllowDots accepts "type.color=red" as an alias of the deepObject
	// form "type[color]=red".
	AllowDots bool `yaml:"allowDots,omitempty" json:"allowDots,omitempty"`
}

// DefaultMaxQueryParams is the query value limit applied when
// QueryOptions.MaxParams is zero.
const DefaultMaxQueryParams = 1000

// limit returns the effective MaxParams, or -1 for unlimited.
func (o QueryOptions) limit() int {
	switch {
	case o.MaxParams == 0:
		return DefaultMaxQueryParams
	case o.MaxParams < 0:
		return -1
	default:
		return o.MaxParams
	}
}

// ParamDeserializer handles deserialization of HTTP parameters according to
// OpenAPI serialization styles, followed by coercion to the schema type.
// Each parameter location has default styles:
//
// | Location | Default Style | Default Explode |
// |----------|---------------|-----------------|
// | path     | simple        | false           |
// | query    | form          | true            |
// | header   | simple        | false           |
// | cookie   | form          | true            |
//
// A value that cannot be coerced yields an error; callers report it as a
// violation rather than passing the raw string through.
type ParamDeserializer struct {
	opts QueryOptions
}

// NewParamDeserializer creates a new parameter deserializer.
func NewParamDeserializer(opts QueryOptions) *ParamDeserializer {
	return &ParamDeserializer{opts: opts}
}

// DeserializePathParam deserializes a percent-decoded path parameter value.
//
// Styles supported:
//   - simple (default): comma-separated values, e.g., "a,b,c"
//   - label: dot-prefixed values, e.g., ".a.b.c"
//   - matrix: semicolon-prefixed key=value, e.g., ";id=5"
func (d *ParamDeserializer) DeserializePathParam(value string, p *Parameter) (any, error) {
	if p.ContentType != "" {
		return decodeContentParam(value, p)
	}
	switch p.Style {
	case parser.StyleLabel:
		return d.deserializeLabel(value, p)
	case parser.StyleMatrix:
		return d.deserializeMatrix(value, p)
	default:
		return d.deserializeSimple(value, p.schema, p.Explode)
	}
}

// DeserializeQueryParam deserializes a query parameter from the full query.
// It returns the query keys the parameter consumed; no keys means the
// parameter is absent.
//
// Styles supported:
//   - form (default): standard query string format
//   - spaceDelimited: space-separated values
//   - pipeDelimited: pipe-separated values
//   - deepObject: nested object notation, e.g., "filter[status]=active"
func (d *ParamDeserializer) DeserializeQueryParam(query url.Values, p *Parameter) (any, []string, error) {
	if p.Style == parser.StyleDeepObject {
		return d.deserializeDeepObject(query, p)
	}

	values, ok := query[p.Name]
	if ok && len(values) == 0 {
		ok = false
	}

	// Exploded form objects spread their properties over separate keys.
	if !ok && p.Style == parser.StyleForm && p.Explode && p.schema.effectiveType() == typeObject {
		return d.deserializeFormObject(query, p)
	}
	if !ok {
		return nil, nil, nil
	}
	consumed := []string{p.Name}

	if !p.AllowEmptyValue && len(values) == 1 && values[0] == "" && p.schema.effectiveType() != typeString {
		return nil, consumed, errors.New("empty value is not allowed")
	}
	if p.ContentType != "" {
		v, err := decodeContentParam(values[0], p)
		return v, consumed, err
	}

	switch p.Style {
	case parser.StyleSpaceDelimited:
		v, err := d.deserializeDelimited(values, " ", p)
		return v, consumed, err
	case parser.StylePipeDelimited:
		v, err := d.deserializeDelimited(values, "|", p)
		return v, consumed, err
	default:
		v, err := d.deserializeForm(values, p)
		return v, consumed, err
	}
}

// DeserializeHeaderParam deserializes a header parameter. Repeated header
// lines are joined with commas first.
func (d *ParamDeserializer) DeserializeHeaderParam(values []string, p *Parameter) (any, error) {
	value := strings.Join(values, ",")
	if p.ContentType != "" {
		return decodeContentParam(value, p)
	}
	return d.deserializeSimple(value, p.schema, p.Explode)
}

// DeserializeCookieParam deserializes a cookie parameter value.
// Cookies only support form style; arrays are comma-separated.
func (d *ParamDeserializer) DeserializeCookieParam(value string, p *Parameter) (any, error) {
	if p.ContentType != "" {
		return decodeContentParam(value, p)
	}
	switch p.schema.effectiveType() {
	case typeArray:
		return coerceArray(strings.Split(value, ","), p.schema.itemsSchema())
	case typeObject:
		return coerceObjectPairs(strings.Split(value, ","), p.schema)
	}
	return coerceScalar(value, p.schema)
}

// deserializeSimple handles the "simple" style (comma-separated).
func (d *ParamDeserializer) deserializeSimple(value string, cs *compiledSchema, explode bool) (any, error) {
	switch cs.effectiveType() {
	case typeArray:
		return coerceArray(strings.Split(value, ","), cs.itemsSchema())
	case typeObject:
		if explode {
			// key=value,key2=value2
			return coerceObjectAssignments(strings.Split(value, ","), cs)
		}
		// key,value,key2,value2
		return coerceObjectPairs(strings.Split(value, ","), cs)
	}
	return coerceScalar(value, cs)
}

// deserializeLabel handles the "label" style (dot-prefixed).
func (d *ParamDeserializer) deserializeLabel(value string, p *Parameter) (any, error) {
	if !strings.HasPrefix(value, ".") {
		return nil, errors.New("label style value must start with \".\"")
	}
	value = value[1:]

	sep := ","
	if p.Explode {
		sep = "."
	}
	switch p.schema.effectiveType() {
	case typeArray:
		return coerceArray(strings.Split(value, sep), p.schema.itemsSchema())
	case typeObject:
		if p.Explode {
			// .key=value.key2=value2
			return coerceObjectAssignments(strings.Split(value, "."), p.schema)
		}
		// .key,value,key2,value2
		return coerceObjectPairs(strings.Split(value, ","), p.schema)
	}
	return coerceScalar(value, p.schema)
}

// deserializeMatrix handles the "matrix" style (semicolon-prefixed).
func (d *ParamDeserializer) deserializeMatrix(value string, p *Parameter) (any, error) {
	if !strings.HasPrefix(value, ";") {
		return nil, errors.New("matrix style value must start with \";\"")
	}
	parts := strings.Split(value[1:], ";")
	prefix := p.Name + "="

	switch p.schema.effectiveType() {
	case typeArray:
		if p.Explode {
			// ;id=3;id=4
			items := make([]string, 0, len(parts))
			for _, part := range parts {
				item, ok := strings.CutPrefix(part, prefix)
				if !ok {
					return nil, fmt.Errorf("matrix style value must repeat %q", prefix)
				}
				items = append(items, item)
			}
			return coerceArray(items, p.schema.itemsSchema())
		}
		// ;id=3,4
		rest, ok := strings.CutPrefix(parts[0], prefix)
		if !ok || len(parts) != 1 {
			return nil, fmt.Errorf("matrix style value must start with %q", ";"+prefix)
		}
		return coerceArray(strings.Split(rest, ","), p.schema.itemsSchema())
	case typeObject:
		if p.Explode {
			// ;role=admin;name=alex
			return coerceObjectAssignments(parts, p.schema)
		}
		// ;id=role,admin,name,alex
		rest, ok := strings.CutPrefix(parts[0], prefix)
		if !ok || len(parts) != 1 {
			return nil, fmt.Errorf("matrix style value must start with %q", ";"+prefix)
		}
		return coerceObjectPairs(strings.Split(rest, ","), p.schema)
	}

	rest, ok := strings.CutPrefix(parts[0], prefix)
	if !ok || len(parts) != 1 {
		return nil, fmt.Errorf("matrix style value must start with %q", ";"+prefix)
	}
	return coerceScalar(rest, p.schema)
}

// deserializeForm handles the "form" style for a single query key.
func (d *ParamDeserializer) deserializeForm(values []string, p *Parameter) (any, error) {
	switch p.schema.effectiveType() {
	case typeArray:
		if p.Explode {
			// ids=1&ids=2
			return coerceArray(values, p.schema.itemsSchema())
		}
		// ids=1,2
		return coerceArray(strings.Split(values[0], ","), p.schema.itemsSchema())
	case typeObject:
		// explode=false: filter=role,admin,name,alex
		return coerceObjectPairs(strings.Split(values[0], ","), p.schema)
	}
	if len(values) > 1 {
		return nil, errors.New("must not be repeated")
	}
	return coerceScalar(values[0], p.schema)
}

// deserializeFormObject collects the properties of an exploded form object
// ("role=admin&name=alex" for a parameter named after neither key).
func (d *ParamDeserializer) deserializeFormObject(query url.Values, p *Parameter) (any, []string, error) {
	obj := make(map[string]any)
	var consumed []string
	var errs []string
	for name, prop := range p.schema.properties {
		values, ok := query[name]
		if !ok || len(values) == 0 {
			continue
		}
		consumed = append(consumed, name)
		v, err := coerceRepeated(values, prop)
		if err != nil {
			errs = append(errs, name+" "+err.Error())
			continue
		}
		obj[name] = v
	}
	if len(consumed) == 0 {
		return nil, nil, nil
	}
	sort.Strings(consumed)
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, consumed, errors.New(strings.Join(errs, "; "))
	}
	return obj, consumed, nil
}

// deserializeDelimited handles spaceDelimited and pipeDelimited arrays.
func (d *ParamDeserializer) deserializeDelimited(values []string, sep string, p *Parameter) (any, error) {
	if p.schema.effectiveType() != typeArray {
		if len(values) > 1 {
			return nil, errors.New("must not be repeated")
		}
		return coerceScalar(values[0], p.schema)
	}
	if p.Explode {
		return coerceArray(values, p.schema.itemsSchema())
	}
	return coerceArray(strings.Split(values[0], sep), p.schema.itemsSchema())
}

// deserializeDeepObject builds a single-level object from "name[prop]=v"
// keys, and from "name.prop=v" when dots are allowed.
func (d *ParamDeserializer) deserializeDeepObject(query url.Values, p *Parameter) (any, []string, error) {
	bracket := p.Name + "["
	dot := p.Name + "."

	obj := make(map[string]any)
	var consumed []string
	var errs []string

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var prop string
		switch {
		case strings.HasPrefix(key, bracket) && strings.HasSuffix(key, "]"):
			prop = key[len(bracket) : len(key)-1]
		case d.opts.AllowDots && strings.HasPrefix(key, dot):
			prop = key[len(dot):]
		default:
			continue
		}
		if prop == "" || strings.ContainsAny(prop, "[].") {
			errs = append(errs, fmt.Sprintf("%s: only single-level objects are supported", key))
			consumed = append(consumed, key)
			continue
		}
		consumed = append(consumed, key)
		v, err := coerceRepeated(query[key], p.schema.propertySchema(prop))
		if err != nil {
			errs = append(errs, prop+" "+err.Error())
			continue
		}
		obj[prop] = v
	}

	if len(consumed) == 0 {
		return nil, nil, nil
	}
	if len(errs) > 0 {
		return nil, consumed, errors.New(strings.Join(errs, "; "))
	}
	return obj, consumed, nil
}

// decodeContentParam decodes a parameter declared with a JSON content type.
// Other content types are kept as strings.
func decodeContentParam(value string, p *Parameter) (any, error) {
	if !isJSONMediaType(p.ContentType) {
		return value, nil
	}
	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return nil, fmt.Errorf("is not valid JSON: %w", err)
	}
	return v, nil
}

// isJSONMediaType reports whether mt is application/json or a +json type.
func isJSONMediaType(mt string) bool {
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// coerceRepeated coerces the values of one query key: every value for
// arrays, exactly one otherwise.
func coerceRepeated(values []string, cs *compiledSchema) (any, error) {
	if cs.effectiveType() == typeArray {
		if len(values) == 1 {
			values = strings.Split(values[0], ",")
		}
		return coerceArray(values, cs.itemsSchema())
	}
	if len(values) > 1 {
		if cs.effectiveType() == "" {
			return coerceArray(values, nil)
		}
		return nil, errors.New("must not be repeated")
	}
	return coerceScalar(values[0], cs)
}

// coerceScalar converts a wire string to the schema's scalar type.
// Integers become int64 and numbers float64.
func coerceScalar(raw string, cs *compiledSchema) (any, error) {
	switch cs.effectiveType() {
	case typeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("is not a valid integer")
		}
		return n, nil
	case typeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("is not a valid number")
		}
		return f, nil
	case typeBoolean:
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, errors.New("is not a valid boolean")
	case typeArray:
		return coerceArray(strings.Split(raw, ","), cs.itemsSchema())
	case typeObject:
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, errors.New("is not a valid object")
		}
		return v, nil
	}
	return raw, nil
}

func coerceArray(parts []string, items *compiledSchema) ([]any, error) {
	out := make([]any, len(parts))
	for i, part := range parts {
		v, err := coerceScalar(part, items)
		if err != nil {
			return nil, fmt.Errorf("item %d %s", i, err.Error())
		}
		out[i] = v
	}
	return out, nil
}

// coerceObjectPairs builds an object from alternating keys and values.
func coerceObjectPairs(parts []string, cs *compiledSchema) (map[string]any, error) {
	if len(parts)%2 != 0 {
		return nil, errors.New("object value must have an even number of key,value items")
	}
	obj := make(map[string]any, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		v, err := coerceScalar(parts[i+1], cs.propertySchema(parts[i]))
		if err != nil {
			return nil, fmt.Errorf("%s %s", parts[i], err.Error())
		}
		obj[parts[i]] = v
	}
	return obj, nil
}

// coerceObjectAssignments builds an object from "key=value" items.
func coerceObjectAssignments(parts []string, cs *compiledSchema) (map[string]any, error) {
	obj := make(map[string]any, len(parts))
	for _, part := range parts {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return nil, errors.New("object value must be a list of key=value items")
		}
		v, err := coerceScalar(value, cs.propertySchema(key))
		if err != nil {
			return nil, fmt.Errorf("%s %s", key, err.Error())
		}
		obj[key] = v
	}
	return obj, nil
}

// coerceFormBody converts a urlencoded or multipart form body into an object
// whose values follow the body schema's property types.
func coerceFormBody(values url.Values, cs *compiledSchema) (map[string]any, []ValidationError) {
	obj := make(map[string]any, len(values))
	var problems []ValidationError

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop := cs.propertySchema(key)
		v, err := coerceRepeated(values[key], prop)
		if err != nil {
			problems = append(problems, ValidationError{Field: key, Location: LocationBody, Reason: err.Error()})
			continue
		}
		obj[key] = v
	}
	return obj, problems
}
