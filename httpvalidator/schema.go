package httpvalidator

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/netip"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// JSON Schema type names.
const (
	typeString  = "string"
	typeNumber  = "number"
	typeInteger = "integer"
	typeBoolean = "boolean"
	typeArray   = "array"
	typeObject  = "object"
	typeNull    = "null"
)

// compiledSchema is a schema with every $ref resolved and every pattern
// compiled. Trees may be cyclic for recursive schemas; a compiledSchema is
// never modified after Compile returns.
type compiledSchema struct {
	typ      string
	format   string
	nullable bool
	enum     []any

	minimum, maximum                   *float64
	exclusiveMinimum, exclusiveMaximum bool
	multipleOf                         *float64

	minLength, maxLength *int
	pattern              *regexp.Regexp

	items              *compiledSchema
	minItems, maxItems *int
	uniqueItems        bool

	properties                   map[string]*compiledSchema
	required                     []string
	additional                   *compiledSchema
	noAdditional                 bool
	minProperties, maxProperties *int

	allOf, anyOf, oneOf []*compiledSchema
	not                 *compiledSchema

	readOnly, writeOnly bool
}

// effectiveType returns the declared type, or the first type declared by a
// composition branch. Used to pick a coercion for string wire values.
func (cs *compiledSchema) effectiveType() string {
	return cs.effectiveTypeDepth(0)
}

func (cs *compiledSchema) effectiveTypeDepth(depth int) string {
	if cs == nil || depth > 8 {
		return ""
	}
	if cs.typ != "" {
		return cs.typ
	}
	for _, group := range [][]*compiledSchema{cs.allOf, cs.oneOf, cs.anyOf} {
		for _, branch := range group {
			if t := branch.effectiveTypeDepth(depth + 1); t != "" {
				return t
			}
		}
	}
	return ""
}

// compositionBranches returns the allOf, anyOf, oneOf and not subschemas.
func (cs *compiledSchema) compositionBranches() []*compiledSchema {
	out := make([]*compiledSchema, 0, len(cs.allOf)+len(cs.anyOf)+len(cs.oneOf)+1)
	out = append(out, cs.allOf...)
	out = append(out, cs.anyOf...)
	out = append(out, cs.oneOf...)
	if cs.not != nil {
		out = append(out, cs.not)
	}
	return out
}

// propertySchema returns the schema for a named property, searching allOf
// branches and falling back to additionalProperties.
func (cs *compiledSchema) propertySchema(name string) *compiledSchema {
	if cs == nil {
		return nil
	}
	if p, ok := cs.properties[name]; ok {
		return p
	}
	for _, branch := range cs.allOf {
		if p := branch.propertySchema(name); p != nil {
			return p
		}
	}
	return cs.additional
}

// itemsSchema returns the array item schema, searching allOf branches.
func (cs *compiledSchema) itemsSchema() *compiledSchema {
	if cs == nil {
		return nil
	}
	if cs.items != nil {
		return cs.items
	}
	for _, branch := range cs.allOf {
		if it := branch.itemsSchema(); it != nil {
			return it
		}
	}
	return nil
}

// direction selects readOnly/writeOnly semantics.
type direction int

const (
	directionRequest direction = iota
	directionResponse
)

// schemaIssues accumulates violations for one location.
type schemaIssues struct {
	location ValidationLocation
	dir      direction
	// redact omits values from messages (headers and cookies may carry credentials)
	redact   bool
	errors   []ValidationError
	warnings []ValidationError
}

func (s *schemaIssues) fail(field, reason string) {
	s.errors = append(s.errors, ValidationError{Field: field, Location: s.location, Reason: reason})
}

func (s *schemaIssues) warn(field, reason string) {
	s.warnings = append(s.warnings, ValidationError{Field: field, Location: s.location, Reason: reason})
}

// branch returns an empty accumulator with the same settings, used to test
// anyOf/oneOf alternatives without polluting the parent.
func (s *schemaIssues) branch() *schemaIssues {
	return &schemaIssues{location: s.location, dir: s.dir, redact: s.redact}
}

// validateValue validates a decoded value against a compiled schema.
// A nil schema accepts everything.
func validateValue(cs *compiledSchema, value any, field string, iss *schemaIssues) {
	if cs == nil {
		return
	}

	if value == nil {
		switch {
		case cs.nullable:
		case cs.typ == "" && len(cs.allOf)+len(cs.anyOf)+len(cs.oneOf) == 0:
		default:
			iss.fail(field, "must not be null")
			return
		}
		if len(cs.enum) > 0 && !cs.nullable && !enumContains(cs.enum, nil) {
			iss.fail(field, fmt.Sprintf("must be one of %s", formatEnum(cs.enum)))
		}
		return
	}

	dataType := jsonType(value)
	if cs.typ != "" && !typeMatches(dataType, cs.typ) {
		iss.fail(field, fmt.Sprintf("expected %s, got %s", cs.typ, dataType))
		return
	}

	if len(cs.enum) > 0 && !enumContains(cs.enum, value) {
		iss.fail(field, fmt.Sprintf("must be one of %s", formatEnum(cs.enum)))
	}

	switch dataType {
	case typeString:
		validateString(cs, value.(string), field, iss)
	case typeInteger, typeNumber:
		n, _ := toFloat64(value)
		validateNumber(cs, n, field, iss)
	case typeArray:
		validateArray(cs, toSlice(value), field, iss)
	case typeObject:
		validateObject(cs, value.(map[string]any), field, iss)
	}

	validateComposition(cs, value, field, iss)
}

func validateString(cs *compiledSchema, s, field string, iss *schemaIssues) {
	if cs.minLength != nil || cs.maxLength != nil {
		n := utf8.RuneCountInString(s)
		if cs.minLength != nil && n < *cs.minLength {
			iss.fail(field, fmt.Sprintf("length must be >= %d", *cs.minLength))
		}
		if cs.maxLength != nil && n > *cs.maxLength {
			iss.fail(field, fmt.Sprintf("length must be <= %d", *cs.maxLength))
		}
	}
	if cs.pattern != nil && !cs.pattern.MatchString(s) {
		iss.fail(field, fmt.Sprintf("must match pattern %s", cs.pattern.String()))
	}
	if cs.format != "" {
		if reason := checkStringFormat(cs.format, s); reason != "" {
			if iss.redact {
				iss.warn(field, "value "+reason)
			} else {
				iss.warn(field, fmt.Sprintf("%q %s", s, reason))
			}
		}
	}
}

func validateNumber(cs *compiledSchema, n float64, field string, iss *schemaIssues) {
	if cs.minimum != nil {
		if cs.exclusiveMinimum && n <= *cs.minimum {
			iss.fail(field, fmt.Sprintf("must be > %s", formatNumber(*cs.minimum)))
		} else if !cs.exclusiveMinimum && n < *cs.minimum {
			iss.fail(field, fmt.Sprintf("must be >= %s", formatNumber(*cs.minimum)))
		}
	}
	if cs.maximum != nil {
		if cs.exclusiveMaximum && n >= *cs.maximum {
			iss.fail(field, fmt.Sprintf("must be < %s", formatNumber(*cs.maximum)))
		} else if !cs.exclusiveMaximum && n > *cs.maximum {
			iss.fail(field, fmt.Sprintf("must be <= %s", formatNumber(*cs.maximum)))
		}
	}
	if cs.multipleOf != nil && *cs.multipleOf > 0 {
		q := n / *cs.multipleOf
		if math.Abs(q-math.Round(q)) > 1e-9 {
			iss.fail(field, fmt.Sprintf("must be a multiple of %s", formatNumber(*cs.multipleOf)))
		}
	}
	switch cs.format {
	case "int32":
		if n < math.MinInt32 || n > math.MaxInt32 {
			iss.fail(field, "out of range for int32")
		}
	case "int64":
		if n < math.MinInt64 || n > math.MaxInt64 {
			iss.fail(field, "out of range for int64")
		}
	}
}

func validateArray(cs *compiledSchema, arr []any, field string, iss *schemaIssues) {
	if cs.minItems != nil && len(arr) < *cs.minItems {
		iss.fail(field, fmt.Sprintf("must have at least %d items", *cs.minItems))
	}
	if cs.maxItems != nil && len(arr) > *cs.maxItems {
		iss.fail(field, fmt.Sprintf("must have at most %d items", *cs.maxItems))
	}
	if cs.uniqueItems && hasDuplicates(arr) {
		iss.fail(field, "items must be unique")
	}
	if cs.items != nil {
		for i, item := range arr {
			validateValue(cs.items, item, fmt.Sprintf("%s[%d]", field, i), iss)
		}
	}
}

func validateObject(cs *compiledSchema, obj map[string]any, field string, iss *schemaIssues) {
	for _, name := range cs.required {
		if _, ok := obj[name]; ok {
			continue
		}
		if prop := cs.properties[name]; prop != nil {
			if iss.dir == directionRequest && prop.readOnly {
				continue
			}
			if iss.dir == directionResponse && prop.writeOnly {
				continue
			}
		}
		iss.fail(joinField(field, name), "is required")
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		child := joinField(field, k)
		if prop, ok := cs.properties[k]; ok {
			validateValue(prop, obj[k], child, iss)
			continue
		}
		switch {
		case cs.additional != nil:
			validateValue(cs.additional, obj[k], child, iss)
		case cs.noAdditional:
			iss.fail(child, "is not allowed")
		}
	}

	if cs.minProperties != nil && len(obj) < *cs.minProperties {
		iss.fail(field, fmt.Sprintf("must have at least %d properties", *cs.minProperties))
	}
	if cs.maxProperties != nil && len(obj) > *cs.maxProperties {
		iss.fail(field, fmt.Sprintf("must have at most %d properties", *cs.maxProperties))
	}
}

func validateComposition(cs *compiledSchema, value any, field string, iss *schemaIssues) {
	for _, branch := range cs.allOf {
		validateValue(branch, value, field, iss)
	}

	if len(cs.anyOf) > 0 {
		matched := false
		for _, branch := range cs.anyOf {
			sub := iss.branch()
			validateValue(branch, value, field, sub)
			if len(sub.errors) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			iss.fail(field, "must match at least one schema in anyOf")
		}
	}

	if len(cs.oneOf) > 0 {
		matches := 0
		for _, branch := range cs.oneOf {
			sub := iss.branch()
			validateValue(branch, value, field, sub)
			if len(sub.errors) == 0 {
				matches++
			}
		}
		if matches != 1 {
			iss.fail(field, fmt.Sprintf("must match exactly one schema in oneOf (matched %d)", matches))
		}
	}

	if cs.not != nil {
		sub := iss.branch()
		validateValue(cs.not, value, field, sub)
		if len(sub.errors) == 0 {
			iss.fail(field, "must not match schema in not")
		}
	}
}

// Helper functions

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// jsonType returns the JSON Schema type of a decoded value. Whole floats
// report "integer" since JSON has a single number type.
func jsonType(v any) string {
	switch n := v.(type) {
	case nil:
		return typeNull
	case string:
		return typeString
	case bool:
		return typeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return typeInteger
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return typeInteger
		}
		return typeNumber
	case float32:
		if float64(n) == math.Trunc(float64(n)) {
			return typeInteger
		}
		return typeNumber
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return typeInteger
		}
		return typeNumber
	case []any, []string:
		return typeArray
	case map[string]any:
		return typeObject
	default:
		return fmt.Sprintf("%T", v)
	}
}

// typeMatches checks if a data type satisfies a schema type.
func typeMatches(dataType, schemaType string) bool {
	if dataType == schemaType {
		return true
	}
	// "integer" is a subset of "number"
	return schemaType == typeNumber && dataType == typeInteger
}

// toFloat64 converts numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return nil
}

// valuesEqual compares decoded values, treating numbers of different Go
// types as equal when they hold the same value.
func valuesEqual(a, b any) bool {
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		return ok && fa == fb
	}
	switch at := a.(type) {
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt := toSlice(b)
		if bt == nil || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqual(at[i], bt[i]) {
				return false
			}
		}
		return true
	case []string:
		return valuesEqual(toSlice(a), b)
	case string:
		bs, ok := b.(string)
		return ok && at == bs
	case bool:
		bb, ok := b.(bool)
		return ok && at == bb
	case nil:
		return b == nil
	}
	return false
}

func enumContains(enum []any, v any) bool {
	for _, allowed := range enum {
		if valuesEqual(allowed, v) {
			return true
		}
	}
	return false
}

func formatEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		if e == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = fmt.Sprint(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}

// hasDuplicates checks if an array has duplicate values.
func hasDuplicates(arr []any) bool {
	for i := range arr {
		for j := i + 1; j < len(arr); j++ {
			if valuesEqual(arr[i], arr[j]) {
				return true
			}
		}
	}
	return false
}

// Format validation helpers

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// checkStringFormat returns a reason when s does not satisfy format.
// Unknown formats are ignored (as per JSON Schema spec).
func checkStringFormat(format, s string) string {
	switch format {
	case "email":
		if !emailRegex.MatchString(s) {
			return "is not a valid email address"
		}
	case "uri":
		if u, err := url.Parse(s); err != nil || !u.IsAbs() {
			return "is not a valid absolute URI"
		}
	case "uri-reference":
		if _, err := url.Parse(s); err != nil {
			return "is not a valid URI reference"
		}
	case "date":
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "is not a valid date (expected YYYY-MM-DD)"
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return "is not a valid date-time (expected RFC 3339)"
		}
	case "uuid":
		if _, err := uuid.Parse(s); err != nil || len(s) != 36 {
			return "is not a valid UUID"
		}
	case "ipv4":
		if a, err := netip.ParseAddr(s); err != nil || !a.Is4() {
			return "is not a valid IPv4 address"
		}
	case "ipv6":
		if a, err := netip.ParseAddr(s); err != nil || !a.Is6() {
			return "is not a valid IPv6 address"
		}
	case "byte":
		if _, err := base64.StdEncoding.DecodeString(s); err != nil {
			return "is not valid base64"
		}
	}
	return ""
}
