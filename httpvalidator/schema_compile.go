package httpvalidator

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/erraggy/oasgate/parser"
)

// schemaCompiler turns parser schemas into compiledSchema trees.
// Compiled nodes are memoized by their resolved definition, so shared
// components compile once and recursive schemas become cyclic trees.
type schemaCompiler struct {
	doc      *parser.Document
	memo     map[*parser.Schema]*compiledSchema
	where    map[*compiledSchema]string
	patterns map[string]*regexp.Regexp
	problems *problemList
}

func newSchemaCompiler(doc *parser.Document, problems *problemList) *schemaCompiler {
	return &schemaCompiler{
		doc:      doc,
		memo:     make(map[*parser.Schema]*compiledSchema),
		where:    make(map[*compiledSchema]string),
		patterns: make(map[string]*regexp.Regexp),
		problems: problems,
	}
}

// compile compiles s; where is a document pointer used in error reports.
// A nil schema compiles to nil, which accepts any value.
func (c *schemaCompiler) compile(s *parser.Schema, where string) *compiledSchema {
	if s == nil {
		return nil
	}
	resolved, err := c.doc.ResolveSchema(s)
	if err != nil {
		c.problems.add(where, err.Error())
		return nil
	}
	if cs, ok := c.memo[resolved]; ok {
		return cs
	}

	cs := &compiledSchema{
		typ:              resolved.Type,
		format:           resolved.Format,
		nullable:         resolved.Nullable,
		enum:             resolved.Enum,
		minimum:          resolved.Minimum,
		maximum:          resolved.Maximum,
		exclusiveMinimum: resolved.ExclusiveMinimum,
		exclusiveMaximum: resolved.ExclusiveMaximum,
		multipleOf:       resolved.MultipleOf,
		minLength:        resolved.MinLength,
		maxLength:        resolved.MaxLength,
		minItems:         resolved.MinItems,
		maxItems:         resolved.MaxItems,
		uniqueItems:      resolved.UniqueItems,
		required:         resolved.Required,
		minProperties:    resolved.MinProperties,
		maxProperties:    resolved.MaxProperties,
		readOnly:         resolved.ReadOnly,
		writeOnly:        resolved.WriteOnly,
	}
	// Registered before recursing so that cycles terminate.
	c.memo[resolved] = cs

	if resolved.Ref == "" && s.Ref != "" {
		where = s.Ref
	}
	c.where[cs] = where

	if resolved.Pattern != "" {
		cs.pattern = c.compilePattern(resolved.Pattern, where+"/pattern")
	}

	cs.items = c.compile(resolved.Items, where+"/items")

	if len(resolved.Properties) > 0 {
		cs.properties = make(map[string]*compiledSchema, len(resolved.Properties))
		for name, prop := range resolved.Properties {
			cs.properties[name] = c.compile(prop, where+"/properties/"+escapePointerToken(name))
		}
	}

	if ap := resolved.AdditionalProperties; ap != nil {
		if !ap.Allowed {
			cs.noAdditional = true
		} else if ap.Schema != nil {
			cs.additional = c.compile(ap.Schema, where+"/additionalProperties")
		}
	}

	cs.allOf = c.compileAll(resolved.AllOf, where+"/allOf")
	cs.anyOf = c.compileAll(resolved.AnyOf, where+"/anyOf")
	cs.oneOf = c.compileAll(resolved.OneOf, where+"/oneOf")
	cs.not = c.compile(resolved.Not, where+"/not")

	return cs
}

func (c *schemaCompiler) compileAll(schemas []*parser.Schema, where string) []*compiledSchema {
	if len(schemas) == 0 {
		return nil
	}
	out := make([]*compiledSchema, 0, len(schemas))
	for i, s := range schemas {
		cs := c.compile(s, fmt.Sprintf("%s/%d", where, i))
		if cs == nil {
			// Unresolvable branch; already reported. Keep the index stable
			// with an accept-all schema.
			cs = &compiledSchema{}
		}
		out = append(out, cs)
	}
	return out
}

func (c *schemaCompiler) compilePattern(pattern, where string) *regexp.Regexp {
	if re, ok := c.patterns[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		c.problems.add(where, fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		return nil
	}
	c.patterns[pattern] = re
	return re
}

// checkCompositionCycles reports every schema that reaches itself through
// allOf, anyOf, oneOf or not alone. Such a schema constrains the same value
// forever, so validating it would never terminate. Cycles through
// properties, items or additionalProperties descend into the value and are
// fine.
func (c *schemaCompiler) checkCompositionCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*compiledSchema]int, len(c.where))

	var visit func(cs *compiledSchema)
	visit = func(cs *compiledSchema) {
		if cs == nil {
			return
		}
		switch state[cs] {
		case visiting:
			c.problems.add(c.where[cs], "schema refers to itself through allOf, anyOf, oneOf or not")
			return
		case done:
			return
		}
		state[cs] = visiting
		for _, branch := range cs.compositionBranches() {
			visit(branch)
		}
		state[cs] = done
	}

	roots := make([]*compiledSchema, 0, len(c.where))
	for cs := range c.where {
		roots = append(roots, cs)
	}
	sort.Slice(roots, func(i, j int) bool { return c.where[roots[i]] < c.where[roots[j]] })
	for _, cs := range roots {
		visit(cs)
	}
}
