package httpvalidator

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// segmentKind classifies one "/"-separated piece of a path template.
// Higher values take precedence when ordering templates.
type segmentKind int

const (
	segmentVariable segmentKind = iota // "{petId}"
	segmentMixed                       // "{name}.{ext}" or "v{version}"
	segmentLiteral                     // "pets"
)

// pathSegment is one compiled template segment.
type pathSegment struct {
	kind    segmentKind
	literal string         // segmentLiteral
	name    string         // segmentVariable
	regex   *regexp.Regexp // segmentMixed
	names   []string       // segmentMixed capture names in order
	prefix  string         // segmentMixed literal text before the first parameter
	suffix  string         // segmentMixed literal text after the last parameter
}

// PathMatcher matches request paths against one OpenAPI path template.
// Matching walks the request and template segments in lock-step; it is
// anchored, so "/pets" does not match "/pets/1" or "/pets/".
type PathMatcher struct {
	// template is the original OAS path template (e.g., "/pets/{petId}")
	template string

	segments []pathSegment

	// paramNames are the parameter names in order of appearance
	paramNames []string

	literals  int
	variables int
}

// NewPathMatcher creates a PathMatcher from an OpenAPI path template.
// The template should be in the format "/path/{param}/more/{param2}".
//
// Returns an error if the template is malformed (e.g., unclosed braces).
func NewPathMatcher(template string) (*PathMatcher, error) {
	if template == "" {
		return nil, fmt.Errorf("path template cannot be empty")
	}
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("path template %q must start with /", template)
	}

	pm := &PathMatcher{template: template, paramNames: []string{}}
	seen := make(map[string]bool)

	for _, raw := range strings.Split(template[1:], "/") {
		seg, err := compileSegment(raw, template)
		if err != nil {
			return nil, err
		}
		var names []string
		switch seg.kind {
		case segmentVariable:
			names = []string{seg.name}
			pm.variables++
		case segmentMixed:
			names = seg.names
		default:
			pm.literals++
		}
		for _, n := range names {
			if seen[n] {
				return nil, fmt.Errorf("duplicate path parameter %q in template %q", n, template)
			}
			seen[n] = true
			pm.paramNames = append(pm.paramNames, n)
		}
		pm.segments = append(pm.segments, seg)
	}
	return pm, nil
}

// compileSegment parses one template segment.
func compileSegment(raw, template string) (pathSegment, error) {
	if !strings.ContainsAny(raw, "{}") {
		return pathSegment{kind: segmentLiteral, literal: raw}, nil
	}

	var (
		regexBuf strings.Builder
		shapeBuf strings.Builder
		names    []string
	)
	regexBuf.WriteString("^")
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			end := strings.IndexByte(raw[i:], '}')
			if end == -1 {
				return pathSegment{}, fmt.Errorf("unclosed path parameter in template %q", template)
			}
			name := raw[i+1 : i+end]
			if name == "" {
				return pathSegment{}, fmt.Errorf("empty path parameter in template %q", template)
			}
			if strings.ContainsAny(name, "{/") {
				return pathSegment{}, fmt.Errorf("malformed path parameter %q in template %q", name, template)
			}
			if len(names) > 0 && i > 0 && raw[i-1] == '}' {
				return pathSegment{}, fmt.Errorf("adjacent path parameters in template %q cannot be separated", template)
			}
			names = append(names, name)
			regexBuf.WriteString("(.+?)")
			shapeBuf.WriteString("{}")
			i += end + 1
		case '}':
			return pathSegment{}, fmt.Errorf("unopened path parameter in template %q", template)
		default:
			j := i
			for j < len(raw) && raw[j] != '{' && raw[j] != '}' {
				j++
			}
			regexBuf.WriteString(regexp.QuoteMeta(raw[i:j]))
			shapeBuf.WriteString(raw[i:j])
			i = j
		}
	}
	regexBuf.WriteString("$")

	if len(names) == 1 && shapeBuf.String() == "{}" {
		return pathSegment{kind: segmentVariable, name: names[0]}, nil
	}
	re, err := regexp.Compile(regexBuf.String())
	if err != nil {
		return pathSegment{}, fmt.Errorf("path template %q: %w", template, err)
	}
	shape := shapeBuf.String()
	return pathSegment{
		kind:   segmentMixed,
		regex:  re,
		names:  names,
		prefix: shape[:strings.Index(shape, "{}")],
		suffix: shape[strings.LastIndex(shape, "{}")+2:],
	}, nil
}

// splitPath splits an escaped request path into percent-decoded segments.
// Returns false when the path does not start with "/".
func splitPath(path string) ([]string, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	parts := strings.Split(path[1:], "/")
	for i, p := range parts {
		if strings.IndexByte(p, '%') < 0 {
			continue
		}
		if u, err := url.PathUnescape(p); err == nil {
			parts[i] = u
		}
	}
	return parts, true
}

// Match checks if a request path matches this template.
// Returns whether it matched and the extracted, percent-decoded parameters.
func (pm *PathMatcher) Match(path string) (bool, map[string]string) {
	segs, ok := splitPath(path)
	if !ok {
		return false, nil
	}
	return pm.matchSegments(segs)
}

func (pm *PathMatcher) matchSegments(segs []string) (bool, map[string]string) {
	if len(segs) != len(pm.segments) {
		return false, nil
	}
	params := make(map[string]string, len(pm.paramNames))
	for i, seg := range pm.segments {
		value := segs[i]
		switch seg.kind {
		case segmentLiteral:
			if value != seg.literal {
				return false, nil
			}
		case segmentVariable:
			if value == "" {
				return false, nil
			}
			params[seg.name] = value
		case segmentMixed:
			m := seg.regex.FindStringSubmatch(value)
			if m == nil {
				return false, nil
			}
			for j, name := range seg.names {
				params[name] = m[j+1]
			}
		}
	}
	return true, params
}

// Template returns the original path template.
func (pm *PathMatcher) Template() string {
	return pm.template
}

// ParamNames returns the parameter names in order of appearance.
func (pm *PathMatcher) ParamNames() []string {
	return pm.paramNames
}

// overlaps reports whether the segment can match at least one value the
// other segment also matches. Two mixed segments are compared by their
// literal prefix and suffix only, so the answer may be a false positive.
func (s pathSegment) overlaps(o pathSegment) bool {
	if s.kind < o.kind {
		s, o = o, s
	}
	switch {
	case s.kind == segmentLiteral && o.kind == segmentLiteral:
		return s.literal == o.literal
	case s.kind == segmentLiteral && o.kind == segmentMixed:
		return o.regex.MatchString(s.literal)
	case s.kind == segmentLiteral:
		return s.literal != ""
	case s.kind == segmentMixed && o.kind == segmentMixed:
		return (strings.HasPrefix(s.prefix, o.prefix) || strings.HasPrefix(o.prefix, s.prefix)) &&
			(strings.HasSuffix(s.suffix, o.suffix) || strings.HasSuffix(o.suffix, s.suffix))
	default:
		return true
	}
}

// ambiguousWith reports whether both templates can match the same request
// path while neither has more literal or fewer variable segments.
func (pm *PathMatcher) ambiguousWith(other *PathMatcher) bool {
	if len(pm.segments) != len(other.segments) ||
		pm.literals != other.literals || pm.variables != other.variables {
		return false
	}
	for i := range pm.segments {
		if !pm.segments[i].overlaps(other.segments[i]) {
			return false
		}
	}
	return true
}

// morePreciseThan orders templates: more literal segments first, then fewer
// variable segments. Remaining ties never overlap; they are ordered left to
// right literal > mixed > variable, then by template text.
func (pm *PathMatcher) morePreciseThan(other *PathMatcher) bool {
	if pm.literals != other.literals {
		return pm.literals > other.literals
	}
	if pm.variables != other.variables {
		return pm.variables < other.variables
	}
	for i := range pm.segments {
		if i >= len(other.segments) {
			break
		}
		a, b := pm.segments[i].kind, other.segments[i].kind
		if a != b {
			return a > b
		}
	}
	return pm.template < other.template
}

// PathMatcherSet holds the matchers for every path template in a document,
// grouped by segment count and ordered by precedence.
type PathMatcherSet struct {
	bySegments map[int][]*PathMatcher
	ordered    []*PathMatcher
}

// AmbiguousPathsError reports overlapping templates with no precedence
// winner, such as "/pets/{id}" and "/pets/{name}", or "/{kind}/mine" and
// "/pets/{id}" (both match "/pets/mine").
type AmbiguousPathsError struct {
	Templates []string
}

// Error returns a human-readable error message.
func (e *AmbiguousPathsError) Error() string {
	return fmt.Sprintf("ambiguous path templates: %s", strings.Join(e.Templates, ", "))
}

// NewPathMatcherSet compiles all templates. It fails on the first malformed
// template and on the first ambiguous pair.
func NewPathMatcherSet(templates []string) (*PathMatcherSet, error) {
	pms := &PathMatcherSet{bySegments: make(map[int][]*PathMatcher)}

	sorted := append([]string(nil), templates...)
	sort.Strings(sorted)

	for _, tmpl := range sorted {
		pm, err := NewPathMatcher(tmpl)
		if err != nil {
			return nil, err
		}
		n := len(pm.segments)
		if prev := pm.ambiguousIn(pms.bySegments[n]); prev != nil {
			return nil, &AmbiguousPathsError{Templates: []string{prev.template, tmpl}}
		}
		pms.bySegments[n] = append(pms.bySegments[n], pm)
		pms.ordered = append(pms.ordered, pm)
	}

	for _, group := range pms.bySegments {
		sort.Slice(group, func(i, j int) bool { return group[i].morePreciseThan(group[j]) })
	}
	sort.SliceStable(pms.ordered, func(i, j int) bool {
		a, b := pms.ordered[i], pms.ordered[j]
		if len(a.segments) != len(b.segments) {
			return len(a.segments) < len(b.segments)
		}
		return a.morePreciseThan(b)
	})
	return pms, nil
}

// ambiguousIn returns the first matcher in group that pm is ambiguous with.
func (pm *PathMatcher) ambiguousIn(group []*PathMatcher) *PathMatcher {
	for _, other := range group {
		if pm.ambiguousWith(other) {
			return other
		}
	}
	return nil
}

// Match finds the most precise template matching path.
func (pms *PathMatcherSet) Match(path string) (template string, params map[string]string, found bool) {
	matches := pms.Candidates(path)
	if len(matches) == 0 {
		return "", nil, false
	}
	return matches[0].Template, matches[0].Params, true
}

// PathMatch is one template that matched a request path.
type PathMatch struct {
	Template string
	Params   map[string]string
}

// Candidates returns every template matching path, most precise first.
func (pms *PathMatcherSet) Candidates(path string) []PathMatch {
	if pms == nil {
		return nil
	}
	segs, ok := splitPath(path)
	if !ok {
		return nil
	}
	var out []PathMatch
	for _, pm := range pms.bySegments[len(segs)] {
		if ok, params := pm.matchSegments(segs); ok {
			out = append(out, PathMatch{Template: pm.template, Params: params})
		}
	}
	return out
}

// Templates returns all templates in precedence order.
func (pms *PathMatcherSet) Templates() []string {
	out := make([]string, len(pms.ordered))
	for i, pm := range pms.ordered {
		out[i] = pm.template
	}
	return out
}

// Matcher returns the compiled matcher for template, or nil.
func (pms *PathMatcherSet) Matcher(template string) *PathMatcher {
	for _, pm := range pms.ordered {
		if pm.template == template {
			return pm
		}
	}
	return nil
}
