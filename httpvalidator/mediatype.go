package httpvalidator

import (
	"fmt"
	"mime"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Specificity ranks how precisely a media-type key matched a content type.
type Specificity int

// Specificity levels, lowest first.
const (
	// SpecificityNone means nothing matched.
	SpecificityNone Specificity = iota
	// SpecificityAny is a "*/*" match.
	SpecificityAny
	// SpecificitySubtype is a "*/subtype" match.
	SpecificitySubtype
	// SpecificityType is a "type/*" match.
	SpecificityType
	// SpecificityExact is an exact "type/subtype" match.
	SpecificityExact
)

// String returns the pattern form of the specificity level.
func (s Specificity) String() string {
	switch s {
	case SpecificityExact:
		return "exact"
	case SpecificityType:
		return "type/*"
	case SpecificitySubtype:
		return "*/subtype"
	case SpecificityAny:
		return "*/*"
	default:
		return "none"
	}
}

// ParseMediaType returns the case-folded "type/subtype" of a Content-Type
// header value, without parameters.
func ParseMediaType(contentType string) (string, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return "", fmt.Errorf("empty media type")
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("invalid media type %q: %w", contentType, err)
	}
	if strings.Count(mt, "/") != 1 || strings.HasPrefix(mt, "/") || strings.HasSuffix(mt, "/") {
		return "", fmt.Errorf("invalid media type %q: expected type/subtype", contentType)
	}
	return cases.Fold().String(mt), nil
}

// MediaTypeTable maps media-type keys (which may use "type/*", "*/subtype"
// or "*/*") to values and answers lookups by specificity:
// exact > type/* > */subtype > */*.
//
// A table is immutable after construction and safe for concurrent lookups.
type MediaTypeTable[T any] struct {
	exact     map[string]T
	byType    map[string]T // "application" for "application/*"
	bySubtype map[string]T // "json" for "*/json"
	anyValue  T
	hasAny    bool
	keys      []string
}

// NewMediaTypeTable builds a table from keyed entries. Keys are normalized
// case-insensitively; two keys that normalize to the same media type are an error.
func NewMediaTypeTable[T any](entries map[string]T) (*MediaTypeTable[T], error) {
	t := &MediaTypeTable[T]{
		exact:     make(map[string]T),
		byType:    make(map[string]T),
		bySubtype: make(map[string]T),
	}
	seen := make(map[string]string, len(entries))

	raw := make([]string, 0, len(entries))
	for k := range entries {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	for _, key := range raw {
		mt, err := ParseMediaType(key)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[mt]; dup {
			return nil, fmt.Errorf("media types %q and %q are the same", prev, key)
		}
		seen[mt] = key
		value := entries[key]

		typ, sub, _ := strings.Cut(mt, "/")
		switch {
		case typ == "*" && sub == "*":
			t.anyValue, t.hasAny = value, true
		case typ == "*":
			t.bySubtype[sub] = value
		case sub == "*":
			t.byType[typ] = value
		default:
			t.exact[mt] = value
		}
		t.keys = append(t.keys, mt)
	}
	return t, nil
}

// Lookup finds the most specific entry for a normalized media type.
func (t *MediaTypeTable[T]) Lookup(mediaType string) (T, Specificity, bool) {
	var zero T
	if t == nil {
		return zero, SpecificityNone, false
	}
	if v, ok := t.exact[mediaType]; ok {
		return v, SpecificityExact, true
	}
	typ, sub, _ := strings.Cut(mediaType, "/")
	if v, ok := t.byType[typ]; ok {
		return v, SpecificityType, true
	}
	if v, ok := t.bySubtype[sub]; ok {
		return v, SpecificitySubtype, true
	}
	if t.hasAny {
		return t.anyValue, SpecificityAny, true
	}
	return zero, SpecificityNone, false
}

// Len returns the number of entries.
func (t *MediaTypeTable[T]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the normalized keys in sorted order.
func (t *MediaTypeTable[T]) Keys() []string {
	if t == nil {
		return nil
	}
	out := append([]string(nil), t.keys...)
	sort.Strings(out)
	return out
}

// Negotiation is the outcome of selecting a decoder for a request body.
type Negotiation[D any] struct {
	// MediaType is the request's normalized media type.
	MediaType string
	// Declared is the operation's media-type entry that matched.
	Declared *MediaType
	// DeclaredSpecificity is how the declared entry matched.
	DeclaredSpecificity Specificity
	// Decoder is the registry entry that matched.
	Decoder D
	// DecoderSpecificity is how the decoder entry matched.
	DecoderSpecificity Specificity
}

// Negotiate selects a body decoder. Both the operation's declared content
// and the decoder registry are searched by specificity. It reports false,
// meaning "do not decode", when the operation declares no body schema for
// the request media type, or when the registry has no entry at any
// specificity. Neither is an error.
func Negotiate[D any](declared *MediaTypeTable[*MediaType], registry *MediaTypeTable[D], contentType string) (Negotiation[D], bool) {
	var n Negotiation[D]
	if declared.Len() == 0 || registry.Len() == 0 {
		return n, false
	}
	mt, err := ParseMediaType(contentType)
	if err != nil {
		return n, false
	}
	n.MediaType = mt

	decl, declSpec, ok := declared.Lookup(mt)
	if !ok || !decl.HasSchema() {
		return n, false
	}
	dec, decSpec, ok := registry.Lookup(mt)
	if !ok {
		return n, false
	}
	n.Declared, n.DeclaredSpecificity = decl, declSpec
	n.Decoder, n.DecoderSpecificity = dec, decSpec
	return n, true
}
