package httpvalidator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"application/json", "application/json", false},
		{"application/json; charset=utf-8", "application/json", false},
		{"Application/JSON", "application/json", false},
		{"  text/plain ", "text/plain", false},
		{"*/*", "*/*", false},
		{"application/*", "application/*", false},
		{"", "", true},
		{"json", "", true},
		{"application/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMediaType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaTypeTable_Lookup(t *testing.T) {
	table, err := NewMediaTypeTable(map[string]string{
		"application/json": "exact",
		"application/*":    "type",
		"*/xml":            "subtype",
		"*/*":              "any",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, []string{"*/*", "*/xml", "application/*", "application/json"}, table.Keys())

	tests := []struct {
		mediaType   string
		want        string
		specificity Specificity
	}{
		{"application/json", "exact", SpecificityExact},
		{"application/x-yaml", "type", SpecificityType},
		{"application/xml", "type", SpecificityType},
		{"text/xml", "subtype", SpecificitySubtype},
		{"image/png", "any", SpecificityAny},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			got, spec, ok := table.Lookup(tt.mediaType)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.specificity, spec)
		})
	}

	t.Run("no wildcard means no match", func(t *testing.T) {
		small, err := NewMediaTypeTable(map[string]int{"application/json": 1})
		require.NoError(t, err)
		_, spec, ok := small.Lookup("text/plain")
		assert.False(t, ok)
		assert.Equal(t, SpecificityNone, spec)
	})

	t.Run("nil table", func(t *testing.T) {
		var nilTable *MediaTypeTable[int]
		_, _, ok := nilTable.Lookup("application/json")
		assert.False(t, ok)
		assert.Zero(t, nilTable.Len())
		assert.Nil(t, nilTable.Keys())
	})
}

func TestNewMediaTypeTable_Errors(t *testing.T) {
	t.Run("keys that differ only in case collide", func(t *testing.T) {
		_, err := NewMediaTypeTable(map[string]int{"application/json": 1, "Application/JSON": 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "are the same")
	})

	t.Run("malformed key", func(t *testing.T) {
		_, err := NewMediaTypeTable(map[string]int{"json": 1})
		assert.Error(t, err)
	})
}

func TestSpecificity_String(t *testing.T) {
	assert.Equal(t, "exact", SpecificityExact.String())
	assert.Equal(t, "type/*", SpecificityType.String())
	assert.Equal(t, "*/subtype", SpecificitySubtype.String())
	assert.Equal(t, "*/*", SpecificityAny.String())
	assert.Equal(t, "none", SpecificityNone.String())
}

// =============================================================================
// Negotiate Tests
// =============================================================================

func declaredTable(t *testing.T, entries map[string]bool) *MediaTypeTable[*MediaType] {
	t.Helper()
	m := make(map[string]*MediaType, len(entries))
	for key, hasSchema := range entries {
		mt := &MediaType{Name: key}
		if hasSchema {
			mt.schema = &compiledSchema{}
		}
		m[key] = mt
	}
	table, err := NewMediaTypeTable(m)
	require.NoError(t, err)
	return table
}

func TestNegotiate(t *testing.T) {
	registry, err := NewMediaTypeTable(map[string]string{
		"application/json": "json",
		"application/*":    "application",
	})
	require.NoError(t, err)

	t.Run("exact handler beats wildcard handler", func(t *testing.T) {
		declared := declaredTable(t, map[string]bool{"application/json": true})
		n, ok := Negotiate(declared, registry, "application/json; charset=utf-8")
		require.True(t, ok)
		assert.Equal(t, "json", n.Decoder)
		assert.Equal(t, SpecificityExact, n.DecoderSpecificity)
		assert.Equal(t, "application/json", n.MediaType)
		assert.Equal(t, "application/json", n.Declared.Name)
	})

	t.Run("wildcard handler serves other subtypes", func(t *testing.T) {
		declared := declaredTable(t, map[string]bool{"application/*": true})
		n, ok := Negotiate(declared, registry, "application/x-yaml")
		require.True(t, ok)
		assert.Equal(t, "application", n.Decoder)
		assert.Equal(t, SpecificityType, n.DecoderSpecificity)
		assert.Equal(t, SpecificityType, n.DeclaredSpecificity)
	})

	t.Run("undeclared content type selects nothing", func(t *testing.T) {
		declared := declaredTable(t, map[string]bool{"application/json": true})
		_, ok := Negotiate(declared, registry, "application/xml")
		assert.False(t, ok)
	})

	t.Run("declared without schema selects nothing", func(t *testing.T) {
		declared := declaredTable(t, map[string]bool{"application/json": false})
		_, ok := Negotiate(declared, registry, "application/json")
		assert.False(t, ok)
	})

	t.Run("no registry entry selects nothing", func(t *testing.T) {
		declared := declaredTable(t, map[string]bool{"text/plain": true})
		_, ok := Negotiate(declared, registry, "text/plain")
		assert.False(t, ok)
	})

	t.Run("no declared body selects nothing", func(t *testing.T) {
		_, ok := Negotiate(nil, registry, "application/json")
		assert.False(t, ok)
	})

	t.Run("malformed content type selects nothing", func(t *testing.T) {
		declared := declaredTable(t, map[string]bool{"*/*": true})
		_, ok := Negotiate(declared, registry, "not a media type")
		assert.False(t, ok)
	})
}
