package httpvalidator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// NewPathMatcher Tests
// =============================================================================

func TestNewPathMatcher(t *testing.T) {
	t.Run("creates matcher for simple path", func(t *testing.T) {
		pm, err := NewPathMatcher("/pets")
		require.NoError(t, err)
		assert.Equal(t, "/pets", pm.Template())
		assert.Empty(t, pm.ParamNames())
	})

	t.Run("creates matcher for path with single parameter", func(t *testing.T) {
		pm, err := NewPathMatcher("/pets/{petId}")
		require.NoError(t, err)
		assert.Equal(t, "/pets/{petId}", pm.Template())
		assert.Equal(t, []string{"petId"}, pm.ParamNames())
	})

	t.Run("creates matcher for path with multiple parameters", func(t *testing.T) {
		pm, err := NewPathMatcher("/users/{userId}/posts/{postId}")
		require.NoError(t, err)
		assert.Equal(t, []string{"userId", "postId"}, pm.ParamNames())
	})

	t.Run("creates matcher for mixed segment", func(t *testing.T) {
		pm, err := NewPathMatcher("/files/{name}.{ext}")
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "ext"}, pm.ParamNames())
	})

	tests := []struct {
		name     string
		template string
		contains string
	}{
		{"empty template", "", "cannot be empty"},
		{"missing leading slash", "pets", "must start with /"},
		{"unclosed brace", "/pets/{petId", "unclosed"},
		{"empty parameter name", "/pets/{}", "empty path parameter"},
		{"duplicate parameter names", "/users/{id}/posts/{id}", "duplicate"},
		{"adjacent parameters", "/files/{a}{b}", "adjacent"},
		{"unopened brace", "/pets/petId}", "unopened"},
		{"nested brace", "/pets/{a{b}}", "malformed"},
	}
	for _, tt := range tests {
		t.Run("errors on "+tt.name, func(t *testing.T) {
			_, err := NewPathMatcher(tt.template)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	t.Run("escapes regex special characters", func(t *testing.T) {
		pm, err := NewPathMatcher("/api.v1/{id}.json")
		require.NoError(t, err)

		matched, params := pm.Match("/api.v1/7.json")
		assert.True(t, matched)
		assert.Equal(t, "7", params["id"])

		// The dot is literal, not "any character"
		matched, _ = pm.Match("/apiXv1/7.json")
		assert.False(t, matched)
		matched, _ = pm.Match("/api.v1/7Xjson")
		assert.False(t, matched)
	})
}

// =============================================================================
// PathMatcher.Match Tests
// =============================================================================

func TestPathMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		template string
		path     string
		matched  bool
		params   map[string]string
	}{
		{"matches exact path", "/pets", "/pets", true, map[string]string{}},
		{"extracts single parameter", "/pets/{petId}", "/pets/123", true, map[string]string{"petId": "123"}},
		{"extracts multiple parameters", "/users/{userId}/posts/{postId}", "/users/42/posts/99", true,
			map[string]string{"userId": "42", "postId": "99"}},
		{"does not match different path", "/pets", "/users", false, nil},
		{"does not match path with extra segments", "/pets", "/pets/123", false, nil},
		{"does not match trailing slash", "/pets", "/pets/", false, nil},
		{"does not match shorter path", "/pets/{petId}", "/pets", false, nil},
		{"variable does not match empty segment", "/pets/{petId}", "/pets/", false, nil},
		{"parameters cannot contain slashes", "/files/{path}", "/files/dir/file.txt", false, nil},
		{"percent-decodes values", "/search/{query}", "/search/hello%20world", true,
			map[string]string{"query": "hello world"}},
		{"decoded slash stays in one segment", "/files/{path}", "/files/a%2Fb", true,
			map[string]string{"path": "a/b"}},
		{"mixed segment", "/reports/{year}-{month}.csv", "/reports/2024-05.csv", true,
			map[string]string{"year": "2024", "month": "05"}},
		{"mixed segment mismatch", "/reports/{year}-{month}.csv", "/reports/2024.csv", false, nil},
		{"relative path never matches", "/pets", "pets", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm, err := NewPathMatcher(tt.template)
			require.NoError(t, err)

			matched, params := pm.Match(tt.path)
			assert.Equal(t, tt.matched, matched)
			if tt.matched {
				assert.Equal(t, tt.params, params)
			} else {
				assert.Nil(t, params)
			}
		})
	}
}

// =============================================================================
// PathMatcherSet Tests
// =============================================================================

func TestNewPathMatcherSet(t *testing.T) {
	t.Run("creates set from templates", func(t *testing.T) {
		pms, err := NewPathMatcherSet([]string{"/pets", "/pets/{petId}"})
		require.NoError(t, err)

		assert.Equal(t, []string{"/pets", "/pets/{petId}"}, pms.Templates())
	})

	t.Run("errors on invalid template", func(t *testing.T) {
		_, err := NewPathMatcherSet([]string{"/pets", "/pets/{unclosed"})
		assert.Error(t, err)
	})

	t.Run("handles empty set", func(t *testing.T) {
		pms, err := NewPathMatcherSet([]string{})
		require.NoError(t, err)
		assert.Empty(t, pms.Templates())
	})

	t.Run("rejects templates that differ only in parameter names", func(t *testing.T) {
		_, err := NewPathMatcherSet([]string{"/pets/{id}", "/pets/{name}"})
		require.Error(t, err)

		var ambiguous *AmbiguousPathsError
		require.True(t, errors.As(err, &ambiguous))
		assert.Equal(t, []string{"/pets/{id}", "/pets/{name}"}, ambiguous.Templates)
		assert.Contains(t, err.Error(), "ambiguous path templates")
	})

	t.Run("rejects identical mixed shapes", func(t *testing.T) {
		_, err := NewPathMatcherSet([]string{"/files/{a}.json", "/files/{b}.json"})
		assert.Error(t, err)
	})

	t.Run("rejects overlapping templates with equal precedence", func(t *testing.T) {
		tests := [][]string{
			{"/{a}/b", "/a/{b}"},
			{"/{kind}/mine", "/pets/{id}"},
			{"/reports/{name}.csv", "/reports/{year}-{month}.csv"},
			{"/files/{name}.json", "/files/{name}.{ext}"},
		}
		for _, templates := range tests {
			t.Run(strings.Join(templates, " "), func(t *testing.T) {
				_, err := NewPathMatcherSet(templates)
				var ambiguous *AmbiguousPathsError
				require.True(t, errors.As(err, &ambiguous), "err = %v", err)
				assert.ElementsMatch(t, templates, ambiguous.Templates)
			})
		}
	})

	t.Run("accepts templates that cannot match the same path", func(t *testing.T) {
		tests := [][]string{
			{"/{kind}/mine", "/pets/{id}/"},
			{"/pets/{id}", "/pets/mine"},
			{"/files/{a}.json", "/files/{b}.xml"},
			{"/files/v{n}", "/files/w{n}"},
			{"/{kind}/mine", "/pets/ours"},
			{"/{kind}/", "/pets/{id}"},
		}
		for _, templates := range tests {
			t.Run(strings.Join(templates, " "), func(t *testing.T) {
				_, err := NewPathMatcherSet(templates)
				assert.NoError(t, err)
			})
		}
	})
}

func TestPathMatcherSet_Match(t *testing.T) {
	t.Run("literal template beats variable template", func(t *testing.T) {
		pms, err := NewPathMatcherSet([]string{"/pets/{id}", "/pets/mine"})
		require.NoError(t, err)

		template, params, found := pms.Match("/pets/mine")
		assert.True(t, found)
		assert.Equal(t, "/pets/mine", template)
		assert.Empty(t, params)

		template, params, found = pms.Match("/pets/42")
		assert.True(t, found)
		assert.Equal(t, "/pets/{id}", template)
		assert.Equal(t, "42", params["id"])
	})

	t.Run("returns not found for unknown path", func(t *testing.T) {
		pms, _ := NewPathMatcherSet([]string{"/pets"})

		template, params, found := pms.Match("/unknown")
		assert.False(t, found)
		assert.Empty(t, template)
		assert.Nil(t, params)
	})

	t.Run("matches only templates with the same segment count", func(t *testing.T) {
		pms, _ := NewPathMatcherSet([]string{
			"/users/{id}",
			"/users/{id}/profile",
		})

		template, _, found := pms.Match("/users/123/profile")
		assert.True(t, found)
		assert.Equal(t, "/users/{id}/profile", template)
	})

	t.Run("literal beats mixed beats variable", func(t *testing.T) {
		pms, err := NewPathMatcherSet([]string{
			"/files/{name}",
			"/files/{name}.json",
			"/files/index.json",
		})
		require.NoError(t, err)

		template, _, _ := pms.Match("/files/index.json")
		assert.Equal(t, "/files/index.json", template)

		template, params, _ := pms.Match("/files/report.json")
		assert.Equal(t, "/files/{name}.json", template)
		assert.Equal(t, "report", params["name"])

		template, _, _ = pms.Match("/files/report.xml")
		assert.Equal(t, "/files/{name}", template)
	})

	t.Run("fewer variables win when literal counts tie", func(t *testing.T) {
		pms, err := NewPathMatcherSet([]string{"/{kind}/{id}.json", "/{kind}/{id}"})
		require.NoError(t, err)

		template, _, found := pms.Match("/pets/7.json")
		assert.True(t, found)
		assert.Equal(t, "/{kind}/{id}.json", template)
	})
}

func TestPathMatcherSet_Candidates(t *testing.T) {
	pms, err := NewPathMatcherSet([]string{"/pets/{id}", "/pets/mine", "/{kind}/{id}"})
	require.NoError(t, err)

	matches := pms.Candidates("/pets/mine")
	require.Len(t, matches, 3)
	assert.Equal(t, "/pets/mine", matches[0].Template)
	assert.Equal(t, "/pets/{id}", matches[1].Template)
	assert.Equal(t, "mine", matches[1].Params["id"])
	assert.Equal(t, "/{kind}/{id}", matches[2].Template)

	assert.Empty(t, pms.Candidates("/pets"))

	var nilSet *PathMatcherSet
	assert.Nil(t, nilSet.Candidates("/pets"))
}

// =============================================================================
// Specificity Tests
// =============================================================================

func TestPathMatcherSet_Specificity(t *testing.T) {
	t.Run("prefers exact over parameterized", func(t *testing.T) {
		pms, _ := NewPathMatcherSet([]string{
			"/{a}/{b}",
			"/users/{id}",
			"/users/admin",
		})

		template, _, found := pms.Match("/users/admin")
		assert.True(t, found)
		assert.Equal(t, "/users/admin", template, "exact path should match over parameterized")
	})

	t.Run("prefers fewer parameters", func(t *testing.T) {
		pms, _ := NewPathMatcherSet([]string{
			"/{a}/{b}/{c}",
			"/users/{id}/{action}",
			"/users/me/profile",
		})

		template, _, found := pms.Match("/users/me/profile")
		assert.True(t, found)
		assert.Equal(t, "/users/me/profile", template)

		template, _, _ = pms.Match("/users/7/delete")
		assert.Equal(t, "/users/{id}/{action}", template)

		template, _, _ = pms.Match("/orgs/7/delete")
		assert.Equal(t, "/{a}/{b}/{c}", template)
	})

	t.Run("templates are listed in precedence order", func(t *testing.T) {
		pms, _ := NewPathMatcherSet([]string{"/pets/{id}", "/pets", "/pets/mine"})
		assert.Equal(t, []string{"/pets", "/pets/mine", "/pets/{id}"}, pms.Templates())
		assert.NotNil(t, pms.Matcher("/pets/mine"))
		assert.Nil(t, pms.Matcher("/nope"))
	})
}
