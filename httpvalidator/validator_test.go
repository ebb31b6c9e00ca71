package httpvalidator

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasgate/oaserrors"
)

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNew(t *testing.T) {
	t.Run("compiles the document", func(t *testing.T) {
		v, err := New(parseSpec(t, petStoreSpec))
		require.NoError(t, err)
		require.NotNil(t, v.Spec())
		assert.True(t, v.IncludeWarnings, "warnings are included by default")
		assert.False(t, v.StrictMode)
		assert.False(t, v.FailFast)
	})

	t.Run("rejects nil", func(t *testing.T) {
		_, err := New(nil)
		assert.Error(t, err)
	})

	t.Run("returns compile errors", func(t *testing.T) {
		_, err := New(parseSpec(t, "openapi: 3.0.0\ninfo:\n  title: x\n  version: \"1\"\npaths:\n  /a/{b}:\n    get:\n      responses:\n        \"200\":\n          description: ok\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrInvalidDocument))
	})
}

// =============================================================================
// ValidateRequest Tests
// =============================================================================

func TestValidateRequest_Routing(t *testing.T) {
	v := newPetStoreValidator(t)

	t.Run("unknown path", func(t *testing.T) {
		_, err := v.ValidateRequest(httptest.NewRequest(http.MethodGet, "/owners", nil))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrRouteNotFound))
		assert.False(t, errors.Is(err, oaserrors.ErrMethodNotAllowed))
	})

	t.Run("undeclared method", func(t *testing.T) {
		_, err := v.ValidateRequest(httptest.NewRequest(http.MethodPatch, "/pets", nil))
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrMethodNotAllowed))
		assert.Equal(t, http.StatusMethodNotAllowed, oaserrors.HTTPStatus(err))
	})

	t.Run("percent-encoded path value", func(t *testing.T) {
		res, err := v.ValidateRequest(httptest.NewRequest(http.MethodGet, "/pets/4%32", nil))
		require.NoError(t, err)
		assert.True(t, res.Valid, "errors: %v", res.Errors)
		assert.Equal(t, "showPetById", res.Operation.ID)
		assert.Equal(t, int64(42), res.PathParams["petId"])
	})
}

func TestValidateRequest_Query(t *testing.T) {
	v := newPetStoreValidator(t)

	res, err := v.ValidateRequest(httptest.NewRequest(http.MethodGet, "/pets?limit=10&type[color]=red", nil))
	require.NoError(t, err)
	require.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Equal(t, int64(10), res.QueryParams["limit"])
	assert.Equal(t, map[string]any{"color": "red"}, res.QueryParams["type"])
}

func TestValidateRequest_Body(t *testing.T) {
	v := newPetStoreValidator(t)

	t.Run("JSON body is validated and restored", func(t *testing.T) {
		const body = `{"id": 1, "name": "rex"}`
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		res, err := v.ValidateRequest(req)
		require.NoError(t, err)
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.True(t, res.BodyValidated)
		assert.Equal(t, map[string]any{"id": float64(1), "name": "rex"}, res.Body)

		restored, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, body, string(restored), "downstream handlers can read the body")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"id":`))
		req.Header.Set("Content-Type", "application/json")

		_, err := v.ValidateRequest(req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrDecoding))

		var decErr *oaserrors.DecodingError
		require.True(t, errors.As(err, &decErr))
		assert.Equal(t, "application/json", decErr.ContentType)
		assert.NotNil(t, decErr.Unwrap())
	})

	t.Run("form body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader("id=3&name=rex"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		res, err := v.ValidateRequest(req)
		require.NoError(t, err)
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.Equal(t, map[string]any{"id": int64(3), "name": "rex"}, res.Body)
	})

	t.Run("missing required body", func(t *testing.T) {
		res, err := v.ValidateRequest(httptest.NewRequest(http.MethodPost, "/pets", nil))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, LocationBody, res.Errors[0].Location)
	})

	t.Run("body over the size limit", func(t *testing.T) {
		limited := newPetStoreValidator(t)
		limited.MaxBodySize = 8
		req := httptest.NewRequest(http.MethodPost, "/pets", strings.NewReader(`{"id": 1, "name": "rex"}`))
		req.Header.Set("Content-Type", "application/json")

		_, err := limited.ValidateRequest(req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oaserrors.ErrResourceLimit))
		assert.Equal(t, http.StatusRequestEntityTooLarge, oaserrors.HTTPStatus(err))
	})
}

// =============================================================================
// ValidateResponseData Tests
// =============================================================================

func TestValidateResponseData(t *testing.T) {
	v := newPetStoreValidator(t)
	req := httptest.NewRequest(http.MethodGet, "/pets/1", nil)
	headers := http.Header{"Content-Type": {"application/json"}}

	t.Run("valid body", func(t *testing.T) {
		res, err := v.ValidateResponseData(req, 200, headers, []byte(`{"id": 1, "name": "rex"}`))
		require.NoError(t, err)
		assert.True(t, res.Valid, "errors: %v", res.Errors)
		assert.Equal(t, "200", res.MatchedResponse)
	})

	t.Run("invalid body", func(t *testing.T) {
		res, err := v.ValidateResponseData(req, 200, headers, []byte(`{"id": "one", "name": "rex"}`))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, ValidationError{Field: "id", Location: LocationResponse, Reason: "expected integer, got string"}, res.Errors[0])
	})

	t.Run("undecodable body", func(t *testing.T) {
		res, err := v.ValidateResponseData(req, 200, headers, []byte(`{`))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0].Reason, "body ")
	})

	t.Run("unknown route", func(t *testing.T) {
		_, err := v.ValidateResponseData(httptest.NewRequest(http.MethodGet, "/nope", nil), 200, headers, nil)
		assert.True(t, errors.Is(err, oaserrors.ErrRouteNotFound))
	})
}

// =============================================================================
// Body Helper Tests
// =============================================================================

func TestReadBody(t *testing.T) {
	data, err := ReadBody(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = ReadBody(strings.NewReader("123456"), 5)
	var limitErr *oaserrors.ResourceLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "body_size", limitErr.ResourceType)
	assert.Equal(t, int64(5), limitErr.Limit)

	data, err = ReadBody(strings.NewReader("123456"), -1)
	require.NoError(t, err)
	assert.Len(t, data, 6)
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		mediaType string
		data      string
		want      any
		decoded   bool
	}{
		{"application/json", `{"a": [1, true]}`, map[string]any{"a": []any{float64(1), true}}, true},
		{"application/problem+json", `"x"`, "x", true},
		{"text/plain", "hello", "hello", true},
		{"application/octet-stream", "raw", "raw", false},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			got, decoded, err := DecodeBody(tt.mediaType, []byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.decoded, decoded)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("form", func(t *testing.T) {
		got, _, err := DecodeBody("application/x-www-form-urlencoded", []byte("a=1&a=2"))
		require.NoError(t, err)
		require.IsType(t, url.Values{}, got)
		assert.Equal(t, []string{"1", "2"}, got.(url.Values)["a"])
	})
}
