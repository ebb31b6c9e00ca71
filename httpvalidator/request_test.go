package httpvalidator

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/oasgate/oaserrors"
)

// petOp returns the named pet store operation.
func petOp(t *testing.T, v *Validator, id string) *Operation {
	t.Helper()
	op := v.Spec().OperationByID(id)
	require.NotNil(t, op, "operation %s", id)
	return op
}

func mustQuery(t *testing.T, raw string) url.Values {
	t.Helper()
	q, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return q
}

// =============================================================================
// Query Parameter Tests
// =============================================================================

func TestValidateRequestFor_QueryCoercion(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "listPets")

	res := v.ValidateRequestFor(op, &RequestInput{
		Query: mustQuery(t, "limit=10&type[color]=red&fields=name,age&page=2&tag=a&tag=b"),
	})
	require.True(t, res.Valid, "errors: %v", res.Errors)
	assert.Same(t, op, res.Operation)

	assert.Equal(t, int64(10), res.QueryParams["limit"])
	assert.Equal(t, map[string]any{"color": "red"}, res.QueryParams["type"])
	assert.Equal(t, []any{"name", "age"}, res.QueryParams["fields"])

	// Undeclared parameters pass through as raw strings
	assert.Equal(t, "2", res.QueryParams["page"])
	assert.Equal(t, []string{"a", "b"}, res.QueryParams["tag"])
}

func TestValidateRequestFor_QueryViolations(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "listPets")

	tests := []struct {
		name   string
		query  string
		field  string
		reason string
	}{
		{"maximum", "limit=500", "limit", "must be <= 100"},
		{"coercion failure", "limit=abc", "limit", "is not a valid integer"},
		{"deepObject enum", "type[color]=purple", "type.color", "must be one of [red, blue, green]"},
		{"empty typed value", "limit=", "limit", "empty value is not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateRequestFor(op, &RequestInput{Query: mustQuery(t, tt.query)})
			assert.False(t, res.Valid)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, ValidationError{Field: tt.field, Location: LocationQuery, Reason: tt.reason}, res.Errors[0])
			assert.Nil(t, res.QueryParams, "failed results carry no coerced values")
		})
	}
}

func TestValidateRequestFor_ClosedQuery(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "search")

	t.Run("declared parameter", func(t *testing.T) {
		res := v.ValidateRequestFor(op, &RequestInput{Query: mustQuery(t, "q=dog")})
		assert.True(t, res.Valid)
		assert.Equal(t, "dog", res.QueryParams["q"])
	})

	t.Run("undeclared parameter is rejected", func(t *testing.T) {
		res := v.ValidateRequestFor(op, &RequestInput{Query: mustQuery(t, "q=dog&page=2")})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "page", res.Errors[0].Field)
		assert.Equal(t, "is not a declared query parameter", res.Errors[0].Reason)
	})

	t.Run("required parameter", func(t *testing.T) {
		res := v.ValidateRequestFor(op, &RequestInput{Query: url.Values{}})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Field: "q", Location: LocationQuery, Reason: "is required"}, res.Errors[0])
	})
}

func TestValidateRequestFor_QueryLimit(t *testing.T) {
	v := newPetStoreValidator(t)
	v.Query = QueryOptions{MaxParams: 2}
	op := petOp(t, v, "listPets")

	res := v.ValidateRequestFor(op, &RequestInput{Query: mustQuery(t, "a=1&b=2&c=3")})
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "too many query parameters (limit 2)", res.Errors[0].Reason)

	v.Query = QueryOptions{MaxParams: -1}
	res = v.ValidateRequestFor(op, &RequestInput{Query: mustQuery(t, "a=1&b=2&c=3")})
	assert.True(t, res.Valid)
}

// =============================================================================
// Path Parameter Tests
// =============================================================================

func TestValidateRequestFor_PathParams(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "showPetById")

	t.Run("coerces to integer", func(t *testing.T) {
		res := v.ValidateRequestFor(op, &RequestInput{PathParams: map[string]string{"petId": "42"}})
		require.True(t, res.Valid)
		assert.Equal(t, int64(42), res.PathParams["petId"])
		assert.Equal(t, "42", res.RawPathParams["petId"])
	})

	t.Run("coercion failure keeps raw value", func(t *testing.T) {
		res := v.ValidateRequestFor(op, &RequestInput{PathParams: map[string]string{"petId": "abc"}})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Field: "petId", Location: LocationPath, Reason: "is not a valid integer"}, res.Errors[0])
		assert.Equal(t, "abc", res.RawPathParams["petId"])
		assert.Nil(t, res.PathParams)
	})

	t.Run("missing value", func(t *testing.T) {
		res := v.ValidateRequestFor(op, &RequestInput{})
		assert.False(t, res.Valid)
		assert.Equal(t, "is required", res.Errors[0].Reason)
	})
}

// =============================================================================
// Header and Cookie Tests
// =============================================================================

func TestValidateRequestFor_HeaderFormatWarning(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "listPets")
	in := &RequestInput{Header: http.Header{"X-Request-Id": {"not-a-uuid"}}}

	res := v.ValidateRequestFor(op, in)
	assert.True(t, res.Valid, "format mismatches are warnings")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, ValidationError{Field: "X-Request-ID", Location: LocationHeader, Reason: "value is not a valid UUID"},
		res.Warnings[0], "header values are not echoed")
	assert.Equal(t, "not-a-uuid", res.HeaderParams["X-Request-ID"])

	v.IncludeWarnings = false
	res = v.ValidateRequestFor(op, in)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
}

func TestValidateRequestFor_Cookies(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "listMyPets")

	tests := []struct {
		name    string
		cookies []*http.Cookie
		valid   bool
		reason  string
	}{
		{"valid session", []*http.Cookie{{Name: "session", Value: "abcdefgh"}}, true, ""},
		{"missing session", nil, false, "is required"},
		{"short session", []*http.Cookie{{Name: "session", Value: "abc"}}, false, "length must be >= 8"},
		{"first duplicate wins", []*http.Cookie{{Name: "session", Value: "abcdefgh"}, {Name: "session", Value: "x"}}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateRequestFor(op, &RequestInput{Cookies: tt.cookies})
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Equal(t, "abcdefgh", res.CookieParams["session"])
				return
			}
			require.Len(t, res.Errors, 1)
			assert.Equal(t, ValidationError{Field: "session", Location: LocationCookie, Reason: tt.reason}, res.Errors[0])
		})
	}
}

// =============================================================================
// Body Tests
// =============================================================================

func TestValidateRequestFor_Body(t *testing.T) {
	v := newPetStoreValidator(t)
	create := petOp(t, v, "createPet")

	t.Run("valid JSON body", func(t *testing.T) {
		body := map[string]any{"id": float64(1), "name": "rex"}
		res := v.ValidateRequestFor(create, &RequestInput{HasBody: true, MediaType: "application/json", Body: body})
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.True(t, res.BodyValidated)
		assert.Equal(t, body, res.Body)
	})

	t.Run("missing property is named", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{
			HasBody: true, MediaType: "application/json", Body: map[string]any{"id": float64(1)},
		})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Field: "name", Location: LocationBody, Reason: "is required"}, res.Errors[0])
		assert.Nil(t, res.Body)
	})

	t.Run("required body is missing", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Location: LocationBody, Reason: "is required"}, res.Errors[0])
	})

	t.Run("form body is coerced", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{
			HasBody:   true,
			MediaType: "application/x-www-form-urlencoded",
			Body:      url.Values{"id": {"7"}, "name": {"rex"}},
		})
		require.True(t, res.Valid, "errors: %v", res.Errors)
		assert.Equal(t, map[string]any{"id": int64(7), "name": "rex"}, res.Body)
	})

	t.Run("form coercion failure", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{
			HasBody:   true,
			MediaType: "application/x-www-form-urlencoded",
			Body:      url.Values{"id": {"seven"}, "name": {"rex"}},
		})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Field: "id", Location: LocationBody, Reason: "is not a valid integer"}, res.Errors[0])
	})

	t.Run("text body", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{HasBody: true, MediaType: "text/plain", Body: []byte("rex")})
		require.True(t, res.Valid)
		assert.Equal(t, "rex", res.Body)
	})

	t.Run("undeclared content type is skipped", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{HasBody: true, MediaType: "application/xml", Body: "<pet/>"})
		assert.True(t, res.Valid)
		assert.False(t, res.BodyValidated)
	})

	t.Run("media type without schema is skipped", func(t *testing.T) {
		res := v.ValidateRequestFor(petOp(t, v, "replacePet"), &RequestInput{
			PathParams: map[string]string{"petId": "1"},
			HasBody:    true, MediaType: "application/json", Body: "anything",
		})
		assert.True(t, res.Valid)
		assert.False(t, res.BodyValidated)
	})

	t.Run("undecoded body is not schema checked", func(t *testing.T) {
		res := v.ValidateRequestFor(create, &RequestInput{
			HasBody: true, MediaType: "application/json", Body: []byte("<pet/>"), Undecoded: true,
		})
		assert.True(t, res.Valid)
		assert.False(t, res.BodyValidated)
	})

	t.Run("optional body may be absent", func(t *testing.T) {
		res := v.ValidateRequestFor(petOp(t, v, "updatePet"), &RequestInput{PathParams: map[string]string{"petId": "1"}})
		assert.True(t, res.Valid)
	})
}

// =============================================================================
// Strict Mode and FailFast Tests
// =============================================================================

func TestValidateRequestFor_StrictMode(t *testing.T) {
	v := newPetStoreValidator(t)
	v.StrictMode = true

	t.Run("unknown header", func(t *testing.T) {
		res := v.ValidateRequestFor(petOp(t, v, "listPets"), &RequestInput{
			Header: http.Header{
				"Accept":       {"application/json"},
				"X-Request-Id": {"6f1c7e2a-3b8d-4c5e-9f0a-1b2c3d4e5f60"},
				"X-Custom":     {"1"},
			},
		})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Field: "X-Custom", Location: LocationHeader, Reason: "is not a declared header"}, res.Errors[0])
	})

	t.Run("unknown query parameter", func(t *testing.T) {
		res := v.ValidateRequestFor(petOp(t, v, "listPets"), &RequestInput{Query: mustQuery(t, "page=2")})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "page", res.Errors[0].Field)
	})

	t.Run("unknown cookie", func(t *testing.T) {
		res := v.ValidateRequestFor(petOp(t, v, "listMyPets"), &RequestInput{
			Cookies: []*http.Cookie{{Name: "session", Value: "abcdefgh"}, {Name: "theme", Value: "dark"}},
		})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, ValidationError{Field: "theme", Location: LocationCookie, Reason: "is not a declared cookie"}, res.Errors[0])
	})

	t.Run("undeclared body content type", func(t *testing.T) {
		res := v.ValidateRequestFor(petOp(t, v, "createPet"), &RequestInput{
			HasBody: true, MediaType: "application/xml", Body: "<pet/>",
		})
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0].Reason, `content type "application/xml" is not declared`)
	})
}

func TestValidateRequestFor_FailFast(t *testing.T) {
	v := newPetStoreValidator(t)
	v.StrictMode = true
	op := petOp(t, v, "listMyPets")
	in := &RequestInput{Header: http.Header{"X-Unknown": {"1"}}}

	res := v.ValidateRequestFor(op, in)
	require.Len(t, res.Errors, 2, "header and cookie violations are both collected")
	assert.Equal(t, LocationHeader, res.Errors[0].Location)
	assert.Equal(t, LocationCookie, res.Errors[1].Location)

	v.FailFast = true
	res = v.ValidateRequestFor(op, in)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, LocationHeader, res.Errors[0].Location)
}

func TestRequestValidationResult_Err(t *testing.T) {
	v := newPetStoreValidator(t)
	op := petOp(t, v, "search")

	res := v.ValidateRequestFor(op, &RequestInput{Query: mustQuery(t, "q=dog")})
	assert.NoError(t, res.Err())

	res = v.ValidateRequestFor(op, &RequestInput{})
	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, oaserrors.ErrRequestValidation))

	var reqErr *oaserrors.RequestValidationError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "search", reqErr.OperationID)
	assert.Equal(t, res.Errors, reqErr.Violations)
	assert.Equal(t, "request validation failed: query.q: is required", err.Error())
}
