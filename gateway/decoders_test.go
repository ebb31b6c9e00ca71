package gateway

import (
	"bytes"
	"mime/multipart"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBodyDecoders(t *testing.T) {
	decoders := DefaultBodyDecoders()
	assert.Len(t, decoders, 4)
	for _, key := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data", "text/*"} {
		assert.Contains(t, decoders, key)
	}
}

func TestJSONDecoder(t *testing.T) {
	got, err := JSONDecoder("application/json", []byte(`{"id": 1, "tags": ["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1), "tags": []any{"a"}}, got)

	_, err = JSONDecoder("application/json", []byte(`{"id":`))
	assert.Error(t, err)
}

func TestFormDecoder(t *testing.T) {
	got, err := FormDecoder("application/x-www-form-urlencoded", []byte("id=1&tag=a&tag=b"))
	require.NoError(t, err)
	assert.Equal(t, url.Values{"id": {"1"}, "tag": {"a", "b"}}, got)

	_, err = FormDecoder("application/x-www-form-urlencoded", []byte("id=%zz"))
	assert.Error(t, err)
}

func TestMultipartDecoder(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "rex"))
	part, err := mw.CreateFormFile("photo", "rex.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	got, err := MultipartDecoder(mw.FormDataContentType(), buf.Bytes())
	require.NoError(t, err)
	form, ok := got.(*multipart.Form)
	require.True(t, ok)
	t.Cleanup(func() { _ = form.RemoveAll() })

	assert.Equal(t, []string{"rex"}, form.Value["name"])
	require.Len(t, form.File["photo"], 1)
	assert.Equal(t, "rex.png", form.File["photo"][0].Filename)

	t.Run("missing boundary", func(t *testing.T) {
		_, err := MultipartDecoder("multipart/form-data", buf.Bytes())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no boundary")
	})
}

func TestTextDecoder(t *testing.T) {
	got, err := TextDecoder("text/plain; charset=utf-8", []byte("rex"))
	require.NoError(t, err)
	assert.Equal(t, "rex", got)
}
