package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBuffer(t *testing.T) {
	t.Run("defaults to 200", func(t *testing.T) {
		buf := newResponseBuffer()
		_, err := buf.Write([]byte("ok"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, buf.StatusCode())
		assert.Equal(t, "ok", string(buf.Bytes()))
	})

	t.Run("first status wins", func(t *testing.T) {
		buf := newResponseBuffer()
		buf.WriteHeader(http.StatusCreated)
		buf.WriteHeader(http.StatusTeapot)
		assert.Equal(t, http.StatusCreated, buf.StatusCode())
	})

	t.Run("sniffs a missing content type", func(t *testing.T) {
		buf := newResponseBuffer()
		_, _ = buf.Write([]byte("plain words"))
		buf.sniffContentType()
		assert.Equal(t, "text/plain; charset=utf-8", buf.Header().Get("Content-Type"))

		set := newResponseBuffer()
		set.Header().Set("Content-Type", "application/json")
		_, _ = set.Write([]byte("{}"))
		set.sniffContentType()
		assert.Equal(t, "application/json", set.Header().Get("Content-Type"))
	})

	t.Run("flushes status, headers and body", func(t *testing.T) {
		buf := newResponseBuffer()
		buf.Header().Set("X-Total-Count", "3")
		buf.WriteHeader(http.StatusAccepted)
		_, _ = buf.Write([]byte("queued"))

		rec := httptest.NewRecorder()
		require.NoError(t, buf.flushTo(rec))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("X-Total-Count"))
		assert.Equal(t, "queued", rec.Body.String())
	})
}

func TestGinResponseBuffer(t *testing.T) {
	buf := newResponseBuffer()
	w := &ginResponseBuffer{buf: buf}

	assert.False(t, w.Written())
	assert.Equal(t, -1, w.Size())

	w.WriteHeader(http.StatusCreated)
	w.WriteHeader(http.StatusAccepted)
	assert.Equal(t, http.StatusAccepted, w.Status(), "status may change until the body is written")
	assert.True(t, w.Written())

	n, err := w.WriteString("done")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, w.Size())

	w.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusAccepted, w.Status())

	w.Header().Set("X-Id", "1")
	assert.Equal(t, "1", buf.Header().Get("X-Id"))
}
