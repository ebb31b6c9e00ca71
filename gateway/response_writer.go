package gateway

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// responseBuffer captures a downstream response so it can be validated
// before anything reaches the client.
type responseBuffer struct {
	header    http.Header
	status    int
	body      bytes.Buffer
	committed bool // a body byte was written
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (b *responseBuffer) Header() http.Header {
	return b.header
}

// WriteHeader records the first status, like net/http.
func (b *responseBuffer) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	b.committed = true
	return b.body.Write(p)
}

// StatusCode returns the recorded status, 200 if none was written.
func (b *responseBuffer) StatusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

// Bytes returns the buffered body.
func (b *responseBuffer) Bytes() []byte {
	return b.body.Bytes()
}

// sniffContentType sets Content-Type the way net/http would on first write.
func (b *responseBuffer) sniffContentType() {
	if b.body.Len() == 0 {
		return
	}
	if _, ok := b.header["Content-Type"]; ok {
		return
	}
	b.header.Set("Content-Type", http.DetectContentType(b.body.Bytes()))
}

// flushTo copies the buffered response to w.
func (b *responseBuffer) flushTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}
	w.WriteHeader(b.StatusCode())
	if b.body.Len() == 0 {
		return nil
	}
	if _, err := w.Write(b.body.Bytes()); err != nil {
		return fmt.Errorf("gateway: flush response: %w", err)
	}
	return nil
}

// ginResponseBuffer presents a responseBuffer as the gin.ResponseWriter of
// the downstream handlers. Hijacking and pushing still reach the real writer.
type ginResponseBuffer struct {
	gin.ResponseWriter
	buf *responseBuffer
}

func (w *ginResponseBuffer) Header() http.Header {
	return w.buf.Header()
}

// WriteHeader keeps gin's semantics: the status may change until the body
// is written.
func (w *ginResponseBuffer) WriteHeader(code int) {
	if code > 0 && !w.buf.committed {
		w.buf.status = code
	}
}

func (w *ginResponseBuffer) WriteHeaderNow() {
	if w.buf.status == 0 {
		w.buf.status = http.StatusOK
	}
}

func (w *ginResponseBuffer) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *ginResponseBuffer) WriteString(s string) (int, error) {
	return w.buf.Write([]byte(s))
}

func (w *ginResponseBuffer) Status() int {
	return w.buf.StatusCode()
}

// Size returns -1 until the body is written, like gin.
func (w *ginResponseBuffer) Size() int {
	if !w.buf.committed {
		return -1
	}
	return w.buf.body.Len()
}

func (w *ginResponseBuffer) Written() bool {
	return w.buf.committed || w.buf.status != 0
}

// Flush is a no-op until validation passes.
func (w *ginResponseBuffer) Flush() {}
