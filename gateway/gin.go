package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin adapts g to a gin middleware. Errors re-raised by the error handler
// are recorded with c.Error and the chain is aborted; so is every request
// the gateway answered itself.
func Gin(g *Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			if buf, ok := w.(*responseBuffer); ok {
				orig := c.Writer
				c.Writer = &ginResponseBuffer{ResponseWriter: orig, buf: buf}
				defer func() { c.Writer = orig }()
			}
			c.Next()
		})

		if err := g.Handle(c.Writer, c.Request, next); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !called {
			c.Abort()
		}
	}
}
