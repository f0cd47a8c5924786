package middlewares

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkurnosov/webpulse/internal/misc"
)

type bodyBufferWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bodyBufferWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *bodyBufferWriter) WriteHeader(code int) {
	w.status = code
}

// HashSHA256 signs response bodies with a keyed SHA-256 digest in the
// HashSHA256 header so pollers can verify payload integrity. An empty key
// disables the middleware.
func HashSHA256(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		bw := &bodyBufferWriter{ResponseWriter: c.Writer}
		c.Writer = bw

		c.Next()

		if bw.body.Len() > 0 {
			c.Header("HashSHA256", misc.SumSHA256(bw.body.Bytes(), key))
		}

		status := bw.status
		if status == 0 {
			status = http.StatusOK
		}

		c.Writer = bw.ResponseWriter
		c.Writer.WriteHeader(status)
		if _, err := c.Writer.Write(bw.body.Bytes()); err != nil {
			c.Error(err)
		}
	}
}
