package middlewares

import (
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzw        *gzip.Writer
	compress   bool
	decided    bool
	acceptGzip bool
}

func (w *gzipResponseWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true

	if !w.acceptGzip {
		return
	}
	ct := w.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "text/html") {
		return
	}
	status := w.Status()
	if status == 204 || status < 200 {
		return
	}

	w.Header().Del("Content-Length")
	w.Header().Set("Content-Encoding", "gzip")
	w.gzw = gzip.NewWriter(w.ResponseWriter)
	w.compress = true
}

func (w *gzipResponseWriter) Write(p []byte) (int, error) {
	if !w.decided {
		w.decide()
	}
	if w.compress {
		return w.gzw.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

func (w *gzipResponseWriter) Close() error {
	if w.gzw != nil {
		return w.gzw.Close()
	}
	return nil
}

// GzipResponse compresses JSON and HTML responses for clients that accept it.
func GzipResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		accept := strings.ToLower(c.GetHeader("Accept-Encoding"))
		w := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			acceptGzip:     strings.Contains(accept, "gzip"),
		}
		c.Writer = w

		c.Next()

		if err := w.Close(); err != nil {
			c.Error(err)
		}
	}
}
