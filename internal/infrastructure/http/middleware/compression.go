package middleware

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type brotliWriter struct {
	gin.ResponseWriter
	writer *brotli.Writer
}

func (w *brotliWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	w.Header().Del("Content-Length")
	return w.writer.Write(data)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Compression brotli-encodes responses for clients that accept br.
// Websocket upgrades and HEAD requests pass through untouched.
func (m *Middleware) Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.Server.EnableCompression ||
			c.Request.Method == "HEAD" ||
			c.GetHeader("Upgrade") != "" ||
			!acceptsBrotli(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		bw := brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression)
		c.Header("Content-Encoding", "br")
		c.Header("Vary", "Accept-Encoding")
		c.Writer = &brotliWriter{ResponseWriter: c.Writer, writer: bw}
		defer func() {
			if err := bw.Close(); err != nil {
				m.logger.Debug("brotli close failed", zap.Error(err))
			}
		}()

		c.Next()
	}
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		encoding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(encoding) != "br" {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}
