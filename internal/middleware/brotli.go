package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes the compression middleware. Responses shorter than
// MinLength are sent uncompressed; Skipper can exempt routes entirely.
type BrotliConfig struct {
	Quality   int
	Skipper   func(c *gin.Context) bool
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter buffers the response until it either crosses MinLength
// (then compresses) or the handler finishes (then passes through raw).
type brotliWriter struct {
	gin.ResponseWriter
	writer     *brotli.Writer
	buf        []byte
	minLength  int
	once       sync.Once
	compressed bool
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	w.buf = append(w.buf, data...)

	if len(w.buf) >= w.minLength {
		w.once.Do(func() {
			w.compressed = true
			w.ResponseWriter.Header().Set("Content-Encoding", "br")
			w.ResponseWriter.Header().Del("Content-Length")
		})
		n, err := w.writer.Write(w.buf)
		w.buf = w.buf[:0]
		return n, err
	}

	return len(data), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush satisfies http.Flusher for streaming handlers. The buffered
// bytes go out uncompressed since a partial brotli stream is useless to
// the client.
func (w *brotliWriter) Flush() {
	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
		w.buf = w.buf[:0]
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) drain() error {
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = w.buf[:0]
	return err
}

// Brotli compresses responses with the default configuration.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		if mustPassThrough(c) {
			c.Next()
			return
		}
		if cfg.Skipper != nil && cfg.Skipper(c) {
			c.Next()
			return
		}
		if !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brotliWriter{
			ResponseWriter: c.Writer,
			minLength:      cfg.MinLength,
			writer:         brotli.NewWriterLevel(c.Writer, cfg.Quality),
		}

		defer func() {
			if err := w.drain(); err != nil {
				_ = c.Error(err)
			}
			if w.compressed {
				w.writer.Close()
			}
		}()

		c.Writer = w
		c.Next()
	}
}

// mustPassThrough reports whether the request uses a protocol that
// cannot survive buffered compression.
func mustPassThrough(c *gin.Context) bool {
	// Server-sent events need each write delivered immediately.
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	// A wrapped writer breaks the WebSocket upgrade handshake.
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
