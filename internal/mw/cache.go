package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

// ResponseCache keeps rendered GET responses keyed by request URI. Callers
// Flush it whenever the data behind the cached routes changes.
type ResponseCache struct {
	entries *cache.Cache
	ttl     time.Duration
}

type cacheEntry struct {
	status int
	header http.Header
	body   []byte
}

// captureWriter copies everything written to the client into buf.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// NewResponseCache creates a cache holding responses for ttl. A non-positive
// ttl disables caching.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	cleanup := 2 * ttl
	if ttl <= 0 {
		cleanup = 0
	}
	return &ResponseCache{entries: cache.New(ttl, cleanup), ttl: ttl}
}

// Flush drops every cached response.
func (rc *ResponseCache) Flush() { rc.entries.Flush() }

// Len is the number of cached responses, expired ones included until the
// janitor runs.
func (rc *ResponseCache) Len() int { return rc.entries.ItemCount() }

// Middleware serves cached GET responses and records new 2xx ones.
func (rc *ResponseCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rc.ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if v, ok := rc.entries.Get(key); ok {
			rc.replay(c, v.(cacheEntry))
			return
		}

		c.Header(CacheHeader, "MISS")
		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		header := w.Header().Clone()
		header.Del(CacheHeader)
		rc.entries.Set(key, cacheEntry{status: status, header: header, body: w.buf.Bytes()}, rc.ttl)
	}
}

func (rc *ResponseCache) replay(c *gin.Context, e cacheEntry) {
	dst := c.Writer.Header()
	for k, v := range e.header {
		dst[k] = v
	}
	dst.Set(CacheHeader, "HIT")
	c.Writer.WriteHeader(e.status)
	_, _ = c.Writer.Write(e.body)
	c.Abort()
}
