package mw

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware for in-memory caching of GET requests, keyed by the
// full request URI.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() >= 200 && blw.Status() < 300 {
			response := cachedResponse{
				status:  blw.Status(),
				headers: blw.Header().Clone(),
				body:    blw.body.Bytes(),
			}
			store.Set(key, response, duration)
		}
	}
}

// InvalidatePath drops every cached response for path, whatever its query
// string, and for the resources nested below it. It returns how many
// entries were removed.
func InvalidatePath(store *cache.Cache, path string) int {
	return invalidate(store, path, true)
}

// InvalidateQueries drops the cached responses for path itself under any
// query string, leaving nested resources alone.
func InvalidateQueries(store *cache.Cache, path string) int {
	return invalidate(store, path, false)
}

func invalidate(store *cache.Cache, path string, nested bool) int {
	path = strings.TrimRight(path, "/")
	removed := 0
	for key := range store.Items() {
		rest, ok := strings.CutPrefix(key, path)
		if !ok {
			continue
		}
		if rest == "" || rest[0] == '?' || (nested && rest[0] == '/') {
			store.Delete(key)
			removed++
		}
	}
	return removed
}
