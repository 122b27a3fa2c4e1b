package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(Cache(store, time.Minute))
	r.GET("/api/views/:view", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"view": c.Param("view"), "calls": calls})
	})
	r.GET("/api/fail", func(c *gin.Context) {
		calls++
		c.Status(http.StatusBadGateway)
	})

	first := perform(r, http.MethodGet, "/api/views/students?page=1", nil)
	second := perform(r, http.MethodGet, "/api/views/students?page=1", nil)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	perform(r, http.MethodGet, "/api/views/students?page=2", nil)
	assert.Equal(t, 2, calls, "a different query is a different entry")

	perform(r, http.MethodGet, "/api/fail", nil)
	perform(r, http.MethodGet, "/api/fail", nil)
	assert.Equal(t, 4, calls, "errors are not cached")
}

func TestInvalidatePath(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	for _, key := range []string{
		"/api/views",
		"/api/views/students",
		"/api/views/students?page=2",
		"/api/views/students/records/7",
		"/api/views/students_archive",
	} {
		store.Set(key, cachedResponse{}, time.Minute)
	}

	assert.Equal(t, 3, InvalidatePath(store, "/api/views/students"))
	_, found := store.Get("/api/views/students_archive")
	assert.True(t, found)
	_, found = store.Get("/api/views")
	assert.True(t, found)
}

func TestInvalidateQueries(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	for _, key := range []string{
		"/api/views",
		"/api/views?lang=en",
		"/api/views/students",
	} {
		store.Set(key, cachedResponse{}, time.Minute)
	}

	assert.Equal(t, 2, InvalidateQueries(store, "/api/views"))
	_, found := store.Get("/api/views/students")
	assert.True(t, found)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RateLimiter(rate.Limit(1), 2, "X-Real-IP"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := http.Header{"X-Real-Ip": {"10.0.0.1"}}
	bob := http.Header{"X-Real-Ip": {"10.0.0.2, 172.16.0.1"}}

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", alice).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", alice).Code)
	limited := perform(r, http.MethodGet, "/", alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), `"code":"rate_limited"`)
	assert.NotEmpty(t, limited.Header().Get(RequestIDHeader))

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", bob).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := perform(r, http.MethodGet, "/", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = perform(r, http.MethodGet, "/", nil)
	require.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop().Sugar()), Recovery(zap.NewNop().Sugar()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, http.MethodGet, "/boom", http.Header{RequestIDHeader: {"rid-1"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":"internal_error","request_id":"rid-1"}`, w.Body.String())
}
