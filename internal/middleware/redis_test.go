package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func cacheKeys(t *testing.T, rdb *redis.Client) []string {
	t.Helper()
	keys, err := rdb.Keys(context.Background(), "cache:*").Result()
	require.NoError(t, err)
	return keys
}

func serve(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newCachedEcho(rdb *redis.Client, calls *int) *echo.Echo {
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
	log := zap.NewNop()

	e := echo.New()
	pub := e.Group("/v1", NewRedisCache(cfg, rdb, log))
	pub.GET("/books", func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": *calls})
	})
	pub.GET("/missing", func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	})
	pub.GET("/cookie", func(c echo.Context) error {
		*calls++
		c.SetCookie(&http.Cookie{Name: "s", Value: "1"})
		return c.String(http.StatusOK, "ok")
	})

	admin := e.Group("/v1/admin", PurgeOnWrite(cfg, rdb, log))
	admin.POST("/books", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	admin.POST("/invalid", func(c echo.Context) error {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": echo.Map{"title": "is required"}})
	})
	admin.POST("/failing", func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict) })
	return e
}

func TestRedisCacheMissThenHit(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := newCachedEcho(rdb, &calls)

	first := serve(e, http.MethodGet, "/v1/books?q=borges")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Len(t, cacheKeys(t, rdb), 1)

	second := serve(e, http.MethodGet, "/v1/books?q=borges")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Equal(t, 1, calls)

	// another query string is another entry
	third := serve(e, http.MethodGet, "/v1/books?q=cortazar")
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCacheSkipsErrorsAndCookies(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := newCachedEcho(rdb, &calls)

	for _, path := range []string{"/v1/missing", "/v1/cookie"} {
		for i := 0; i < 2; i++ {
			rec := serve(e, http.MethodGet, path)
			assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), path)
		}
	}
	assert.Equal(t, 4, calls)
	assert.Empty(t, cacheKeys(t, rdb))
}

func TestPurgeOnWrite(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := newCachedEcho(rdb, &calls)

	warm := func() {
		serve(e, http.MethodGet, "/v1/books")
		serve(e, http.MethodGet, "/v1/books?page=2")
		require.Len(t, cacheKeys(t, rdb), 2)
	}
	warm()

	rec := serve(e, http.MethodPost, "/v1/admin/invalid")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, cacheKeys(t, rdb), 2)

	rec = serve(e, http.MethodPost, "/v1/admin/failing")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, cacheKeys(t, rdb), 2)

	rec = serve(e, http.MethodPost, "/v1/admin/books")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, cacheKeys(t, rdb))

	rec = serve(e, http.MethodGet, "/v1/books")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestPurgeCacheLeavesOtherPrefixes(t *testing.T) {
	mr, rdb := newRedis(t)
	for i := 0; i < 450; i++ {
		require.NoError(t, mr.Set("cache:"+strconv.Itoa(i), "x"))
	}
	require.NoError(t, mr.Set("rl:ip:1", "x"))

	require.NoError(t, PurgeCache(context.Background(), rdb, "cache"))
	assert.Empty(t, cacheKeys(t, rdb))
	assert.True(t, mr.Exists("rl:ip:1"))
}

func TestCacheDisabledWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, Prefix: "cache"}
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewRedisCache(cfg, nil, zap.NewNop()))

	rec := serve(e, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestTokenBucket(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            time.Hour,
		Prefix:         "rl",
	}
	e := echo.New()
	e.GET("/v1/books", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(cfg, rdb, zap.NewNop()))

	from := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for want := 1; want >= 0; want-- {
		rec := from("10.0.0.1")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(want), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := from("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retry)
	assert.LessOrEqual(t, retry, 60)
	assert.Contains(t, rec.Body.String(), "too_many_requests")

	// buckets are per client
	assert.Equal(t, http.StatusNoContent, from("10.0.0.2").Code)

	keys, err := rdb.Keys(context.Background(), "rl:ip:*").Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rl:ip:10.0.0.1:GET:/v1/books", "rl:ip:10.0.0.2:GET:/v1/books"}, keys)
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		NewTokenBucket(cfg, rdb, zap.NewNop()))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/").Code)
	}
}
