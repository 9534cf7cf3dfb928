package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rdb redis.Scripter, rps int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(rdb, rps))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hit(r http.Handler, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip + ":1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_RedisFailure_FailsOpen(t *testing.T) {
	// Unreachable address forces the local fallback.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		DialTimeout: 10 * time.Millisecond,
		ReadTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	w := hit(limitedRouter(rdb, 10), "10.0.0.1")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 (Fail Open), got %d", w.Code)
	}
	if val := w.Header().Get("X-RateLimit-Limit"); val != "10" {
		t.Errorf("Expected X-RateLimit-Limit header '10', got '%s'", val)
	}
}

func TestRateLimitMiddleware_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	r := limitedRouter(rdb, 1)

	if w := hit(r, "10.0.0.2"); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	if w := hit(r, "10.0.0.2"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	if w := hit(r, "10.0.0.3"); w.Code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", w.Code)
	}
	if !mr.Exists(rateLimitPrefix + "10.0.0.2") {
		t.Error("expected bucket state in redis")
	}
	if ttl := mr.TTL(rateLimitPrefix + "10.0.0.2"); ttl <= 0 {
		t.Errorf("expected bucket expiry, got %v", ttl)
	}
}

func TestRateLimitMiddleware_LocalOnly(t *testing.T) {
	r := limitedRouter(nil, 2)

	codes := []int{hit(r, "10.0.0.4").Code, hit(r, "10.0.0.4").Code, hit(r, "10.0.0.4").Code}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected [200 200 429], got %v", codes)
	}
}
