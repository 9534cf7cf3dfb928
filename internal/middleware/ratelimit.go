package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	rateLimitPrefix  = "storefront:ratelimit:"
	redisLimitBudget = 100 * time.Millisecond
	idleBucketTTL    = 10 * time.Minute
)

// takeToken refills and takes one token from the bucket hash at KEYS[1].
// ARGV: rate (tokens/s), capacity, now (unix ms).
// Returns { allowed, remaining, retry_after_ms }.
var takeToken = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate / 1000)
if tokens < 1 then
  return { 0, 0, math.ceil((1 - tokens) * 1000 / rate) }
end

tokens = tokens - 1
redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", tostring(now))
redis.call("PEXPIRE", KEYS[1], math.ceil(capacity * 2000 / rate))
return { 1, math.floor(tokens), 0 }
`)

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localBuckets is the in-process fallback used when Redis is absent or
// failing. Idle buckets are swept on access.
type localBuckets struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	swept   time.Time
}

var fallback = &localBuckets{buckets: make(map[string]*localBucket)}

func (l *localBuckets) get(key string, rps, burst int) *rate.Limiter {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > idleBucketTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > idleBucketTTL {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// RateLimitMiddleware enforces a per-IP token bucket in Redis. When Redis is
// nil or failing it falls back to an in-process limiter (fail-open).
func RateLimitMiddleware(rdb redis.Scripter, requestsPerSecond int) gin.HandlerFunc {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	burst := requestsPerSecond
	limit := strconv.Itoa(requestsPerSecond)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		c.Header("X-RateLimit-Limit", limit)

		if rdb == nil {
			localLimit(c, ip, requestsPerSecond, burst)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), redisLimitBudget)
		res, err := takeToken.Run(ctx, rdb, []string{rateLimitPrefix + ip},
			requestsPerSecond, burst, time.Now().UnixMilli()).Int64Slice()
		cancel()

		if err != nil || len(res) != 3 {
			logger.Warn("redis rate limit failed, using local fallback",
				zap.Error(err),
				zap.String("ip", ip))
			localLimit(c, ip, requestsPerSecond, burst)
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
		if res[0] != 1 {
			retry := time.Duration(res[2]) * time.Millisecond
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retry).Unix(), 10))
			tooMany(c)
			return
		}
		c.Next()
	}
}

func localLimit(c *gin.Context, ip string, rps, burst int) {
	limiter := fallback.get(ip+"|"+strconv.Itoa(rps), rps, burst)
	if !limiter.Allow() {
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))
		tooMany(c)
		return
	}
	c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
	c.Next()
}

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, v1.ErrorBody{Message: "Too Many Requests"})
}
