package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"lab-service/internal/auth"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRetryAfter    = "Retry-After"
	retryAfterSeconds   = "1"

	keyPrefixPrincipal = "principal:"
	keyPrefixIP        = "ip:"

	msgRateLimitExceeded = "rate limit exceeded"
	jsonKeyError         = "error"
)

// RateLimiter implements token bucket rate limiting per caller
type RateLimiter struct {
	limiters sync.Map // key -> *rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
// requestsPerSecond: number of requests allowed per second
// burst: maximum burst size
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		rate:  rate.Limit(requestsPerSecond),
		burst: burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	return limiter.(*rate.Limiter)
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware limits authenticated callers by principal and everyone else by
// client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyPrefixIP + c.RealIP()
			if p, err := auth.GetPrincipal(c); err == nil {
				key = keyPrefixPrincipal + p.ID.String()
			}

			limiter := rl.getLimiter(key)
			header := c.Response().Header()
			header.Set(headerRateLimit, strconv.Itoa(rl.burst))

			if !limiter.Allow() {
				header.Set(headerRateRemaining, "0")
				header.Set(headerRetryAfter, retryAfterSeconds)
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					jsonKeyError: msgRateLimitExceeded,
				})
			}

			header.Set(headerRateRemaining, strconv.Itoa(int(limiter.Tokens())))
			return next(c)
		}
	}
}

// NewStrictRateLimiter is meant for sign-in and other credential checks.
func NewStrictRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// NewPrincipalRateLimiter bounds each signed-in principal once the token
// has been resolved.
func NewPrincipalRateLimiter() *RateLimiter {
	return NewRateLimiter(20, 40)
}

// NewGlobalRateLimiter is a lenient limiter for general API usage.
func NewGlobalRateLimiter() *RateLimiter {
	return NewRateLimiter(100, 200)
}
