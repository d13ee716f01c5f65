package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lab-service/internal/auth"
	"lab-service/internal/domain/principal"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, 2)

	assert.True(t, rl.Allow("test-key"))
	assert.True(t, rl.Allow("test-key"))
	assert.False(t, rl.Allow("test-key"))
}

func TestRateLimiter_Middleware(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(2, 2).Middleware()(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		err := mw(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := httptest.NewRecorder()
	err := mw(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_KeysByPrincipalOverIP(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(1, 1).Middleware()(okHandler)

	call := func(p *principal.Principal) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if p != nil {
			c.Set(auth.ContextKeyPrincipal, p)
		}
		_ = mw(c)
		return rec.Code
	}

	alice := &principal.Principal{ID: uuid.New(), Role: principal.RoleSupervisor}
	bob := &principal.Principal{ID: uuid.New(), Role: principal.RoleSupervisor}

	assert.Equal(t, http.StatusOK, call(nil))
	assert.Equal(t, http.StatusTooManyRequests, call(nil))
	// Same IP, but each principal gets its own bucket.
	assert.Equal(t, http.StatusOK, call(alice))
	assert.Equal(t, http.StatusOK, call(bob))
	assert.Equal(t, http.StatusTooManyRequests, call(alice))
}

func TestRateLimiter_DifferentKeys(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	assert.True(t, rl.Allow("key1"))
	assert.True(t, rl.Allow("key2"))

	assert.False(t, rl.Allow("key1"))
	assert.False(t, rl.Allow("key2"))
}
