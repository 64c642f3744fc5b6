package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(rl *RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(testLogger()),
	})
	app.Use(rl.Handler())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:    5,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "10.0.0.1"
			},
		})
		app := newLimitedApp(rl)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, "OK", string(body))
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:    2,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "10.0.0.1"
			},
		})
		app := newLimitedApp(rl)

		// First 2 should succeed
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, _ := app.Test(req)
			assert.Equal(t, 200, resp.StatusCode)
		}

		// Third should be rate limited
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
		assert.Equal(t, "30", resp.Header.Get("Retry-After"))

		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("different clients have separate limits", func(t *testing.T) {
		var currentClient string

		rl := NewRateLimiter(RateLimiterConfig{
			Max:    2,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return currentClient
			},
		})
		app := newLimitedApp(rl)

		// Client A uses 2 requests
		currentClient = "10.0.0.1"
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, _ := app.Test(req)
			assert.Equal(t, 200, resp.StatusCode)
		}

		// Client A is now rate limited
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, 429, resp.StatusCode)

		// Client B can still make requests
		currentClient = "10.0.0.2"
		req = httptest.NewRequest("GET", "/test", nil)
		resp, _ = app.Test(req)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("tokens refill over the window", func(t *testing.T) {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		rl := NewRateLimiter(RateLimiterConfig{
			Max:    2,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "10.0.0.1"
			},
		})
		rl.now = func() time.Time { return clock }
		app := newLimitedApp(rl)

		for i := 0; i < 2; i++ {
			resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, 200, resp.StatusCode)
		}
		resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 429, resp.StatusCode)

		// one token every 30s
		clock = clock.Add(30 * time.Second)
		resp, _ = app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("rate limit headers are set", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:    10,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "10.0.0.1"
			},
		})
		app := newLimitedApp(rl)

		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, "10", resp.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", resp.Header.Get("X-RateLimit-Remaining"))
		assert.Empty(t, resp.Header.Get("Retry-After"))
	})

	t.Run("skips empty keys", func(t *testing.T) {
		rl := NewRateLimiter(RateLimiterConfig{
			Max:    1,
			Window: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return ""
			},
		})
		app := newLimitedApp(rl)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest("GET", "/test", nil)
			resp, _ := app.Test(req)
			assert.Equal(t, 200, resp.StatusCode)
		}
		assert.Equal(t, 0, rl.Tracked())
	})

	t.Run("evicts least recently seen clients", func(t *testing.T) {
		var currentClient string

		rl := NewRateLimiter(RateLimiterConfig{
			Max:        1,
			Window:     time.Hour,
			MaxClients: 2,
			KeyGenerator: func(c *fiber.Ctx) string {
				return currentClient
			},
		})
		app := newLimitedApp(rl)

		for _, client := range []string{"a", "b", "c"} {
			currentClient = client
			resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, 200, resp.StatusCode)
		}
		assert.Equal(t, 2, rl.Tracked())

		// "a" was evicted, so it starts with a fresh bucket
		currentClient = "a"
		resp, _ := app.Test(httptest.NewRequest("GET", "/test", nil))
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	config := DefaultRateLimiterConfig()

	assert.Equal(t, 600, config.Max)
	assert.Equal(t, time.Minute, config.Window)
	assert.Equal(t, 10000, config.MaxClients)
	assert.NotNil(t, config.KeyGenerator)
}
