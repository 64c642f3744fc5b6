package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window, also the burst size
	Max int
	// Window duration over which Max requests refill
	Window time.Duration
	// MaxClients bounds the number of tracked keys; least recently seen are evicted
	MaxClients int
	// Key generator function - returns the client IP by default
	KeyGenerator func(c *fiber.Ctx) string
}

// DefaultRateLimiterConfig returns default configuration
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:        600,
		Window:     time.Minute,
		MaxClients: 10000,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}
}

// RateLimiter implements per-client token bucket rate limiting
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *lru.Cache[string, *rate.Limiter]
	mu       sync.Mutex
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.MaxClients <= 0 {
		config.MaxClients = defaults.MaxClients
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	// only fails on a non-positive size
	cache, _ := lru.New[string, *rate.Limiter](config.MaxClients)

	return &RateLimiter{
		config:   config,
		limiters: cache,
		now:      time.Now,
	}
}

// Handler returns the Fiber middleware handler
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := rl.config.KeyGenerator(c)
		if key == "" {
			return c.Next()
		}

		now := rl.now()
		limiter := rl.limiter(key)
		allowed := limiter.AllowN(now, 1)

		remaining := int(math.Floor(limiter.TokensAt(now)))
		if remaining < 0 {
			remaining = 0
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Set("Retry-After", strconv.Itoa(retryAfter(limiter, now)))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}

// Tracked returns the number of keys currently holding a bucket.
func (rl *RateLimiter) Tracked() int {
	return rl.limiters.Len()
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters.Get(key); ok {
		return l
	}

	every := rl.config.Window / time.Duration(rl.config.Max)
	l := rate.NewLimiter(rate.Every(every), rl.config.Max)
	rl.limiters.Add(key, l)
	return l
}

// retryAfter is the whole number of seconds until one token is available.
func retryAfter(l *rate.Limiter, now time.Time) int {
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return 1
	}
	delay := r.DelayFrom(now)
	r.CancelAt(now)

	seconds := int(math.Ceil(delay.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
