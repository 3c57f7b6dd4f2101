package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-client request budget. Accept attempts are
// keyed by courier identity so one aggressive client cannot starve the
// arbiter for everyone behind the same NAT; everything else keys on the
// client IP.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const clientIdleEviction = 10 * time.Minute

// NewRateLimiter creates a limiter allowing rps sustained requests with
// the given burst per client key.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*clientLimiter),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the keyed client may proceed, and the wait until
// the next permitted request when it may not.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > clientIdleEviction {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > clientIdleEviction {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	client, ok := rl.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now

	reservation := client.limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}

	return true, 0
}

// Middleware returns an echo middleware applying the limiter. keyFunc
// extracts the client key from the request; an empty key falls back to
// the remote IP.
func (rl *RateLimiter) Middleware(keyFunc func(echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			key := keyFunc(ctx)
			if key == "" {
				key = ctx.RealIP()
			}

			allowed, retryAfter := rl.Allow(key)
			if !allowed {
				seconds := int(retryAfter.Seconds()) + 1
				ctx.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return ctx.JSON(http.StatusTooManyRequests, errorResponse{
					Code:    http.StatusTooManyRequests,
					Message: "rate limit exceeded",
				})
			}

			return next(ctx)
		}
	}
}

// courierKey keys the limiter on the caller's courier identity when the
// request carries one; the Middleware falls back to the remote IP
// otherwise.
func courierKey(ctx echo.Context) string {
	if id := ctx.QueryParam("courierId"); id != "" {
		return id
	}
	return ctx.Request().Header.Get("X-Courier-ID")
}
