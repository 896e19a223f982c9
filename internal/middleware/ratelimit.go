package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// MsgTooManyAttempts is sent with a 429 response.
const MsgTooManyAttempts = "Too many attempts, please try again later."

var errNoRateLimitStore = errors.New("rate limit store unavailable")

// RateLimiter counts attempts per resource and actor in fixed Redis windows.
// A disabled limiter lets everything through.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
	policy  FailPolicy
}

// NewRateLimiter returns a FailOpen limiter over rdb. rdb may be nil.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled, policy: FailOpen}
}

// WithPolicy returns a copy of l using policy when Redis is unavailable.
func (l *RateLimiter) WithPolicy(policy FailPolicy) *RateLimiter {
	cp := *l
	cp.policy = policy
	return &cp
}

// Allow records one attempt and reports whether it is within limit, together
// with the time left in the current window.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, time.Duration, error) {
	if !l.enabled {
		return true, 0, nil
	}
	if l.rdb == nil {
		return false, 0, errNoRateLimitStore
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// NX keeps the window fixed from the first attempt.
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return incr.Val() <= int64(limit), ttl.Val(), nil
}

// Limit returns a Fiber middleware enforcing limit requests per window on
// resource. It keys by the logged-in user when known, otherwise by remote IP.
func (l *RateLimiter) Limit(limit int, window time.Duration, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid := c.Locals(LocalUserID); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		}

		allowed, retryAfter, err := l.Allow(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if l.policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit fail-closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).SendString("Service temporarily unavailable, please try again later.")
			}
			return c.Next()
		}

		if !allowed {
			if retryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			}
			return c.Status(fiber.StatusTooManyRequests).SendString(MsgTooManyAttempts)
		}
		return c.Next()
	}
}
