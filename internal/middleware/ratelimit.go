package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/pkg/clientip"
)

const (
	// RateLimitWindow is the fixed window submissions are counted in.
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the number of submissions allowed per window.
	RateLimitMaxRequests = 25
	// RateLimitKeyPrefix is the Redis key prefix for per-IP counters.
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs.
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the limit.
	BlockedIPDuration = time.Hour

	redisLimiterTimeout = 2 * time.Second
)

// RedisRateLimiter counts requests per IP in Redis so the limit holds across
// instances. Any Redis error lets the request through.
type RedisRateLimiter struct {
	client  *redis.Client
	ips     clientip.Resolver
	metrics *metrics.Metrics
}

func NewRedisRateLimiter(client *redis.Client, ips clientip.Resolver, m *metrics.Metrics) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, ips: ips, metrics: m}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipAddress := l.ips.ClientIP(r)
		ctx, cancel := context.WithTimeout(r.Context(), redisLimiterTimeout)
		defer cancel()

		blockedKey := BlockedIPKeyPrefix + ipAddress
		isBlocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && isBlocked > 0 {
			l.reject(w, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		rateLimitKey := RateLimitKeyPrefix + ipAddress
		count, err := l.client.Incr(ctx, rateLimitKey).Result()
		if err != nil {
			logger.GetLogger().Warnw("Rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			// First request in this window starts the clock.
			if err := l.client.Expire(ctx, rateLimitKey, RateLimitWindow).Err(); err != nil {
				logger.GetLogger().Warnw("Failed to set rate limit window", "key", rateLimitKey, "error", err)
			}
		}

		if count > RateLimitMaxRequests {
			if err := l.client.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
				logger.GetLogger().Warnw("Failed to block IP", "ip", ipAddress, "error", err)
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
			l.reject(w, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(RateLimitMaxRequests-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(RateLimitWindow).Unix(), 10))
		next.ServeHTTP(w, r)
	})
}

func (l *RedisRateLimiter) reject(w http.ResponseWriter, message string) {
	if l.metrics != nil {
		l.metrics.RateLimited.Inc()
	}
	writeTooManyRequests(w, message)
}

// UnblockIP removes an IP from the blocked list.
func (l *RedisRateLimiter) UnblockIP(ctx context.Context, ipAddress string) error {
	return l.client.Del(ctx, BlockedIPKeyPrefix+ipAddress).Err()
}

func writeTooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"success":false,"error":%q}`, message)
}
