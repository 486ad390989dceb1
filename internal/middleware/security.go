package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"

	// The help map loads Leaflet from unpkg and tiles from OpenStreetMap.
	contentSecurityPolicy = "default-src 'self'; " +
		"script-src 'self' https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://unpkg.com; " +
		"img-src 'self' data: https://*.tile.openstreetmap.org https://unpkg.com; " +
		"connect-src 'self'"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerReferrerPolicy, "strict-origin-when-cross-origin")
		w.Header().Set(headerContentSecurityPolicy, contentSecurityPolicy)
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// --- In-memory per-IP rate limiting for submissions ---

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Idle buckets are
// swept after limiterTTL.
type IPRateLimiter struct {
	limit   rate.Limit
	burst   int
	ips     clientip.Resolver
	metrics *metrics.Metrics

	mu          sync.Mutex
	entries     map[string]*limiterEntry
	cleanupOnce sync.Once
}

// NewIPRateLimiter allows perMinute requests per IP with the given burst.
func NewIPRateLimiter(perMinute float64, burst int, ips clientip.Resolver, m *metrics.Metrics) *IPRateLimiter {
	return &IPRateLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		ips:     ips,
		metrics: m,
		entries: make(map[string]*limiterEntry),
	}
}

func (l *IPRateLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.cleanupOnce.Do(l.startCleanup)

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = now
	return e.limiter
}

func (l *IPRateLimiter) startCleanup() {
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			l.sweep(now)
		}
	}()
}

// sweep drops buckets idle for longer than limiterTTL.
func (l *IPRateLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(l.entries, ip)
		}
	}
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(l.ips.ClientIP(r), time.Now()).Allow() {
			if l.metrics != nil {
				l.metrics.RateLimited.Inc()
			}
			writeTooManyRequests(w, "Too many submissions. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
