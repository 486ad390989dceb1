package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/pkg/clientip"
)

func init() {
	logger.IsTest = true
}

const testIP = "192.0.2.10"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func submit(h http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/community-help", nil)
	req.RemoteAddr = testIP + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRedisRateLimiter(t *testing.T) {
	t.Run("first request starts the window", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists(BlockedIPKeyPrefix + testIP).SetVal(0)
		mock.ExpectIncr(RateLimitKeyPrefix + testIP).SetVal(1)
		mock.ExpectExpire(RateLimitKeyPrefix+testIP, RateLimitWindow).SetVal(true)

		h := NewRedisRateLimiter(db, clientip.Resolver{}, nil).Middleware(okHandler())
		rec := submit(h)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "25", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "24", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("over the limit blocks the IP", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists(BlockedIPKeyPrefix + testIP).SetVal(0)
		mock.ExpectIncr(RateLimitKeyPrefix + testIP).SetVal(RateLimitMaxRequests + 1)
		mock.ExpectSet(BlockedIPKeyPrefix+testIP, "1", BlockedIPDuration).SetVal("OK")

		m := metrics.New()
		h := NewRedisRateLimiter(db, clientip.Resolver{}, m).Middleware(okHandler())
		rec := submit(h)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"success":false,"error":"Rate limit exceeded. Please try again later."}`, rec.Body.String())
		assert.Equal(t, "120", rec.Header().Get("Retry-After"))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("blocked IP is rejected without counting", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists(BlockedIPKeyPrefix + testIP).SetVal(1)

		h := NewRedisRateLimiter(db, clientip.Resolver{}, nil).Middleware(okHandler())
		rec := submit(h)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure fails open", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectExists(BlockedIPKeyPrefix + testIP).SetErr(errors.New("connection refused"))
		mock.ExpectIncr(RateLimitKeyPrefix + testIP).SetErr(errors.New("connection refused"))

		h := NewRedisRateLimiter(db, clientip.Resolver{}, nil).Middleware(okHandler())
		rec := submit(h)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisRateLimiter_UnblockIP(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectDel(BlockedIPKeyPrefix + testIP).SetVal(1)

	l := NewRedisRateLimiter(db, clientip.Resolver{}, nil)
	require.NoError(t, l.UnblockIP(context.Background(), testIP))
	assert.NoError(t, mock.ExpectationsWereMet())
}
