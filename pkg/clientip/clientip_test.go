package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:4242"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "10.0.0.5", Resolver{}.ClientIP(r))
	assert.Equal(t, "203.0.113.9", Resolver{TrustProxy: true}.ClientIP(r))

	r.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "10.0.0.5", Resolver{TrustProxy: true}.ClientIP(r))

	r.RemoteAddr = "bare-host"
	assert.Equal(t, "bare-host", RealClientIP(r))
}
