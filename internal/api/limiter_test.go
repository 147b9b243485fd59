package api

import (
	"net/http/httptest"
	"testing"

	"slotbook/internal/config"
	"slotbook/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001, Burst: 1})
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"))
	assert.Same(t, l.getLimiter("a"), l.getLimiter("a"))

	disabled := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 10; i++ {
		assert.True(t, disabled.allow("a"))
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientKey(req))

	req = req.WithContext(domain.WithIdentity(req.Context(), domain.Identity{UserID: 4}))
	assert.Equal(t, "user:4", clientKey(req))
}
