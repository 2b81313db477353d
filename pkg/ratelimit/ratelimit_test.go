package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiterBlocksAfterMaxAttempts(t *testing.T) {
	rl := NewLoginRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "attempt %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// Başka bir IP etkilenmez
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestLoginRateLimiterResetClearsCounter(t *testing.T) {
	rl := NewLoginRateLimiter(2, time.Minute)
	defer rl.Stop()

	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	rl.Reset("10.0.0.1")
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestLoginRateLimiterWindowExpiry(t *testing.T) {
	rl := NewLoginRateLimiter(1, 50*time.Millisecond)
	defer rl.Stop()

	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	time.Sleep(80 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestLoginRateLimiterRetryAfterSeconds(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	defer rl.Stop()

	assert.Equal(t, 0, rl.RetryAfterSeconds("10.0.0.1"), "unknown IP has no wait")

	rl.Allow("10.0.0.1")
	got := rl.RetryAfterSeconds("10.0.0.1")
	assert.Greater(t, got, 0)
	assert.LessOrEqual(t, got, 61)
}

func TestMessageRateLimiterCooldown(t *testing.T) {
	rl := NewMessageRateLimiter(2, 100*time.Millisecond, 150*time.Millisecond)
	defer rl.Stop()

	require.True(t, rl.Allow("alice"))
	require.True(t, rl.Allow("alice"))

	// Bütçe aşıldı — cooldown başlar
	require.False(t, rl.Allow("alice"))
	assert.Greater(t, rl.CooldownSeconds("alice"), 0)

	// Cooldown sürerken pencere dolmuş olsa bile reddedilir
	time.Sleep(110 * time.Millisecond)
	assert.False(t, rl.Allow("alice"))

	// Cooldown bitince temiz pencereyle devam
	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("alice"))
	assert.Equal(t, 0, rl.CooldownSeconds("alice"))
}

func TestMessageRateLimiterPerUserBudget(t *testing.T) {
	rl := NewMessageRateLimiter(1, time.Minute, time.Minute)
	defer rl.Stop()

	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"))

	assert.True(t, rl.Allow("bob"))
	assert.Equal(t, 0, rl.CooldownSeconds("bob"))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{name: "x-forwarded-for single", xff: "203.0.113.7", remoteAddr: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "x-forwarded-for chain takes first", xff: "203.0.113.7, 10.0.0.2, 10.0.0.3", remoteAddr: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "x-real-ip fallback", xri: "203.0.113.9", remoteAddr: "10.0.0.1:1234", want: "203.0.113.9"},
		{name: "remote addr strips port", remoteAddr: "192.168.1.5:54321", want: "192.168.1.5"},
		{name: "remote addr without port", remoteAddr: "192.168.1.5", want: "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{Header: http.Header{}, RemoteAddr: tt.remoteAddr}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, ExtractIP(r))
		})
	}
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "1 minute(s)", FormatRetryMessage(60))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(150))
}
