package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestAllow_FirstRequestSetsWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30)

	mock.ExpectIncr("ratelimit:user:u1").SetVal(1)
	mock.ExpectExpire("ratelimit:user:u1", time.Minute).SetVal(true)

	ok, err := rl.allow(context.Background(), "ratelimit:user:u1")

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_UnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30)

	mock.ExpectIncr("ratelimit:user:u1").SetVal(30)

	ok, err := rl.allow(context.Background(), "ratelimit:user:u1")

	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30)

	mock.ExpectIncr("antibot:1.2.3.4").SetVal(31)

	ok, err := rl.allow(context.Background(), "antibot:1.2.3.4")

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_RedisDownFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(db, 30)

	mock.ExpectIncr("ratelimit:user:u1").SetErr(errors.New("connection refused"))

	ok, err := rl.allow(context.Background(), "ratelimit:user:u1")

	assert.Error(t, err)
	assert.True(t, ok)
}

func TestNewRateLimiter_DefaultLimit(t *testing.T) {
	rl := NewRateLimiter(nil, 0)
	assert.Equal(t, 30, rl.limit)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0)", false},
		{"Googlebot/2.1", true},
		{"my-crawler/1.0", true},
		{"SpiderMonkey", true},
		{"price-scraper", true},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isSuspiciousUserAgent(tt.ua), "ua=%q", tt.ua)
	}
}
