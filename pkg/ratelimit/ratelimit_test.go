package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(time.Minute, 3)
	clock, advance := fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	l.now = clock

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "hit %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"), "fourth hit should be limited")
	assert.True(t, l.Allow("10.0.0.2"), "other keys have their own bucket")

	advance(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills every 20s")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterPrune(t *testing.T) {
	l := NewLimiter(time.Minute, 10)
	clock, advance := fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	l.now = clock

	l.Allow("a")
	advance(5 * time.Minute)
	l.Allow("b")

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 1, l.Prune(time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestNewLimiterClampsInvalidValues(t *testing.T) {
	l := NewLimiter(0, 0)
	assert.Equal(t, 1, l.burst)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}
