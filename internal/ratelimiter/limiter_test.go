package ratelimiter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_InvalidArgs(t *testing.T) {
	assert.Nil(t, New(0, 1, time.Minute))
	assert.Nil(t, New(1, 0, time.Minute))

	var l *KeyLimiter
	assert.True(t, l.Allow("10.0.0.1", time.Now()))
	assert.Equal(t, 0, l.Len())
}

func TestKeyLimiter_Burst(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("10.0.0.1", now))
	assert.True(t, l.Allow("10.0.0.1", now))
	assert.False(t, l.Allow("10.0.0.1", now))

	// Other clients have their own bucket
	assert.True(t, l.Allow("10.0.0.2", now))

	// One token refills after a second
	assert.True(t, l.Allow("10.0.0.1", now.Add(time.Second)))
}

func TestKeyLimiter_EmptyKeyAllowed(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	assert.True(t, l.Allow("", now))
	assert.True(t, l.Allow("", now))
	assert.Equal(t, 0, l.Len())
}

func TestKeyLimiter_EvictsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Minute)
	start := time.Now()

	l.Allow("stale", start)
	later := start.Add(2 * time.Minute)
	for i := 0; i < sweepEvery; i++ {
		l.Allow(fmt.Sprintf("client-%d", i%4), later)
	}

	assert.Equal(t, 4, l.Len())
}
