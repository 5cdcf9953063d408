package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AllowsUpToLimitThenBlocks(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d, err := m.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := m.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// other keys have their own bucket
	d, _ = m.Allow(ctx, "ip:2")
	assert.True(t, d.Allowed)
}

func TestMemory_WindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(1, time.Minute)
	m.now = func() time.Time { return now }

	ctx := context.Background()
	d, _ := m.Allow(ctx, "k")
	assert.True(t, d.Allowed)

	d, _ = m.Allow(ctx, "k")
	assert.False(t, d.Allowed)

	now = now.Add(61 * time.Second)
	d, _ = m.Allow(ctx, "k")
	assert.True(t, d.Allowed)
}
