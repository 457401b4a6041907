package sweep

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleAllowsOncePerInterval(t *testing.T) {
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	th := NewThrottle()
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow(SweepResets))
	assert.False(t, th.Allow(SweepResets))

	now = now.Add(59 * time.Second)
	assert.False(t, th.Allow(SweepResets))

	now = now.Add(1 * time.Second)
	assert.True(t, th.Allow(SweepResets))
}

func TestThrottleTracksNamesIndependently(t *testing.T) {
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	th := NewThrottle()
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow(SweepResets))
	assert.True(t, th.Allow(SweepForceClose))
	assert.False(t, th.Allow(SweepForceClose))
}
