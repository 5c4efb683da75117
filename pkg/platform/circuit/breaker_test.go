package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock) *Breaker {
	return New("ai",
		WithFailureThreshold(3),
		WithSuccessThreshold(2),
		WithCooldown(10*time.Second),
		WithClock(clock.now),
	)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBreaker(clock)

	assert.Equal(t, StateClosed, b.RecordFailure())
	assert.Equal(t, StateClosed, b.RecordFailure())
	assert.Equal(t, StateOpen, b.RecordFailure())
	assert.False(t, b.Allow())
	assert.Equal(t, "ai", b.Name())
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b := newTestBreaker(&fakeClock{t: time.Unix(0, 0)})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := newTestBreaker(clock)
	for range 3 {
		b.RecordFailure()
	}

	clock.advance(9 * time.Second)
	assert.False(t, b.Allow())

	clock.advance(time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	t.Run("trial failure reopens", func(t *testing.T) {
		assert.Equal(t, StateOpen, b.RecordFailure())
		assert.False(t, b.Allow())
	})

	t.Run("trial successes close", func(t *testing.T) {
		clock.advance(10 * time.Second)
		assert.True(t, b.Allow())
		assert.Equal(t, StateHalfOpen, b.RecordSuccess())
		assert.Equal(t, StateClosed, b.RecordSuccess())
	})
}

func TestBreaker_Reset(t *testing.T) {
	b := newTestBreaker(&fakeClock{t: time.Unix(0, 0)})
	for range 3 {
		b.RecordFailure()
	}
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
}
