package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrigger_FiresAfterWindow(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	d := New(500*time.Millisecond, clock)

	fired := 0
	d.Trigger(func() { fired++ })

	clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, fired)

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.False(t, d.Pending())
}

func TestTrigger_CoalescesToLatest(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	d := New(500*time.Millisecond, clock)

	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() { got = append(got, i) })
		clock.Advance(100 * time.Millisecond)
	}
	clock.Advance(500 * time.Millisecond)

	// one firing, reflecting only the final trigger
	assert.Equal(t, []int{5}, got)
}

func TestTrigger_RestartsWindow(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	d := New(500*time.Millisecond, clock)

	fired := 0
	d.Trigger(func() { fired++ })
	clock.Advance(400 * time.Millisecond)
	d.Trigger(func() { fired++ })
	clock.Advance(400 * time.Millisecond)

	// first window would have elapsed by now, but the retrigger reset it
	assert.Equal(t, 0, fired)
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestFlush_RunsPendingNow(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	d := New(500*time.Millisecond, clock)

	fired := 0
	d.Trigger(func() { fired++ })
	d.Flush()
	assert.Equal(t, 1, fired)

	// window elapsing later must not fire it again
	clock.Advance(time.Second)
	assert.Equal(t, 1, fired)
}

func TestFlush_NoPendingIsNoop(t *testing.T) {
	d := New(500*time.Millisecond, NewManualClock(time.Unix(0, 0)))
	d.Flush() // must not panic
}

func TestStop_DiscardsPending(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	d := New(500*time.Millisecond, clock)

	fired := 0
	d.Trigger(func() { fired++ })
	d.Stop()
	clock.Advance(time.Second)
	assert.Equal(t, 0, fired)
}
