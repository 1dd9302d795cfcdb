package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeRunsCallbacksInDueOrder(t *testing.T) {
	c := NewFake(epoch)
	var got []string
	c.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	c.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	c.AfterFunc(200*time.Millisecond, func() { got = append(got, "b") })

	c.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, c.Pending())

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, epoch.Add(1150*time.Millisecond), c.Now())
}

func TestFakeTiesFireInScheduleOrder(t *testing.T) {
	c := NewFake(epoch)
	var got []int
	for i := 0; i < 3; i++ {
		c.AfterFunc(time.Second, func() { got = append(got, i) })
	}
	c.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestFakeNowInsideCallbackIsDueTime(t *testing.T) {
	c := NewFake(epoch)
	var at time.Time
	c.AfterFunc(40*time.Millisecond, func() { at = c.Now() })
	c.Advance(time.Second)
	assert.Equal(t, epoch.Add(40*time.Millisecond), at)
}

func TestFakeNestedSchedulingWithinWindow(t *testing.T) {
	c := NewFake(epoch)
	fired := 0
	c.AfterFunc(100*time.Millisecond, func() {
		fired++
		c.AfterFunc(100*time.Millisecond, func() { fired++ })
	})
	c.Advance(250 * time.Millisecond)
	assert.Equal(t, 2, fired)
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	require.True(t, tm.Stop())
	assert.False(t, tm.Stop(), "second Stop reports nothing to stop")
	c.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeIgnoreStopStillFires(t *testing.T) {
	c := NewFake(epoch)
	c.IgnoreStop = true
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, tm.Stop())
	c.Advance(time.Second)
	assert.True(t, fired)
}

func TestFakeNextDue(t *testing.T) {
	c := NewFake(epoch)
	_, ok := c.NextDue()
	assert.False(t, ok)

	c.AfterFunc(700*time.Millisecond, func() {})
	c.AfterFunc(200*time.Millisecond, func() {})
	d, ok := c.NextDue()
	require.True(t, ok)
	assert.Equal(t, 200*time.Millisecond, d)
}

func TestSystemDispatchesCallbacks(t *testing.T) {
	var mu sync.Mutex
	dispatched := 0
	done := make(chan struct{})
	c := NewSystem(func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		fn()
	})
	c.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dispatched)
}
