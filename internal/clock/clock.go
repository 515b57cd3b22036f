// Package clock lets time-dependent code (throttling, batching windows, the drag
// watchdog) run against either the wall clock or a manually advanced fake.
package clock

import (
	"sort"
	"sync"
	"time"
)

type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call stopped it.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns the wall clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Fake is a manually advanced clock. Timers fire synchronously inside Advance,
// on the goroutine that calls it.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *Fake
	id      int
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{c: c, id: c.seq, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every timer that became due, in
// deadline order.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.dueLocked(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		due.fired = true
		if due.at.After(c.now) {
			c.now = due.at
		}
		c.removeLocked(due)
		c.mu.Unlock()
		due.f()
	}
}

// Pending reports how many timers are armed.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Fake) dueLocked(target time.Time) *fakeTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].id < c.timers[j].id
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	for _, t := range c.timers {
		if !t.at.After(target) {
			return t
		}
	}
	return nil
}

func (c *Fake) removeLocked(t *fakeTimer) {
	for i, x := range c.timers {
		if x == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.c.removeLocked(t)
	return true
}
