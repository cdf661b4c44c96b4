package testfixtures

import (
	"sync"
	"time"

	"github.com/example/drivingschool/internal/civil"
)

// Clock is a settable time source for tests.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// SetCivil moves the clock to the given civil date and HH:mm in civil.Zone.
func (c *Clock) SetCivil(date, clock string) {
	d, err := civil.ParseDate(date)
	if err != nil {
		panic(err)
	}
	tod, err := civil.ParseTimeOfDay(clock)
	if err != nil {
		panic(err)
	}
	c.Set(civil.Combine(d, tod))
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
