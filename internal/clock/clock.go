// Package clock provides the wall-clock source and the reference timezone
// used to decide whether a slot has passed.
package clock

import (
	"sync"
	"time"

	"slotbook/internal/models"
)

// Clock abstracts time.Now so expiry checks can be pinned in tests.
type Clock interface {
	// Now returns the current instant in the reference location.
	Now() time.Time
	// Location returns the reference location slot dates are written in.
	Location() *time.Location
}

// Real returns a Clock backed by the system time in loc.
func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = Reference()
	}
	return realClock{loc: loc}
}

type realClock struct {
	loc *time.Location
}

func (c realClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c realClock) Location() *time.Location { return c.loc }

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time, loc *time.Location) *FixedClock {
	if loc == nil {
		loc = Reference()
	}
	return &FixedClock{now: t.In(loc), loc: loc}
}

// FixedClock is a settable Clock for tests. Safe for concurrent use.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Location() *time.Location { return c.loc }

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.In(c.loc)
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var (
	refOnce sync.Once
	refLoc  *time.Location
)

// Reference returns Asia/Phnom_Penh, or a fixed UTC+7 zone when the
// tz database is not installed.
func Reference() *time.Location {
	refOnce.Do(func() {
		refLoc = LoadLocation(models.ReferenceTimezone)
	})
	return refLoc
}

// LoadLocation resolves name, falling back to the fixed reference offset.
func LoadLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("UTC+7", models.ReferenceOffset)
}

// SlotInstant composes a slot's date and time into an instant in loc.
func SlotInstant(date, clockTime string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, date+" "+clockTime, loc)
}
