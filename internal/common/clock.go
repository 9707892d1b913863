package common

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day in an exchange-local zone.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q, want HH:MM: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseClock is ParseClock for compile-time constants.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// On returns the instant this clock reads on the local calendar day of t in loc.
// DST transitions are handled by time.Date.
func (c Clock) On(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// AtOrAfter reports whether t, read in loc, is at or past this clock on its own day.
func (c Clock) AtOrAfter(t time.Time, loc *time.Location) bool {
	return !t.Before(c.On(t, loc))
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
