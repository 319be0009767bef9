// Package clock provides the time source used by temporal booking rules.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

type Clock = clockwork.Clock

func New() Clock {
	return clockwork.NewRealClock()
}

// NewFake returns a clock frozen at t until advanced.
func NewFake(t time.Time) clockwork.FakeClock {
	return clockwork.NewFakeClockAt(t)
}

// Wall returns the wall-clock date and HH:MM of t in loc.
func Wall(t time.Time, loc *time.Location) (date time.Time, hhmm string) {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), t.Format("15:04")
}

// At combines a calendar date with an HH:MM wall time in loc.
func At(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	tm, err := time.ParseInLocation("15:04", hhmm, loc)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, tm.Hour(), tm.Minute(), 0, 0, loc), nil
}
