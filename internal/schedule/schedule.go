// Package schedule models a gym's weekly opening template and answers
// whether a requested time range fits inside it.
package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

var (
	ErrInvalidClock     = errors.New("invalid time format")
	ErrInvalidFrequency = errors.New("frequency must be weekly or monthly")
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Interval is a [From, To) wall-clock range in HH:MM.
type Interval struct {
	From string `json:"from" example:"06:00"`
	To   string `json:"to" example:"08:00"`
}

type Schedule struct {
	Frequency Frequency             `json:"frequency" example:"weekly"`
	Slots     map[string][]Interval `json:"slots"`
}

func (f Frequency) Valid() bool {
	return f == FrequencyWeekly || f == FrequencyMonthly
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, nil
}

// Day returns the intervals listed for the weekday of date.
func (s Schedule) Day(date time.Time) []Interval {
	if s.Slots == nil {
		return nil
	}
	return s.Slots[date.Weekday().String()]
}

// IsSlotAvailable reports whether [from, to) on date lies entirely inside one
// of the intervals listed for that weekday. Partial overlap is not available.
func IsSlotAvailable(s Schedule, date time.Time, from, to string) bool {
	for _, iv := range s.Day(date) {
		if from >= iv.From && to <= iv.To {
			return true
		}
	}
	return false
}

// Merge returns a copy of s with the weekdays in update replacing the existing ones.
func (s Schedule) Merge(frequency Frequency, update map[string][]Interval) Schedule {
	merged := Schedule{Frequency: frequency, Slots: make(map[string][]Interval, len(s.Slots)+len(update))}
	for day, ivs := range s.Slots {
		merged.Slots[day] = ivs
	}
	for day, ivs := range update {
		merged.Slots[day] = ivs
	}
	return merged
}

func (s Schedule) Value() (driver.Value, error) {
	if s.Frequency == "" {
		s.Frequency = FrequencyWeekly
	}
	if s.Slots == nil {
		s.Slots = map[string][]Interval{}
	}
	return json.Marshal(s)
}

func (s *Schedule) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*s = Schedule{Frequency: FrequencyWeekly, Slots: map[string][]Interval{}}
		return nil
	default:
		return fmt.Errorf("schedule: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, s)
}
