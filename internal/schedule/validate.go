package schedule

import (
	"fmt"
	"sort"
	"strings"
)

const minSlotMinutes = 60

const (
	MsgInvalidClock = "invalid time format"
	MsgFromAfterTo  = "from must precede to"
	MsgTooShort     = "minimum duration one hour"
	MsgDuplicate    = "duplicate slot"
	MsgOverlap      = "overlapping slot"
)

var weekdays = map[string]string{
	"monday": "Monday", "mon": "Monday",
	"tuesday": "Tuesday", "tue": "Tuesday",
	"wednesday": "Wednesday", "wed": "Wednesday",
	"thursday": "Thursday", "thu": "Thursday",
	"friday": "Friday", "fri": "Friday",
	"saturday": "Saturday", "sat": "Saturday",
	"sunday": "Sunday", "sun": "Sunday",
}

type SlotError struct {
	Index    int       `json:"index"`
	Interval Interval  `json:"interval"`
	Other    *Interval `json:"other,omitempty"`
	Message  string    `json:"message"`
}

func (e SlotError) Error() string {
	if e.Other != nil {
		return fmt.Sprintf("%s: %s-%s conflicts with %s-%s", e.Message, e.Interval.From, e.Interval.To, e.Other.From, e.Other.To)
	}
	return fmt.Sprintf("%s: %s-%s", e.Message, e.Interval.From, e.Interval.To)
}

type DayErrors struct {
	Day    string      `json:"day"`
	Errors []SlotError `json:"errors"`
}

// NormalizeDay maps a weekday token such as " monday" or "Tue" to its
// canonical name. The second result is false for unknown tokens.
func NormalizeDay(token string) (string, bool) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(token))]
	return day, ok
}

type parsedInterval struct {
	Interval
	from, to int
}

// ValidateDaySlots checks one weekday's intervals. It has no side effects.
func ValidateDaySlots(intervals []Interval) []SlotError {
	var errs []SlotError
	seen := make([]parsedInterval, 0, len(intervals))

	for i, iv := range intervals {
		from, errFrom := ParseClock(iv.From)
		to, errTo := ParseClock(iv.To)
		if errFrom != nil || errTo != nil {
			errs = append(errs, SlotError{Index: i, Interval: iv, Message: MsgInvalidClock})
			continue
		}

		if from >= to {
			errs = append(errs, SlotError{Index: i, Interval: iv, Message: MsgFromAfterTo})
		}
		if to-from < minSlotMinutes {
			errs = append(errs, SlotError{Index: i, Interval: iv, Message: MsgTooShort})
		}

		for _, prev := range seen {
			if prev.from == from && prev.to == to {
				other := prev.Interval
				errs = append(errs, SlotError{Index: i, Interval: iv, Other: &other, Message: MsgDuplicate})
				break
			}
		}

		for _, prev := range seen {
			if from < prev.to && prev.from < to {
				other := prev.Interval
				errs = append(errs, SlotError{Index: i, Interval: iv, Other: &other, Message: MsgOverlap})
			}
		}

		seen = append(seen, parsedInterval{Interval: iv, from: from, to: to})
	}

	return errs
}

// ValidateWeek normalizes every weekday key and validates its intervals.
// Either the whole normalized map is returned or every day's errors are.
func ValidateWeek(slots map[string][]Interval) (map[string][]Interval, []DayErrors) {
	normalized := make(map[string][]Interval, len(slots))
	var problems []DayErrors

	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		day, ok := NormalizeDay(key)
		if !ok {
			problems = append(problems, DayErrors{
				Day:    key,
				Errors: []SlotError{{Index: -1, Message: "unrecognized weekday"}},
			})
			continue
		}
		if _, dup := normalized[day]; dup {
			problems = append(problems, DayErrors{
				Day:    key,
				Errors: []SlotError{{Index: -1, Message: "weekday listed more than once"}},
			})
			continue
		}

		intervals := slots[key]
		if errs := ValidateDaySlots(intervals); len(errs) > 0 {
			problems = append(problems, DayErrors{Day: day, Errors: errs})
			continue
		}
		normalized[day] = intervals
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return normalized, nil
}
