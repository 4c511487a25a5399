package planner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidReminderTime = errors.New("invalid reminder time")
	ErrInvalidTimezone     = errors.New("invalid timezone offset")
)

// Entry is one planned recurring reminder: the goal at PairIndex fires once
// per day at UTCHour:UTCMinute.
type Entry struct {
	PairIndex int
	UTCHour   int
	UTCMinute int
	Goal      string
}

// Plan pairs goals with local reminder times by index and converts each local
// time to UTC using a fixed whole-hour offset. Surplus entries in either list
// are dropped. A malformed time skips only its own pair; the wrapped
// ErrInvalidReminderTime for it is appended to the returned slice so the
// caller can report it without aborting the batch.
func Plan(goals, times []string, offsetHours int) ([]Entry, []error) {
	n := len(goals)
	if len(times) < n {
		n = len(times)
	}

	entries := make([]Entry, 0, n)
	var skipped []error

	for i := 0; i < n; i++ {
		hour, minute, err := ParseClock(times[i])
		if err != nil {
			skipped = append(skipped, fmt.Errorf("pair %d (%q): %w", i, times[i], err))
			continue
		}
		entries = append(entries, Entry{
			PairIndex: i,
			UTCHour:   ((hour-offsetHours)%24 + 24) % 24,
			UTCMinute: minute,
			Goal:      goals[i],
		})
	}

	return entries, skipped
}

// ParseClock parses a zero-padded 24-hour "HH:MM" string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected HH:MM", ErrInvalidReminderTime)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour out of range", ErrInvalidReminderTime)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range", ErrInvalidReminderTime)
	}

	return hour, minute, nil
}

// ParseOffset extracts the whole-hour UTC offset from a fixed-offset timezone
// label such as "GMT+1", "UTC-3" or plain "GMT". Fractional-hour zones are
// not supported.
func ParseOffset(tz string) (int, error) {
	s := strings.TrimSpace(strings.ToUpper(tz))
	s = strings.TrimPrefix(s, "GMT")
	s = strings.TrimPrefix(s, "UTC")
	if s == "" {
		return 0, nil
	}

	if s[0] != '+' && s[0] != '-' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}

	hours, err := strconv.Atoi(s)
	if err != nil || hours < -12 || hours > 14 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}

	return hours, nil
}
