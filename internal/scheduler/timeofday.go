package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// HoursPerDay is the number of hourly grid rows.
	HoursPerDay = 24
	// MinutesPerDay bounds TimeOfDay; the value itself is only valid as a range end ("24:00").
	MinutesPerDay = HoursPerDay * 60
)

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}
	value := TimeOfDay(hour*60 + minute)
	if value > MinutesPerDay {
		return 0, fmt.Errorf("invalid time %02d:%02d", hour, minute)
	}
	return value, nil
}

// AtHour returns the TimeOfDay for the start of an hour.
func AtHour(hour int) TimeOfDay {
	return TimeOfDay(hour * 60)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS"; seconds are dropped.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", raw)
		}
	}
	return NewTimeOfDay(hour, minute)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component.
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return int(t)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeRange is a same-day window with Start < End.
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewTimeRange parses both bounds and validates the range.
func NewTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, err
	}
	r := TimeRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate checks ordering and day bounds.
func (r TimeRange) Validate() error {
	if r.Start < 0 || r.End > MinutesPerDay {
		return fmt.Errorf("time range %s-%s out of day bounds", r.Start, r.End)
	}
	if r.Start >= r.End {
		return fmt.Errorf("time range %s-%s must start before it ends", r.Start, r.End)
	}
	return nil
}

// Overlaps reports whether two ranges share any minute.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && other.Start < r.End
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
