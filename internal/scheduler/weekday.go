package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the numeric day-of-week index used for date arithmetic (Sunday=0 ... Saturday=6).
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DaysPerWeek is the number of grid columns.
const DaysPerWeek = 7

// DisplayOrder lists weekdays the way the grid renders them (Monday first).
var DisplayOrder = [DaysPerWeek]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = map[Weekday]string{
	Sunday:    "SUNDAY",
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
}

var weekdayLookup = map[string]Weekday{
	"SUNDAY":    Sunday,
	"SUN":       Sunday,
	"MONDAY":    Monday,
	"MON":       Monday,
	"TUESDAY":   Tuesday,
	"TUE":       Tuesday,
	"WEDNESDAY": Wednesday,
	"WED":       Wednesday,
	"THURSDAY":  Thursday,
	"THU":       Thursday,
	"FRIDAY":    Friday,
	"FRI":       Friday,
	"SATURDAY":  Saturday,
	"SAT":       Saturday,
}

// Valid reports whether d is one of the seven weekdays.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// DisplayIndex returns the Monday-first column index (Monday=0 ... Sunday=6).
func (d Weekday) DisplayIndex() int {
	return (int(d) + 6) % DaysPerWeek
}

// WeekdayAt returns the weekday rendered in the given display column.
func WeekdayAt(displayIndex int) (Weekday, bool) {
	if displayIndex < 0 || displayIndex >= DaysPerWeek {
		return 0, false
	}
	return DisplayOrder[displayIndex], true
}

// FromTime converts a time.Weekday.
func FromTime(d time.Weekday) Weekday {
	return Weekday(d)
}

// Time converts d into a time.Weekday.
func (d Weekday) Time() time.Weekday {
	return time.Weekday(d)
}

func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

// ParseWeekday accepts full or three-letter names in any case.
func ParseWeekday(raw string) (Weekday, error) {
	day, ok := weekdayLookup[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", raw)
	}
	return day, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
