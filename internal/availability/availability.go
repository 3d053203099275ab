package availability

import (
	"encoding/json"
	"strings"
	"time"
)

// Slot is one declared availability window at minute granularity. Start after
// End means the window wraps past midnight (22:00 - 06:00).
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DaySlots groups a member's slots for one weekday within one circle.
// Weekdays are kept as time.Weekday internally; localized day names are
// converted once at the boundary and never compared as strings.
type DaySlots struct {
	Day   time.Weekday `json:"day"`
	Slots []Slot       `json:"slots"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	// French day names from the mobile clients
	"dimanche": time.Sunday,
	"lundi":    time.Monday,
	"mardi":    time.Tuesday,
	"mercredi": time.Wednesday,
	"jeudi":    time.Thursday,
	"vendredi": time.Friday,
	"samedi":   time.Saturday,
}

// ParseWeekday maps an English or French day name to a time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return day, ok
}

// parseClock converts "HH:MM" to minutes since midnight. Returns -1 when the
// value is malformed; callers treat that as "no match" rather than an error.
func parseClock(s string) int {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return -1
	}
	h, m := atoi(parts[0]), atoi(parts[1])
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

func atoi(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// ParseRange normalizes a "HH:MM - HH:MM" string into a Slot. The separator
// may be "-" with or without surrounding spaces.
func ParseRange(s string) (Slot, bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Slot{}, false
	}
	slot := Slot{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}
	if parseClock(slot.Start) < 0 || parseClock(slot.End) < 0 {
		return Slot{}, false
	}
	return slot, true
}

// UnmarshalSlots decodes the stored slot payload for one day. Historical rows
// hold either a single "HH:MM - HH:MM" string or a list of {start,end}
// objects; the format sniffing happens here, once, at the store-read boundary.
// Malformed payloads yield an empty slice, never an error.
func UnmarshalSlots(raw []byte) []Slot {
	if len(raw) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if slot, ok := ParseRange(asString); ok {
			return []Slot{slot}
		}
		return nil
	}

	var asList []Slot
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil
	}

	out := asList[:0]
	for _, s := range asList {
		if parseClock(s.Start) >= 0 && parseClock(s.End) >= 0 {
			out = append(out, s)
		}
	}
	return out
}

// matches reports whether clock (minutes since midnight) falls inside slot.
// A wrapped slot (end < start) spans two calendar days.
func matches(slot Slot, clock int) bool {
	start, end := parseClock(slot.Start), parseClock(slot.End)
	if start < 0 || end < 0 || clock < 0 {
		return false
	}
	if end >= start {
		return clock >= start && clock <= end
	}
	return clock >= start || clock <= end
}

// IsAvailable reports whether any declared slot for the given weekday covers
// the "HH:MM" probe time. No slots for the day means not available.
func IsAvailable(days []DaySlots, day time.Weekday, clock string) bool {
	probe := parseClock(clock)
	if probe < 0 {
		return false
	}
	for _, d := range days {
		if d.Day != day {
			continue
		}
		for _, slot := range d.Slots {
			if matches(slot, probe) {
				return true
			}
		}
	}
	return false
}

// IsAvailableAt is the time.Time convenience form used by the resolver.
func IsAvailableAt(days []DaySlots, at time.Time) bool {
	return IsAvailable(days, at.Weekday(), at.Format("15:04"))
}
