package availability

import (
	"testing"
	"time"
)

func TestIsAvailableSameDayRange(t *testing.T) {
	days := []DaySlots{
		{Day: time.Monday, Slots: []Slot{{Start: "09:00", End: "17:00"}}},
	}

	cases := []struct {
		name  string
		day   time.Weekday
		clock string
		want  bool
	}{
		{"inside", time.Monday, "12:00", true},
		{"at start", time.Monday, "09:00", true},
		{"at end", time.Monday, "17:00", true},
		{"before", time.Monday, "08:59", false},
		{"after", time.Monday, "17:01", false},
		{"wrong day", time.Tuesday, "12:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAvailable(days, tc.day, tc.clock); got != tc.want {
				t.Errorf("IsAvailable(%v, %s) = %v, want %v", tc.day, tc.clock, got, tc.want)
			}
		})
	}
}

func TestIsAvailableOvernightWrap(t *testing.T) {
	days := []DaySlots{
		{Day: time.Friday, Slots: []Slot{{Start: "22:00", End: "06:00"}}},
	}

	cases := []struct {
		clock string
		want  bool
	}{
		{"23:30", true},
		{"02:00", true},
		{"22:00", true},
		{"06:00", true},
		{"12:00", false},
		{"21:59", false},
	}

	for _, tc := range cases {
		t.Run(tc.clock, func(t *testing.T) {
			if got := IsAvailable(days, time.Friday, tc.clock); got != tc.want {
				t.Errorf("IsAvailable(Friday, %s) = %v, want %v", tc.clock, got, tc.want)
			}
		})
	}
}

func TestIsAvailableNoSlotsForDay(t *testing.T) {
	days := []DaySlots{
		{Day: time.Monday, Slots: []Slot{{Start: "09:00", End: "17:00"}}},
	}
	if IsAvailable(days, time.Sunday, "12:00") {
		t.Error("expected not available on a day with no declared slots")
	}
	if IsAvailable(nil, time.Monday, "12:00") {
		t.Error("expected not available with no availability records at all")
	}
}

func TestIsAvailableMalformedSlot(t *testing.T) {
	days := []DaySlots{
		{Day: time.Monday, Slots: []Slot{
			{Start: "garbage", End: "17:00"},
			{Start: "14:00", End: "16:00"},
		}},
	}
	// The malformed slot is skipped, the valid one still evaluated.
	if !IsAvailable(days, time.Monday, "15:00") {
		t.Error("valid slot should match despite a malformed sibling")
	}
	if IsAvailable(days, time.Monday, "10:00") {
		t.Error("malformed slot must never match")
	}
}

func TestUnmarshalSlots(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []Slot
	}{
		{"string form", `"09:00 - 12:30"`, []Slot{{Start: "09:00", End: "12:30"}}},
		{"string no spaces", `"22:00-06:00"`, []Slot{{Start: "22:00", End: "06:00"}}},
		{"list form", `[{"start":"08:00","end":"10:00"},{"start":"14:00","end":"18:00"}]`,
			[]Slot{{Start: "08:00", End: "10:00"}, {Start: "14:00", End: "18:00"}}},
		{"list drops malformed", `[{"start":"08:00","end":"oops"},{"start":"14:00","end":"18:00"}]`,
			[]Slot{{Start: "14:00", End: "18:00"}}},
		{"garbage", `{"nope":true}`, nil},
		{"empty", ``, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UnmarshalSlots([]byte(tc.raw))
			if len(got) != len(tc.want) {
				t.Fatalf("UnmarshalSlots(%s) = %v, want %v", tc.raw, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("slot %d = %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	cases := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"monday", time.Monday, true},
		{"Lundi", time.Monday, true},
		{" DIMANCHE ", time.Sunday, true},
		{"saturday", time.Saturday, true},
		{"funday", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParseWeekday(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
