package util

import (
	"strings"
	"testing"
)

func TestIsClock(t *testing.T) {
	valid := []string{"00:00", "09:30", "15:04", "23:59"}
	for _, v := range valid {
		if !IsClock(v) {
			t.Errorf("IsClock(%q) = false, want true", v)
		}
	}

	invalid := []string{"", "24:00", "9:30", "12:60", "12h30", "12:30:00", "noon"}
	for _, v := range invalid {
		if IsClock(v) {
			t.Errorf("IsClock(%q) = true, want false", v)
		}
	}
}

func TestGenerateShortCode(t *testing.T) {
	code := GenerateShortCode(8)
	if len(code) != 8 {
		t.Fatalf("len = %d, want 8", len(code))
	}
	for _, c := range code {
		if !strings.ContainsRune(shortCodeCharset, c) {
			t.Errorf("unexpected character %q in code %q", c, code)
		}
	}
}

func TestValidateStructClockTag(t *testing.T) {
	type payload struct {
		DueTime string `validate:"required,hhmm"`
	}

	if err := ValidateStruct(payload{DueTime: "14:30"}); err != nil {
		t.Errorf("valid clock rejected: %v", err)
	}
	if err := ValidateStruct(payload{DueTime: "25:99"}); err == nil {
		t.Error("invalid clock accepted")
	}
}

func TestValidateStructWeekdayTag(t *testing.T) {
	type payload struct {
		Day string `validate:"required,weekday"`
	}

	for _, day := range []string{"monday", "Lundi", "SUNDAY"} {
		if err := ValidateStruct(payload{Day: day}); err != nil {
			t.Errorf("weekday %q rejected: %v", day, err)
		}
	}
	if err := ValidateStruct(payload{Day: "someday"}); err == nil {
		t.Error("invalid weekday accepted")
	}
}
