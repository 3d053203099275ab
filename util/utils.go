package util

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

var (
	rgxClock         = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	shortCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// IsClock reports whether value is a 24h HH:MM string.
func IsClock(value string) bool {
	return rgxClock.MatchString(value)
}

func GenerateVerificationCode() string {
	rand.Seed(time.Now().UnixNano())
	return fmt.Sprintf("%04d", rand.Intn(10000))
}

// GenerateShortCode produces an invite code from an unambiguous charset.
func GenerateShortCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = shortCodeCharset[rand.Intn(len(shortCodeCharset))]
	}
	return string(b)
}

// StrPtr returns a pointer to the given string, nil for the empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
