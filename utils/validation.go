// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
	phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ValidatePhone accepts E.164-style numbers, ignoring common separators.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phoneCleaner.Replace(phone))
}

// ValidClock reports whether s is a zero-padded 24h "HH:MM" time.
func ValidClock(s string) bool {
	return clockPattern.MatchString(s)
}
