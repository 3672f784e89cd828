// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
	"time"
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

// ValidDay checks a calendar-day filter value ("2006-01-02").
func ValidDay(day string) bool {
	_, err := time.Parse("2006-01-02", day)
	return err == nil
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}
