package enrollment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength = 2
	maxNameLength = 100
	mobileDigits  = 10
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateName(name string) error {
	if name == "" {
		return NewInvalidNameError("Name is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		return NewInvalidNameError("Name must be at least 2 characters long")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return NewInvalidNameError("Name must be less than 100 characters")
	}
	return nil
}

// ValidateEmail checks the trimmed address against a local@domain.tld shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return NewInvalidEmailError("Please provide a valid email address")
	}
	return nil
}

func ValidateMobile(mobile string) error {
	if len(DigitsOnly(mobile)) != mobileDigits {
		return NewInvalidMobileError("Please provide a valid 10-digit mobile number")
	}
	return nil
}

// DigitsOnly strips every character outside 0-9.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
