package utils

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// PhonePrefix is the Kenyan country code every phone number must carry.
	PhonePrefix = "+254"
	// PhoneLength is the full length of a valid number, prefix included.
	PhoneLength = len(PhonePrefix) + 9
)

var (
	ErrPhonePrefix = errors.New("Phone number must start with +254")
	ErrPhoneLength = errors.New("Phone number should be 13 digits (+254XXXXXXXXX)")
	ErrPhoneDigits = errors.New("Please enter valid digits after +254")
)

var (
	emailRegex       = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneDigitsRegex = regexp.MustCompile(`^\d{9}$`)
	nonDigitRegex    = regexp.MustCompile(`\D`)
)

// MinPasswordLength is inclusive.
const MinPasswordLength = 6

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword checks the minimum length only; the mobile app never enforced character classes.
func ValidatePassword(password string) bool {
	return len(password) >= MinPasswordLength
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckPhone reports why phone is not a +254XXXXXXXXX number, or nil.
func CheckPhone(phone string) error {
	cleaned := strings.ReplaceAll(phone, " ", "")
	if !strings.HasPrefix(cleaned, PhonePrefix) {
		return ErrPhonePrefix
	}
	if len(cleaned) != PhoneLength {
		return ErrPhoneLength
	}
	if !phoneDigitsRegex.MatchString(cleaned[len(PhonePrefix):]) {
		return ErrPhoneDigits
	}
	return nil
}

// SanitizePhoneInput normalises keystrokes into the +254 form: the prefix is
// restored if removed, anything that is not a digit after it is dropped, and
// the result never grows past PhoneLength.
func SanitizePhoneInput(text string) string {
	if !strings.HasPrefix(text, PhonePrefix) {
		return PhonePrefix
	}
	digits := nonDigitRegex.ReplaceAllString(text[len(PhonePrefix):], "")
	out := PhonePrefix + digits
	if len(out) > PhoneLength {
		out = out[:PhoneLength]
	}
	return out
}
