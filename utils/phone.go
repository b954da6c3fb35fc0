// utils/phone.go
package utils

import (
	"regexp"
	"strings"
)

// NormalizePhone reduces a phone number in any common local format to its
// last 10 digits. "0555 123 45 67", "555-123-4567" and "905551234567" all
// normalize to "5551234567". This is the cross-salon correlation key.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	// Allows + prefix followed by 7-15 digits
	regex := `^\+?[0-9]\d{6,14}$`
	match, _ := regexp.MatchString(regex, cleaned)
	return match
}
