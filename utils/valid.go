// utils/valid.go
package utils

import (
	"errors"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigits   = regexp.MustCompile(`[^\d]`)
)

// SanitizeInput sanitizes user input to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = scriptRegex.ReplaceAllString(input, "")
	input = html.EscapeString(input)

	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, input)
}

// SanitizeEmail lower-cases and validates an email address
func SanitizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

// SanitizePhone normalises an Indian mobile number to its 10 digits.
// Empty input is allowed; phone numbers are optional.
func SanitizePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", nil
	}
	digits := nonDigits.ReplaceAllString(phone, "")
	digits = strings.TrimPrefix(digits, "0")
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) != 10 {
		return "", errors.New("invalid phone number length")
	}
	return digits, nil
}

// ValidateFile validates upload size and image type
func ValidateFile(filename string, size int64) error {
	if size > maxFileSize {
		return errors.New("file too large")
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(filename))] {
		return errors.New("invalid file type")
	}
	return nil
}
