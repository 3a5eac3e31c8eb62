// Package validation provides input validation for user-supplied account fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128

	minUsernameLength = 3
	maxUsernameLength = 30

	maxEmailLength      = 254
	maxEmailLocalLength = 64
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[a-zA-Z]{2,}$`)

// ValidatePassword enforces minimum password complexity: length bounds plus at
// least one uppercase letter, one lowercase letter, one digit, and one special
// character.
func ValidatePassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if length > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("password must contain uppercase, lowercase, digit, and special characters")
	}

	return nil
}

// ValidateUsername enforces username format: 3-30 characters, letters, digits,
// underscores, and hyphens, starting and ending with a letter or digit.
func ValidateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return fmt.Errorf("username must be %d-%d characters", minUsernameLength, maxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username may contain only letters, digits, underscores, and hyphens, and must start and end with a letter or digit")
	}
	return nil
}

// ValidateEmail enforces basic email format and RFC length limits.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	local := email[:strings.Index(email, "@")]
	if len(local) > maxEmailLocalLength {
		return fmt.Errorf("email local part must be at most %d characters", maxEmailLocalLength)
	}
	return nil
}
