// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"warbler/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks the shape of a non-empty username. An empty username
// is left to the NOT NULL/CHECK constraints so it surfaces as an integrity error.
func ValidateUsername(username string) error {
	if username == "" {
		return nil
	}
	if utf8.RuneCountInString(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, dots, underscores, and hyphens")
	}
	return nil
}

// ValidateEmail checks basic email format of a non-empty address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateImageURL accepts an empty value, a site-relative path or an http(s) URL.
func ValidateImageURL(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("image URL must be an http(s) URL")
	}
	return nil
}

// ValidateMessageText requires 1 to models.MaxMessageLength characters of
// non-blank text.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text can't be empty")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return fmt.Errorf("message text must not exceed %d characters", models.MaxMessageLength)
	}
	return nil
}
