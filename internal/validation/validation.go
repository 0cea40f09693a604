// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxPasswordLength = 128
	maxContentLength  = 5000
	maxStepSizeLength = 32
)

// DeletedUsername is shown in place of an author whose account no longer exists.
const DeletedUsername = "DELETED_USER"

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	colorRegex    = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20})$`)
)

// ValidatePassword checks if a password is acceptable for storage.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}
	if strings.TrimSpace(password) != password {
		return fmt.Errorf("password must not start or end with whitespace")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	// Cannot start or end with underscore/hyphen
	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}

	if strings.EqualFold(username, DeletedUsername) {
		return fmt.Errorf("username %q is reserved", username)
	}

	return nil
}

// ValidateContent bounds post and comment text. Empty text is allowed when allowEmpty is set,
// which posts use because a photo alone is a valid post.
func ValidateContent(content string, allowEmpty bool) error {
	if !allowEmpty && strings.TrimSpace(content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return fmt.Errorf("content must not exceed %d characters", maxContentLength)
	}
	return nil
}

// ValidateBackgroundColor accepts hex colors and CSS color keywords. Empty means default.
func ValidateBackgroundColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return fmt.Errorf("invalid background color %q", color)
	}
	return nil
}

// ValidateStepSize bounds the free-form step size preference.
func ValidateStepSize(stepSize string) error {
	if len(stepSize) > maxStepSizeLength {
		return fmt.Errorf("step size must not exceed %d characters", maxStepSizeLength)
	}
	return nil
}
