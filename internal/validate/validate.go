// Package validate provides shared input validation for the HTTP API.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ValidationError describes a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiError collects multiple validation errors for a single request.
type MultiError struct {
	Errors []ValidationError
}

// Add appends a validation error. If err is nil, Add is a no-op.
func (m *MultiError) Add(err error) {
	if err == nil {
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		m.Errors = append(m.Errors, *ve)
	} else {
		m.Errors = append(m.Errors, ValidationError{Field: "request", Message: err.Error()})
	}
}

// HasErrors reports whether any errors have been collected.
func (m *MultiError) HasErrors() bool { return len(m.Errors) > 0 }

// Err returns m when it holds errors and nil otherwise.
func (m *MultiError) Err() error {
	if m.HasErrors() {
		return m
	}
	return nil
}

// Error returns a pipe-delimited summary of all errors.
func (m *MultiError) Error() string {
	parts := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, " | ")
}

// Fail builds a single-field validation error.
func Fail(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NonEmptyString validates that value is not empty or whitespace-only.
func NonEmptyString(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	return nil
}

// MinLength validates that the trimmed value contains at least min runes.
func MinLength(field, value string, min int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters", min)}
	}
	return nil
}

// MaxLength validates that value does not exceed max rune count.
func MaxLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must not exceed %d characters", max)}
	}
	return nil
}

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsEmail validates that value looks like an email address.
func IsEmail(field, value string) error {
	v := strings.TrimSpace(value)
	if len(v) > 254 || !emailRE.MatchString(v) {
		return &ValidationError{Field: field, Message: "must be a valid email address"}
	}
	return nil
}

var currencyRE = regexp.MustCompile(`^[A-Z]{3}$`)

// IsCurrencyCode validates that value is a three-letter ISO 4217 code.
func IsCurrencyCode(field, value string) error {
	if !currencyRE.MatchString(value) {
		return &ValidationError{Field: field, Message: "must be a three-letter currency code"}
	}
	return nil
}

// IntRange validates that value lies within [min, max].
func IntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max)}
	}
	return nil
}

// OneOf validates that value is among allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", "))}
}
