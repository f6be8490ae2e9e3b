// Package validate checks the shapes of inputs at system boundaries:
// email addresses, CSV schemas, and configuration values. Validation
// failures are fatal and are never passed through the retry executor.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// Error indicates input that failed validation.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Errorf builds a validation error.
func Errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email checks that addr is a plausible email address. It requires both
// a parseable address and a conventional local@domain.tld shape.
func Email(addr string) error {
	if _, err := mail.ParseAddress(addr); err != nil {
		return Errorf("invalid email address %q: %v", addr, err)
	}
	if !emailPattern.MatchString(addr) {
		return Errorf("invalid email format: %s", addr)
	}
	return nil
}

// EmailList trims and validates each address. It rejects empty lists and
// returns the cleaned addresses.
func EmailList(addrs []string) ([]string, error) {
	if len(addrs) == 0 {
		return nil, Errorf("email list cannot be empty")
	}
	valid := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if err := Email(addr); err != nil {
			return nil, err
		}
		valid = append(valid, addr)
	}
	return valid, nil
}

// Result reports the outcome of a schema check.
type Result struct {
	OK      bool
	Missing []string
	Reason  string
}

// Columns checks that every required column is present.
func Columns(have []string, required []string) Result {
	present := make(map[string]bool, len(have))
	for _, col := range have {
		present[col] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Result{
			Missing: missing,
			Reason:  fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}
	return Result{OK: true}
}

var placeholderPatterns = []string{
	"your-email",
	"your-password",
	"your-api-key",
	"example.com",
	"placeholder",
	"changeme",
}

// NoPlaceholders rejects configuration values that still contain
// template placeholders instead of real credentials.
func NoPlaceholders(key, value string) error {
	lower := strings.ToLower(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(lower, pattern) {
			return Errorf("configuration %q contains placeholder value; set real credentials", key)
		}
	}
	return nil
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// SanitizeHTML escapes text for safe insertion into an HTML document.
func SanitizeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
