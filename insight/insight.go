// Package insight defines the AI text-generation providers used to
// narrate business metrics, and the narrator that turns KPIs into
// prompts and report content.
package insight

import (
	"context"
	"fmt"
	"net/http"

	"github.com/metricmail-ai/metricmail/retry"
)

// Provider generates text from a prompt. Implementations wrap their
// remote calls in retry.Do and classify fatal failures with
// retry.MarkPermanent.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// Option configures a single generation request.
type Option func(*Config)

// Config holds per-request generation settings.
type Config struct {
	MaxTokens int
}

// Apply applies the options to the config.
func (c *Config) Apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithMaxTokens caps the response length for one request.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// APIError is an error response from a model API.
type APIError struct {
	statusCode int
	body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.statusCode, e.body)
}

func (e *APIError) StatusCode() int {
	return e.statusCode
}

// NewAPIError creates an APIError. Status codes that retrying cannot fix
// (authentication, bad requests) are wrapped with retry.MarkPermanent.
func NewAPIError(statusCode int, body string) error {
	err := &APIError{statusCode: statusCode, body: body}
	if !shouldRetry(statusCode) {
		return retry.MarkPermanent(err)
	}
	return err
}

func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout,      // 504
		520: // Cloudflare
		return true
	}
	return false
}
