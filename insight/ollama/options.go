package ollama

import (
	"net/http"

	"github.com/metricmail-ai/metricmail/retry"
)

// Option is a function that configures the Provider
type Option func(*Provider)

// WithEndpoint sets the base URL of the Ollama server
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// WithModel sets the model name to use for the provider
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithClient sets the HTTP client used for all API requests
func WithClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithRetryOptions sets the retry policy used for API calls
func WithRetryOptions(opts ...retry.Option) Option {
	return func(p *Provider) {
		p.retryOpts = opts
	}
}
