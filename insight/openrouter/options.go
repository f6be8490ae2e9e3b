package openrouter

import (
	"net/http"

	"github.com/metricmail-ai/metricmail/retry"
)

// Option is a function that configures the Provider
type Option func(*Provider)

// WithAPIKey sets the API key for the provider
func WithAPIKey(apiKey string) Option {
	return func(p *Provider) {
		p.apiKey = apiKey
	}
}

// WithEndpoint sets the API endpoint URL for the provider
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

// WithMaxTokens sets the default maximum number of tokens to generate
func WithMaxTokens(maxTokens int) Option {
	return func(p *Provider) {
		p.maxTokens = maxTokens
	}
}

// WithClient sets the HTTP client used for all API requests
func WithClient(client *http.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithSiteURL sets the HTTP-Referer header sent to OpenRouter
func WithSiteURL(siteURL string) Option {
	return func(p *Provider) {
		p.siteURL = siteURL
	}
}

// WithSiteName sets the X-Title header sent to OpenRouter
func WithSiteName(siteName string) Option {
	return func(p *Provider) {
		p.siteName = siteName
	}
}

// WithRetryOptions sets the retry policy used for API calls
func WithRetryOptions(opts ...retry.Option) Option {
	return func(p *Provider) {
		p.retryOpts = opts
	}
}
