// Package openrouter implements the remote insight provider backed by
// the OpenRouter chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/metricmail-ai/metricmail/insight"
	"github.com/metricmail-ai/metricmail/retry"
)

var (
	DefaultModel     = "deepseek/deepseek-r1-0528:free"
	DefaultEndpoint  = "https://openrouter.ai/api/v1/chat/completions"
	DefaultMaxTokens = 150
	DefaultClient    = &http.Client{Timeout: 120 * time.Second}
)

var _ insight.Provider = &Provider{}

type Provider struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	client    *http.Client
	siteURL   string
	siteName  string
	retryOpts []retry.Option
}

func New(opts ...Option) *Provider {
	p := &Provider{
		apiKey:    os.Getenv("OPENROUTER_API_KEY"),
		endpoint:  DefaultEndpoint,
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
		client:    DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "openrouter"
}

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type response struct {
	Choices []choice       `json:"choices"`
	Error   *responseError `json:"error,omitempty"`
}

type choice struct {
	Message message `json:"message"`
}

// responseError is an error embedded in a 200 response body, which
// OpenRouter emits for some upstream failures.
type responseError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...insight.Option) (string, error) {
	if p.apiKey == "" {
		return "", retry.MarkPermanent(errors.New("openrouter api key is not set"))
	}
	cfg := insight.Config{MaxTokens: p.maxTokens}
	cfg.Apply(opts)

	body, err := json.Marshal(request{
		Model:     p.model,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal openrouter request: %w", err)
	}

	var result response
	err = retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
		if err != nil {
			return retry.MarkPermanent(fmt.Errorf("create openrouter request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		req.Header.Set("Content-Type", "application/json")
		if p.siteURL != "" {
			req.Header.Set("HTTP-Referer", p.siteURL)
		}
		if p.siteName != "" {
			req.Header.Set("X-Title", p.siteName)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("openrouter request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read openrouter response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return insight.NewAPIError(resp.StatusCode, string(data))
		}
		var out response
		if err := json.Unmarshal(data, &out); err != nil {
			return retry.MarkPermanent(fmt.Errorf("decode openrouter response: %w", err))
		}
		if out.Error != nil {
			return insight.NewAPIError(out.Error.Code, out.Error.Message)
		}
		result = out
		return nil
	}, p.retryOpts...)
	if err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", errors.New("empty response from openrouter")
	}
	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("no content in openrouter response")
	}
	return content, nil
}
