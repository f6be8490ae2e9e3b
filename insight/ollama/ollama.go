// Package ollama implements the local-model insight provider backed by
// a locally running Ollama server. It serves as the fallback when the
// remote provider is unavailable or unconfigured.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/metricmail-ai/metricmail/insight"
	"github.com/metricmail-ai/metricmail/retry"
)

var (
	DefaultModel    = "llama3.2"
	DefaultEndpoint = "http://localhost:11434"
	DefaultClient   = &http.Client{Timeout: 300 * time.Second}
)

var _ insight.Provider = &Provider{}

type Provider struct {
	endpoint  string
	model     string
	client    *http.Client
	retryOpts []retry.Option
}

func New(opts ...Option) *Provider {
	p := &Provider{
		endpoint: DefaultEndpoint,
		model:    DefaultModel,
		client:   DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "ollama"
}

type request struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options requestOptions `json:"options,omitempty"`
}

type requestOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

type response struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...insight.Option) (string, error) {
	cfg := insight.Config{}
	cfg.Apply(opts)

	body, err := json.Marshal(request{
		Model:   p.model,
		Prompt:  prompt,
		Stream:  false,
		Options: requestOptions{NumPredict: cfg.MaxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	var result response
	err = retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			strings.TrimSuffix(p.endpoint, "/")+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return retry.MarkPermanent(fmt.Errorf("create ollama request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("ollama request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read ollama response: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			// Model not pulled; retrying will not fix it.
			return retry.MarkPermanent(fmt.Errorf("ollama model %q not found: %s", p.model, strings.TrimSpace(string(data))))
		}
		if resp.StatusCode != http.StatusOK {
			return insight.NewAPIError(resp.StatusCode, string(data))
		}
		var out response
		if err := json.Unmarshal(data, &out); err != nil {
			return retry.MarkPermanent(fmt.Errorf("decode ollama response: %w", err))
		}
		if out.Error != "" {
			return retry.MarkPermanent(fmt.Errorf("ollama error: %s", out.Error))
		}
		result = out
		return nil
	}, p.retryOpts...)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(result.Response)
	if content == "" {
		return "", errors.New("empty response from ollama")
	}
	return content, nil
}
