package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metricmail-ai/metricmail/retry"
)

func newTestProvider(url string) *Provider {
	return New(
		WithEndpoint(url),
		WithModel("test-model"),
		WithRetryOptions(retry.WithMaxAttempts(3), retry.WithBaseWait(time.Millisecond)),
	)
}

func TestGenerate(t *testing.T) {
	var gotPath string
	var gotBody request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(response{Response: " Numbers look healthy. "})
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	text, err := p.Generate(context.Background(), "analyze")
	require.NoError(t, err)
	assert.Equal(t, "Numbers look healthy.", text)
	assert.Equal(t, "/api/generate", gotPath)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.Equal(t, "analyze", gotBody.Prompt)
	assert.False(t, gotBody.Stream)
}

func TestGenerateModelNotFoundIsFatal(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'test-model' not found"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Generate(context.Background(), "analyze")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, retry.IsPermanent(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(response{Response: "ok now"})
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	text, err := p.Generate(context.Background(), "analyze")
	require.NoError(t, err)
	assert.Equal(t, "ok now", text)
	assert.Equal(t, 2, calls)
}

func TestGenerateEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(response{Response: "   "})
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	_, err := p.Generate(context.Background(), "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
