package insight

import (
	"context"

	"github.com/metricmail-ai/metricmail/slogger"
)

// Fallback chains two providers: the primary is tried first and the
// secondary takes over when it fails for any reason, including
// exhausted retries.
type Fallback struct {
	primary   Provider
	secondary Provider
	logger    slogger.Logger
}

var _ Provider = &Fallback{}

// NewFallback returns a provider that falls back from primary to secondary.
func NewFallback(primary, secondary Provider, logger slogger.Logger) *Fallback {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *Fallback) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	text, err := f.primary.Generate(ctx, prompt, opts...)
	if err == nil {
		return text, nil
	}
	f.logger.Warn("primary insight provider failed, falling back",
		"primary", f.primary.Name(),
		"fallback", f.secondary.Name(),
		"error", err)
	return f.secondary.Generate(ctx, prompt, opts...)
}
