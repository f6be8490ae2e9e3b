// Package report orchestrates a full reporting run: load the dataset,
// compute KPIs, render charts, generate AI insights, and deliver the
// result by email or as a local HTML artifact.
package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	metricmail "github.com/metricmail-ai/metricmail"
	"github.com/metricmail-ai/metricmail/config"
	"github.com/metricmail-ai/metricmail/dataset"
	"github.com/metricmail-ai/metricmail/insight"
	"github.com/metricmail-ai/metricmail/insight/ollama"
	"github.com/metricmail-ai/metricmail/insight/openrouter"
	"github.com/metricmail-ai/metricmail/mailer"
	"github.com/metricmail-ai/metricmail/metrics"
	"github.com/metricmail-ai/metricmail/slogger"
)

// insightUnavailable is rendered when every provider fails. A broken AI
// backend degrades the report, it does not block delivery.
const insightUnavailable = "AI insights unavailable - please check AI configuration."

// Runner executes reporting runs against a fixed configuration.
type Runner struct {
	cfg      *config.Config
	logger   slogger.Logger
	provider insight.Provider
	dryRun   bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger slogger.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithProvider overrides the insight provider chosen from configuration.
func WithProvider(provider insight.Provider) Option {
	return func(r *Runner) {
		r.provider = provider
	}
}

// WithDryRun writes the rendered report to the output path instead of
// sending email. Charts are inlined as data URIs so the artifact is
// viewable offline.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// Summary describes a completed run.
type Summary struct {
	RunID      string
	Subject    string
	KPICount   int
	ChartCount int
	Artifact   string
	Recipients int
	Duration   time.Duration
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: slogger.DefaultLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.provider == nil {
		r.provider = newProvider(cfg, r.logger)
	}
	return r
}

// newProvider wires the insight providers from configuration. With an
// OpenRouter key the remote provider is primary and Ollama the fallback;
// without one, or when use_local is set, Ollama runs alone.
func newProvider(cfg *config.Config, logger slogger.Logger) insight.Provider {
	retryOpts := cfg.Retry.Options()
	local := ollama.New(
		ollama.WithEndpoint(cfg.AI.OllamaEndpoint),
		ollama.WithModel(cfg.AI.OllamaModel),
		ollama.WithRetryOptions(retryOpts...),
	)
	if cfg.AI.UseLocal || cfg.AI.APIKey == "" {
		return local
	}
	remote := openrouter.New(
		openrouter.WithAPIKey(cfg.AI.APIKey),
		openrouter.WithEndpoint(cfg.AI.Endpoint),
		openrouter.WithModel(cfg.AI.Model),
		openrouter.WithMaxTokens(cfg.AI.MaxTokens),
		openrouter.WithSiteURL(cfg.AI.SiteURL),
		openrouter.WithSiteName(cfg.AI.SiteName),
		openrouter.WithRetryOptions(retryOpts...),
	)
	return insight.NewFallback(remote, local, logger)
}

// Run executes one end-to-end reporting run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	runID := uuid.New().String()
	logger := r.logger.With("run_id", runID)

	logger.Info("starting report run",
		"data_path", r.cfg.Report.DataPath,
		"provider", r.provider.Name(),
		"dry_run", r.dryRun)

	ds, err := dataset.Load(r.cfg.Report.DataPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	first, last := ds.DateRange()
	logger.Info("dataset loaded",
		"rows", ds.Len(),
		"columns", ds.Names(),
		"from", first.Format("2006-01-02"),
		"to", last.Format("2006-01-02"))

	calc := metrics.New(ds)
	kpis := calc.KPIs()
	if len(kpis) == 0 {
		return nil, fmt.Errorf("no metrics could be calculated from %s", r.cfg.Report.DataPath)
	}

	charts, err := calc.Charts()
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}

	narrator := insight.NewNarrator(r.provider, logger)
	insights, err := narrator.Narrate(ctx, kpis)
	if err != nil {
		logger.Warn("insight generation failed, continuing without analysis", "error", err)
		insights = insightUnavailable
	}

	title := r.cfg.Report.Title
	if title == "" {
		title = fmt.Sprintf("Business Performance Report - %s", time.Now().Format("January 2, 2006"))
	}

	subject := title
	if insights != insightUnavailable {
		subject = narrator.Subject(ctx, title)
	}

	data := &mailer.TemplateData{
		Title:     title,
		KPIs:      kpis,
		Insights:  mailer.InsightsHTML(insights),
		Generated: time.Now().Format("2006-01-02 15:04:05"),
	}

	summary := &Summary{
		RunID:      runID,
		Subject:    subject,
		KPICount:   len(kpis),
		ChartCount: len(charts),
	}

	if r.dryRun {
		data.Charts = inlineCharts(charts)
		html, err := mailer.RenderHTML(data)
		if err != nil {
			return nil, err
		}
		if err := writeArtifact(r.cfg.Report.OutputPath, html); err != nil {
			return nil, err
		}
		summary.Artifact = r.cfg.Report.OutputPath
		summary.Duration = time.Since(started)
		logger.Info("report written", "path", summary.Artifact, "duration", summary.Duration)
		return summary, nil
	}

	images, embeds := embeddedCharts(charts)
	data.Charts = images
	html, err := mailer.RenderHTML(data)
	if err != nil {
		return nil, err
	}

	m, err := mailer.New(r.cfg.Email,
		mailer.WithLogger(logger),
		mailer.WithRetryOptions(r.cfg.Retry.Options()...))
	if err != nil {
		return nil, err
	}
	if err := m.Send(ctx, &mailer.Message{
		Subject:  subject,
		HTMLBody: html,
		Embeds:   embeds,
	}); err != nil {
		return nil, err
	}

	summary.Recipients = len(r.cfg.Email.Recipients)
	summary.Duration = time.Since(started)
	logger.Info("report delivered",
		"subject", subject,
		"recipients", summary.Recipients,
		"duration", summary.Duration)
	return summary, nil
}

// inlineCharts encodes chart PNGs as data URIs for standalone HTML.
func inlineCharts(charts []metricmail.Chart) []mailer.ChartImage {
	images := make([]mailer.ChartImage, 0, len(charts))
	for _, c := range charts {
		encoded := base64.StdEncoding.EncodeToString(c.PNG)
		images = append(images, mailer.ChartImage{
			Title: c.Title,
			Src:   template.URL("data:image/png;base64," + encoded),
		})
	}
	return images
}

// embeddedCharts references chart PNGs by Content-ID for email delivery.
func embeddedCharts(charts []metricmail.Chart) ([]mailer.ChartImage, []mailer.Embed) {
	images := make([]mailer.ChartImage, 0, len(charts))
	embeds := make([]mailer.Embed, 0, len(charts))
	for i, c := range charts {
		name := fmt.Sprintf("chart_%d.png", i)
		images = append(images, mailer.ChartImage{
			Title: c.Title,
			Src:   template.URL("cid:" + name),
		})
		embeds = append(embeds, mailer.Embed{Name: name, Data: c.PNG})
	}
	return images, embeds
}

func writeArtifact(path, html string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
