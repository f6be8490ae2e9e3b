// Package config defines the explicit configuration for metricmail.
// Settings are resolved in order: built-in defaults, then an optional
// YAML file, then environment variables. The resulting Config is built
// once and passed by reference; nothing deeper in the call tree reads
// from the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/metricmail-ai/metricmail/retry"
	"github.com/metricmail-ai/metricmail/validate"
)

type Config struct {
	Email  Email  `yaml:"email"`
	Report Report `yaml:"report"`
	AI     AI     `yaml:"ai"`
	Retry  Retry  `yaml:"retry"`
	Log    Log    `yaml:"log"`
}

// Email holds SMTP credentials and recipients.
type Email struct {
	Sender     string   `yaml:"sender"`
	Password   string   `yaml:"password"`
	SMTPHost   string   `yaml:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port"`
	Recipients []string `yaml:"recipients"`
}

// Report holds the data source, schedule, and output artifact settings.
type Report struct {
	Title      string `yaml:"title"`
	Frequency  string `yaml:"frequency"` // daily, weekly, or monthly
	Time       string `yaml:"time"`      // HH:MM, 24-hour
	DataPath   string `yaml:"data_path"`
	OutputPath string `yaml:"output_path"`
}

// AI selects and tunes the insight providers. When UseLocal is set or no
// API key is present, only the local Ollama provider is used; otherwise
// OpenRouter is primary with Ollama as fallback.
type AI struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	Endpoint       string `yaml:"endpoint"`
	SiteURL        string `yaml:"site_url"`
	SiteName       string `yaml:"site_name"`
	OllamaModel    string `yaml:"ollama_model"`
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	UseLocal       bool   `yaml:"use_local"`
}

// Retry tunes the shared backoff policy used for all remote calls.
// Delays are in seconds.
type Retry struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelay   float64 `yaml:"base_delay"`
	MaxDelay    float64 `yaml:"max_delay"`
}

// Options translates the policy into retry executor options.
func (r Retry) Options() []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(r.MaxAttempts),
		retry.WithBaseWait(time.Duration(r.BaseDelay * float64(time.Second))),
		retry.WithMaxWait(time.Duration(r.MaxDelay * float64(time.Second))),
	}
}

// Log configures the logging level and destination.
type Log struct {
	Level  string `yaml:"level"`
	ToFile bool   `yaml:"to_file"`
	Dir    string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Email: Email{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
		Report: Report{
			Frequency:  "daily",
			Time:       "09:00",
			DataPath:   "data/sample_data.csv",
			OutputPath: "output/report.html",
		},
		AI: AI{
			Model:          "deepseek/deepseek-r1-0528:free",
			MaxTokens:      150,
			Endpoint:       "https://openrouter.ai/api/v1/chat/completions",
			SiteURL:        "http://localhost",
			SiteName:       "MetricMail",
			OllamaModel:    "llama3.2",
			OllamaEndpoint: "http://localhost:11434",
		},
		Retry: Retry{
			MaxAttempts: 3,
			BaseDelay:   1.0,
			MaxDelay:    60.0,
		},
		Log: Log{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables, then validates it. A .env file in the
// working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envString("EMAIL_SENDER", &c.Email.Sender)
	envString("EMAIL_PASSWORD", &c.Email.Password)
	envString("SMTP_SERVER", &c.Email.SMTPHost)
	envInt("SMTP_PORT", &c.Email.SMTPPort)
	if v := os.Getenv("EMAIL_RECIPIENTS"); v != "" {
		c.Email.Recipients = splitList(v)
	}

	envString("REPORT_TITLE", &c.Report.Title)
	envString("REPORT_FREQUENCY", &c.Report.Frequency)
	envString("REPORT_TIME", &c.Report.Time)
	envString("DATA_SOURCE_PATH", &c.Report.DataPath)
	envString("REPORT_OUTPUT", &c.Report.OutputPath)

	envString("OPENROUTER_API_KEY", &c.AI.APIKey)
	envString("OPENROUTER_MODEL", &c.AI.Model)
	envInt("OPENROUTER_MAX_TOKENS", &c.AI.MaxTokens)
	envString("OPENROUTER_ENDPOINT", &c.AI.Endpoint)
	envString("SITE_URL", &c.AI.SiteURL)
	envString("SITE_NAME", &c.AI.SiteName)
	envString("OLLAMA_MODEL", &c.AI.OllamaModel)
	envString("OLLAMA_ENDPOINT", &c.AI.OllamaEndpoint)
	envBool("USE_LOCAL_MODEL", &c.AI.UseLocal)

	envInt("MAX_RETRIES", &c.Retry.MaxAttempts)
	envFloat("RETRY_BASE_DELAY", &c.Retry.BaseDelay)
	envFloat("RETRY_MAX_DELAY", &c.Retry.MaxDelay)

	envString("LOG_LEVEL", &c.Log.Level)
	envBool("LOG_TO_FILE", &c.Log.ToFile)
	envString("LOG_DIR", &c.Log.Dir)
}

// Validate checks invariants that apply regardless of run mode. SMTP
// credentials are checked later, by the mailer, so dry runs work without
// them.
func (c *Config) Validate() error {
	switch c.Report.Frequency {
	case "daily", "weekly", "monthly":
	default:
		return validate.Errorf("report frequency must be daily, weekly, or monthly, got %q", c.Report.Frequency)
	}
	if _, err := time.Parse("15:04", c.Report.Time); err != nil {
		return validate.Errorf("report time must be HH:MM (24-hour), got %q", c.Report.Time)
	}
	if c.Report.DataPath == "" {
		return validate.Errorf("report data path is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return validate.Errorf("retry max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 {
		return validate.Errorf("retry base_delay must be positive, got %g", c.Retry.BaseDelay)
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return validate.Errorf("retry max_delay (%g) must be at least base_delay (%g)", c.Retry.MaxDelay, c.Retry.BaseDelay)
	}
	for key, value := range map[string]string{
		"email.sender": c.Email.Sender,
		"ai.api_key":   c.AI.APIKey,
	} {
		if value == "" {
			continue
		}
		if err := validate.NoPlaceholders(key, value); err != nil {
			return err
		}
	}
	if len(c.Email.Recipients) > 0 {
		cleaned, err := validate.EmailList(c.Email.Recipients)
		if err != nil {
			return err
		}
		c.Email.Recipients = cleaned
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			*dst = true
		case "0", "false", "no":
			*dst = false
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
