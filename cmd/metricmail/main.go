package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/fatih/color"

	"github.com/metricmail-ai/metricmail/config"
	"github.com/metricmail-ai/metricmail/report"
	"github.com/metricmail-ai/metricmail/slogger"
)

var version = "0.1.0"

var (
	successStyle = color.New(color.FgGreen, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	infoStyle    = color.New(color.FgCyan)
)

func main() {
	app := cli.New("metricmail").
		Description("Automated business reports: CSV metrics, charts, and AI insights by email").
		Version(version)

	app.Main().
		Flags(
			cli.String("config", "c").
				Default("").
				Env("METRICMAIL_CONFIG").
				Help("Path to YAML configuration file"),
			cli.String("csv", "").
				Default("").
				Env("REPORT_DATA_PATH").
				Help("Override the CSV data source"),
			cli.String("output", "o").
				Default("").
				Help("Override the dry-run output path"),
			cli.Bool("dry-run", "").
				Default(false).
				Help("Render the report to a local HTML file instead of sending email"),
			cli.Bool("schedule", "").
				Default(false).
				Help("Run on the configured schedule until interrupted"),
			cli.String("log-level", "").
				Default("").
				Env("LOG_LEVEL").
				Help("Log level (debug, info, warn, error)"),
		).
		Run(run)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		errorStyle.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}
	if csv := cctx.String("csv"); csv != "" {
		cfg.Report.DataPath = csv
	}
	if out := cctx.String("output"); out != "" {
		cfg.Report.OutputPath = out
	}
	if level := cctx.String("log-level"); level != "" {
		cfg.Log.Level = level
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := report.NewRunner(cfg,
		report.WithLogger(logger),
		report.WithDryRun(cctx.Bool("dry-run")))

	if cctx.Bool("schedule") {
		infoStyle.Printf("Scheduling %s reports at %s. Press Ctrl+C to stop.\n",
			cfg.Report.Frequency, cfg.Report.Time)
		if err := runner.RunScheduled(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		fmt.Println("Scheduler stopped.")
		return nil
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if summary.Artifact != "" {
		successStyle.Printf("Report written to %s", summary.Artifact)
	} else {
		successStyle.Printf("Report sent to %d recipient(s)", summary.Recipients)
	}
	fmt.Printf(" (%d KPIs, %d charts, %s)\n",
		summary.KPICount, summary.ChartCount, summary.Duration.Round(time.Millisecond))
	return nil
}

func buildLogger(cfg config.Log) (slogger.Logger, error) {
	level := slogger.LevelFromString(cfg.Level)
	if cfg.ToFile {
		return slogger.NewFileLogger(level, cfg.Dir)
	}
	return slogger.New(level), nil
}
