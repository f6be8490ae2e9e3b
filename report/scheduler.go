package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// RunScheduled executes reporting runs on the configured cadence until
// the context is cancelled. A failed run is logged and the schedule
// keeps going.
func (r *Runner) RunScheduled(ctx context.Context) error {
	spec, err := cronSpec(r.cfg.Report.Frequency, r.cfg.Report.Time)
	if err != nil {
		return err
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(spec, func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule report: %w", err)
	}

	r.logger.Info("scheduler started",
		"frequency", r.cfg.Report.Frequency,
		"time", r.cfg.Report.Time,
		"cron", spec)

	scheduler.Start()
	<-ctx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		r.logger.Warn("timed out waiting for in-flight run to finish")
	}
	return ctx.Err()
}

// cronSpec translates a frequency and HH:MM wall time into a cron
// expression. Weekly runs fall on Monday, monthly runs on the 1st.
func cronSpec(frequency, at string) (string, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid report time %q: %w", at, err)
	}
	minute, hour := t.Minute(), t.Hour()

	switch strings.ToLower(frequency) {
	case "daily":
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case "weekly":
		return fmt.Sprintf("%d %d * * MON", minute, hour), nil
	case "monthly":
		return fmt.Sprintf("%d %d 1 * *", minute, hour), nil
	default:
		return "", fmt.Errorf("unsupported report frequency %q", frequency)
	}
}
