// Package metricmail provides automated business reporting: it reads
// tabular CSV data, computes KPIs (revenue, sales, customer counts,
// growth rates, moving averages), renders an HTML email with embedded
// trend charts and an AI-generated narrative, and sends it via SMTP on
// demand or on a schedule.
//
// The root package holds the shared report model:
//
//   - [KPI] is a single computed business metric with display formatting.
//   - [Chart] is a rendered PNG trend chart for one metric column.
//
// Subpackages:
//
//   - retry: exponential-backoff retry executor wrapping flaky remote calls
//   - dataset: CSV loading and validation
//   - metrics: KPI calculation and chart rendering
//   - insight: AI narrative providers (OpenRouter with local Ollama fallback)
//   - mailer: HTML rendering and SMTP dispatch
//   - report: the orchestrator and scheduler
package metricmail
