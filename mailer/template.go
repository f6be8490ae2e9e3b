package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/metricmail-ai/metricmail"
	"github.com/metricmail-ai/metricmail/validate"
)

// ChartImage is a chart reference in the rendered document. Src is a
// cid: URL when mailing and a data: URI when writing a local artifact;
// both schemes require template.URL to survive URL sanitization.
type ChartImage struct {
	Title string
	Src   template.URL
}

// TemplateData feeds the report template.
type TemplateData struct {
	Title     string
	KPIs      []metricmail.KPI
	Insights  template.HTML
	Charts    []ChartImage
	Generated string
}

// RenderHTML renders the full report document.
func RenderHTML(data *TemplateData) (string, error) {
	var b strings.Builder
	if err := reportTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render report template: %w", err)
	}
	return b.String(), nil
}

// InsightsHTML escapes AI-generated text and preserves its line breaks.
func InsightsHTML(text string) template.HTML {
	escaped := validate.SanitizeHTML(strings.TrimSpace(text))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

const reportHTML = `<html>
	<head>
		<meta name="viewport" content="width=device-width, initial-scale=1" />
		<style>
			body {
				font-family: 'Segoe UI', Arial, sans-serif;
				line-height: 1.6;
				color: #2c3e50;
				margin: 0;
				padding: 20px;
				background: #f8fafc;
			}
			.container {
				max-width: 800px;
				margin: auto;
				background: #fff;
				border-radius: 12px;
				overflow: hidden;
				box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
			}
			.header {
				background: linear-gradient(135deg, #2E86C1 0%, #3498db 100%);
				color: white;
				padding: 25px 20px;
				text-align: center;
			}
			.header h2 {
				margin: 0;
				font-size: 24px;
				font-weight: 600;
			}
			.content {
				padding: 30px;
			}
			.kpi-grid {
				display: grid;
				grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
				gap: 20px;
				margin: 25px 0;
			}
			.kpi-card {
				background: #f8fafc;
				padding: 20px;
				border-radius: 8px;
				text-align: center;
				border: 1px solid #e1e8ed;
			}
			.kpi-card h3 {
				margin: 0;
				font-size: 14px;
				color: #64748b;
				font-weight: 500;
			}
			.kpi-card p {
				margin: 10px 0 0 0;
				font-size: 20px;
				font-weight: 600;
			}
			.insights {
				background: #e3f2fd;
				padding: 20px;
				border-radius: 8px;
				border-left: 4px solid #2E86C1;
				margin: 20px 0;
			}
			.chart-container {
				margin: 25px 0;
				padding: 15px;
				background: #fff;
				border-radius: 8px;
				border: 1px solid #e1e8ed;
				text-align: center;
			}
			.chart-container img {
				max-width: 100%;
				height: auto;
				border-radius: 8px;
			}
			.footer {
				text-align: center;
				padding: 20px;
				font-size: 13px;
				color: #64748b;
				background: #f8fafc;
				border-top: 1px solid #e2e8f0;
			}
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h2>{{.Title}}</h2>
			</div>
			<div class="content">
				<h3>Performance Metrics</h3>
				<div class="kpi-grid">
{{- range .KPIs}}
					<div class="kpi-card">
						<h3>{{.Label}}</h3>
						<p style="color: {{.Color}}">{{.Display}}</p>
					</div>
{{- end}}
				</div>
{{- if .Insights}}
				<div class="insights">
					<h3>AI-Generated Insights</h3>
					<p>{{.Insights}}</p>
				</div>
{{- end}}
{{- range .Charts}}
				<div class="chart-container">
					<h3>{{.Title}}</h3>
					<img src="{{.Src}}" alt="{{.Title}}" />
				</div>
{{- end}}
			</div>
			<div class="footer">
				<p>Report generated on: {{.Generated}}</p>
				<p style="color: #94a3b8; font-size: 12px;">This is an automated report with AI-powered analysis.</p>
			</div>
		</div>
	</body>
</html>
`
