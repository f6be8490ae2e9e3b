package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/metricmail-ai/metricmail"
	"github.com/metricmail-ai/metricmail/slogger"
)

const (
	insightMaxTokens = 500
	subjectMaxTokens = 30
)

// Narrator turns computed KPIs into an AI-written executive summary and
// email subject line.
type Narrator struct {
	provider Provider
	logger   slogger.Logger
}

func NewNarrator(provider Provider, logger slogger.Logger) *Narrator {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	return &Narrator{provider: provider, logger: logger}
}

// Narrate generates the business analysis for the given KPIs.
func (n *Narrator) Narrate(ctx context.Context, kpis []metricmail.KPI) (string, error) {
	text, err := n.provider.Generate(ctx, KPIPrompt(kpis), WithMaxTokens(insightMaxTokens))
	if err != nil {
		return "", fmt.Errorf("generate insights: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Subject generates an email subject line for the report. The report
// title is used as-is when the provider fails or returns something
// unusable.
func (n *Narrator) Subject(ctx context.Context, title string) string {
	prompt := fmt.Sprintf(
		"Create a professional email subject line for a business report titled %q. Keep it under 60 characters. Reply with the subject line only.",
		title)
	subject, err := n.provider.Generate(ctx, prompt, WithMaxTokens(subjectMaxTokens))
	if err != nil {
		n.logger.Warn("subject generation failed, using report title", "error", err)
		return title
	}
	subject = strings.Trim(strings.TrimSpace(subject), `"'`)
	if subject == "" || len(subject) > 100 {
		return title
	}
	return subject
}

// KPIPrompt formats the KPIs into the analysis prompt.
func KPIPrompt(kpis []metricmail.KPI) string {
	var b strings.Builder
	b.WriteString("Business KPIs:\n")
	for _, k := range kpis {
		fmt.Fprintf(&b, "- %s: %s\n", k.Label, k.FormattedValue())
	}
	return fmt.Sprintf(`Analyze these business metrics and provide a brief executive summary with actionable insights:

%s
Provide:
1. Overall performance assessment
2. Key trends and patterns
3. Areas of concern (if any)
4. Actionable recommendations

Keep it concise and business-focused.`, b.String())
}
