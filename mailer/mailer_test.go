package mailer

import (
	"context"
	"errors"
	"net/textproto"
	"testing"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metricmail "github.com/metricmail-ai/metricmail"
	"github.com/metricmail-ai/metricmail/config"
	"github.com/metricmail-ai/metricmail/retry"
	"github.com/metricmail-ai/metricmail/validate"
)

func testEmailConfig() config.Email {
	return config.Email{
		Sender:     "reports@acme.test",
		Password:   "secret",
		Recipients: []string{"ops@acme.test", "boss@acme.test"},
		SMTPHost:   "smtp.acme.test",
		SMTPPort:   587,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testEmailConfig()
	cfg.Sender = ""
	_, err := New(cfg)
	require.Error(t, err)
	var verr *validate.Error
	assert.ErrorAs(t, err, &verr)

	cfg = testEmailConfig()
	cfg.Password = ""
	_, err = New(cfg)
	require.Error(t, err)

	cfg = testEmailConfig()
	cfg.Recipients = []string{"not-an-email"}
	_, err = New(cfg)
	require.Error(t, err)
}

func TestSendRetriesTransientErrors(t *testing.T) {
	m, err := New(testEmailConfig(),
		WithRetryOptions(retry.WithMaxAttempts(3), retry.WithBaseWait(time.Millisecond)))
	require.NoError(t, err)

	calls := 0
	m.send = func(ctx context.Context, msg *mail.Msg) error {
		calls++
		if calls < 3 {
			return &textproto.Error{Code: 421, Msg: "try again later"}
		}
		return nil
	}

	err = m.Send(context.Background(), &Message{Subject: "Report", HTMLBody: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestSendAuthFailureIsFatal(t *testing.T) {
	m, err := New(testEmailConfig(),
		WithRetryOptions(retry.WithMaxAttempts(3), retry.WithBaseWait(time.Millisecond)))
	require.NoError(t, err)

	calls := 0
	m.send = func(ctx context.Context, msg *mail.Msg) error {
		calls++
		return &textproto.Error{Code: 535, Msg: "authentication credentials invalid"}
	}

	err = m.Send(context.Background(), &Message{Subject: "Report", HTMLBody: "<p>hi</p>"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must not be retried")
	assert.Contains(t, err.Error(), "authentication")
}

func TestSendExhaustsRetries(t *testing.T) {
	m, err := New(testEmailConfig(),
		WithRetryOptions(retry.WithMaxAttempts(2), retry.WithBaseWait(time.Millisecond)))
	require.NoError(t, err)

	calls := 0
	m.send = func(ctx context.Context, msg *mail.Msg) error {
		calls++
		return errors.New("dial tcp: connection refused")
	}

	err = m.Send(context.Background(), &Message{Subject: "Report", HTMLBody: "<p>hi</p>"})
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
}

func TestBuildMessage(t *testing.T) {
	m, err := New(testEmailConfig())
	require.NoError(t, err)

	msg, err := m.build(&Message{
		Subject:  "August Report",
		HTMLBody: "<html><body>report</body></html>",
		Embeds:   []Embed{{Name: "chart_revenue.png", Data: []byte{0x89, 'P', 'N', 'G'}}},
	})
	require.NoError(t, err)

	sender, err := msg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "reports@acme.test", sender)

	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Len(t, recipients, 2)

	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.Equal(t, "August Report", subject[0])
}

func TestBuildDefaultSubject(t *testing.T) {
	m, err := New(testEmailConfig())
	require.NoError(t, err)

	msg, err := m.build(&Message{HTMLBody: "<p>hi</p>"})
	require.NoError(t, err)

	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	assert.Contains(t, subject[0], "Automated Report -")
}

func TestClassifySendError(t *testing.T) {
	assert.True(t, retry.IsPermanent(classifySendError(&textproto.Error{Code: 550, Msg: "no such user"})))
	assert.True(t, retry.IsPermanent(classifySendError(&textproto.Error{Code: 535, Msg: "bad credentials"})))
	assert.False(t, retry.IsPermanent(classifySendError(&textproto.Error{Code: 421, Msg: "service not available"})))
	assert.False(t, retry.IsPermanent(classifySendError(errors.New("dial tcp: i/o timeout"))))
}

func TestRenderHTML(t *testing.T) {
	data := &TemplateData{
		Title: "Business Performance Report",
		KPIs: []metricmail.KPI{
			{Key: "total_revenue", Label: "Total Revenue", Prefix: "$", Value: 50000},
			{Key: "revenue_growth", Label: "Revenue Growth", Suffix: "%", Value: -3.2},
		},
		Insights: InsightsHTML("Revenue dipped.\nWatch costs."),
		Charts: []ChartImage{
			{Title: "Revenue Trend", Src: "cid:chart_revenue.png"},
		},
		Generated: "2026-08-30 09:00:00",
	}

	html, err := RenderHTML(data)
	require.NoError(t, err)

	assert.Contains(t, html, "Business Performance Report")
	assert.Contains(t, html, "$50,000.00")
	assert.Contains(t, html, "-3.20%")
	assert.Contains(t, html, "#c53030", "negative growth should render red")
	assert.Contains(t, html, "Revenue dipped.<br>")
	assert.Contains(t, html, `src="cid:chart_revenue.png"`)
	assert.NotContains(t, html, "ZgotmplZ", "chart URLs must survive template sanitization")
	assert.Contains(t, html, "2026-08-30 09:00:00")
}

func TestRenderHTMLWithoutInsights(t *testing.T) {
	html, err := RenderHTML(&TemplateData{Title: "Report", Generated: "now"})
	require.NoError(t, err)
	assert.NotContains(t, html, "AI-Generated Insights")
}

func TestInsightsHTMLEscapes(t *testing.T) {
	out := string(InsightsHTML("Growth <b>up</b> & onward\nnext line"))
	assert.Contains(t, out, "&lt;b&gt;up&lt;/b&gt;")
	assert.Contains(t, out, "&amp; onward")
	assert.Contains(t, out, "<br>\nnext line")
}
