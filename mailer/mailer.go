// Package mailer renders report documents and dispatches them over SMTP.
// Sends run through the retry executor; authentication and bad-recipient
// failures are classified as permanent and surface after one attempt.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/metricmail-ai/metricmail/config"
	"github.com/metricmail-ai/metricmail/retry"
	"github.com/metricmail-ai/metricmail/slogger"
	"github.com/metricmail-ai/metricmail/validate"
)

// DefaultTimeout bounds each SMTP dial and send attempt.
const DefaultTimeout = 30 * time.Second

// Embed is an inline image referenced from the HTML body by cid:Name.
type Embed struct {
	Name string
	Data []byte
}

// Message is one outbound report email.
type Message struct {
	Subject     string
	HTMLBody    string
	Embeds      []Embed
	Attachments []string
}

// Mailer sends report emails over SMTP.
type Mailer struct {
	cfg       config.Email
	logger    slogger.Logger
	retryOpts []retry.Option
	timeout   time.Duration

	// send is swapped in tests to avoid the network.
	send func(ctx context.Context, msg *mail.Msg) error
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger sets the logger.
func WithLogger(logger slogger.Logger) Option {
	return func(m *Mailer) {
		m.logger = logger
	}
}

// WithRetryOptions sets the retry policy for sends.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(m *Mailer) {
		m.retryOpts = opts
	}
}

// WithTimeout bounds each SMTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(m *Mailer) {
		m.timeout = d
	}
}

// New validates the email configuration and returns a Mailer.
func New(cfg config.Email, opts ...Option) (*Mailer, error) {
	if cfg.Sender == "" {
		return nil, validate.Errorf("email sender is not configured; set EMAIL_SENDER")
	}
	if cfg.Password == "" {
		return nil, validate.Errorf("email password is not configured; set EMAIL_PASSWORD")
	}
	if err := validate.Email(cfg.Sender); err != nil {
		return nil, err
	}
	recipients, err := validate.EmailList(cfg.Recipients)
	if err != nil {
		return nil, err
	}
	cfg.Recipients = recipients

	m := &Mailer{
		cfg:     cfg,
		logger:  slogger.DefaultLogger,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.send == nil {
		m.send = m.smtpSend
	}
	return m, nil
}

// Send builds and dispatches the message, retrying transient SMTP
// failures per the configured policy.
func (m *Mailer) Send(ctx context.Context, msg *Message) error {
	email, err := m.build(msg)
	if err != nil {
		return err
	}

	m.logger.Info("sending report email",
		"subject", msg.Subject,
		"recipients", len(m.cfg.Recipients),
		"embeds", len(msg.Embeds),
		"attachments", len(msg.Attachments))

	err = retry.Do(ctx, func() error {
		if err := m.send(ctx, email); err != nil {
			return classifySendError(err)
		}
		return nil
	}, m.retryOpts...)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("email sent", "recipients", len(m.cfg.Recipients))
	return nil
}

func (m *Mailer) build(msg *Message) (*mail.Msg, error) {
	email := mail.NewMsg()
	if err := email.From(m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := email.To(m.cfg.Recipients...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}

	subject := msg.Subject
	if subject == "" {
		subject = fmt.Sprintf("Automated Report - %s", time.Now().Format("2006-01-02 15:04"))
	}
	email.Subject(subject)
	email.SetDate()
	email.SetMessageID()
	email.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	for _, embed := range msg.Embeds {
		if err := email.EmbedReader(embed.Name, bytes.NewReader(embed.Data)); err != nil {
			return nil, fmt.Errorf("embed %s: %w", embed.Name, err)
		}
	}
	for _, path := range msg.Attachments {
		email.AttachFile(path)
	}
	return email, nil
}

func (m *Mailer) smtpSend(ctx context.Context, msg *mail.Msg) error {
	clientOpts := []mail.Option{
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Sender),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.timeout),
	}
	if m.cfg.SMTPPort == 465 {
		clientOpts = append(clientOpts, mail.WithSSL())
	} else {
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(m.cfg.SMTPHost, clientOpts...)
	if err != nil {
		return retry.MarkPermanent(fmt.Errorf("smtp client: %w", err))
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// classifySendError separates transient SMTP failures (connection blips,
// 4xx responses, greylisting) from permanent ones (authentication,
// rejected recipients).
func classifySendError(err error) error {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		if sendErr.IsTemp() {
			return err
		}
		return retry.MarkPermanent(err)
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		// 5xx covers auth failures (530/535) and rejected recipients (550).
		if protoErr.Code >= 500 {
			return retry.MarkPermanent(err)
		}
		return err
	}
	// Dial and TLS errors are worth retrying.
	return err
}
