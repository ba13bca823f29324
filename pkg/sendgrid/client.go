package sendgrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/selvamresidency/hotel-backend/pkg/config"
)

// Message is a single transactional email.
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

type mailer interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// StatusError is returned when SendGrid answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sendgrid responded %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Retryable reports whether the provider asked us to back off or failed
// on its side.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

type Client struct {
	mailer  mailer
	from    *mail.Email
	sandbox bool
}

func New(cfg config.SendgridConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key required")
	}
	return newClient(sg.NewSendClient(cfg.APIKey), cfg), nil
}

func newClient(m mailer, cfg config.SendgridConfig) *Client {
	return &Client{
		mailer:  m,
		from:    mail.NewEmail(cfg.FromName, cfg.FromEmail),
		sandbox: cfg.Sandbox,
	}
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient email required")
	}
	email := mail.NewSingleEmail(c.from, msg.Subject, mail.NewEmail(msg.ToName, msg.ToEmail), msg.PlainText, msg.HTML)
	if c.sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		email.SetMailSettings(settings)
	}

	resp, err := c.mailer.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}
