package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oremusapp/oremus-backend/pkg/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is the narrow payload the transport accepts. Composition of
// subjects and bodies happens upstream; the transport only delivers.
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers a single message. Implementations are best-effort: a
// returned error means this attempt failed, nothing more.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client is the SendGrid-backed Sender.
type Client struct {
	api       sendClient
	fromEmail string
	fromName  string
}

// New builds a SendGrid transport from config.
func New(cfg config.SendgridConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &Client{
		api:       sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.DefaultFrom,
		fromName:  cfg.FromName,
	}, nil
}

// NewWithAPI wires a custom send client; used by tests.
func NewWithAPI(api sendClient, fromEmail, fromName string) *Client {
	return &Client{api: api, fromEmail: fromEmail, fromName: fromName}
}

// Send delivers one message. Non-2xx responses from the provider are
// surfaced as errors so callers can record the failure.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errors.New("recipient email is required")
	}
	if msg.Subject == "" {
		return errors.New("subject is required")
	}

	from := mail.NewEmail(c.fromName, c.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	html := msg.HTML
	if html == "" {
		html = msg.PlainText
	}
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, html)

	resp, err := c.api.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
