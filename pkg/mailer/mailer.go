// Package mailer sends transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mypackmx/logistics-backend/pkg/config"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToEmail   string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender is the narrow surface consumers depend on.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client sends mail via the SendGrid API.
type Client struct {
	api       *sendgrid.Client
	fromEmail string
	logg      *logger.Logger
}

// New builds a SendGrid-backed mailer.
func New(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, errors.New("sendgrid from email is required")
	}
	return &Client{
		api:       sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.DefaultFrom,
		logg:      logg,
	}, nil
}

// Send delivers the message. A non-2xx SendGrid response is an error.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errors.New("recipient email is required")
	}
	if msg.Subject == "" {
		return errors.New("subject is required")
	}

	from := mail.NewEmail("MyPack Mexico", c.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, msg.HTMLBody)

	resp, err := c.api.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "to", msg.ToEmail), "email sent")
	}
	return nil
}
