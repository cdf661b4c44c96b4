package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers messages through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   mail.Address
}

// NewSendGridSender creates a SendGrid sender using apiKey.
func NewSendGridSender(apiKey string, from mail.Address) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: from}
}

// Send posts msg to the SendGrid API.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	msg = withDefaultFrom(msg, s.from)
	if !msg.HasRecipients() {
		return ErrNoRecipients
	}

	res, err := s.client.SendWithContext(ctx, prepareSendGrid(msg))
	if err != nil {
		return fmt.Errorf("mailer: sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mailer: sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func prepareSendGrid(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject

	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgEmail(msg.From))
	m.Subject = msg.Subject
	m.AddPersonalizations(p)

	m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}
	return m
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
