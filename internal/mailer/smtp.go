package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig configures the authenticated SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	From     mail.Address
}

// SMTPSender sends messages through an SMTP relay using STARTTLS when offered.
type SMTPSender struct {
	config SMTPConfig
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	if config.Port == 0 {
		config.Port = 587
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &SMTPSender{config: config}
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.buildMsg(msg)
	if err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("mailer: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mailer: smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) client() (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(s.config.Port),
		gomail.WithTimeout(s.config.Timeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.config.Username),
			gomail.WithPassword(s.config.Password),
		)
	}
	return gomail.NewClient(s.config.Host, opts...)
}

func (s *SMTPSender) buildMsg(msg Message) (*gomail.Msg, error) {
	msg = withDefaultFrom(msg, s.config.From)
	if !msg.HasRecipients() {
		return nil, ErrNoRecipients
	}

	m := gomail.NewMsg()
	if err := m.FromFormat(msg.From.Name, msg.From.Address); err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := m.To(addressStrings(msg.To)...); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(addressStrings(msg.Cc)...); err != nil {
			return nil, fmt.Errorf("mailer: cc: %w", err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(addressStrings(msg.Bcc)...); err != nil {
			return nil, fmt.Errorf("mailer: bcc: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	}
	return m, nil
}

func addressStrings(addrs []mail.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.String())
	}
	return out
}
