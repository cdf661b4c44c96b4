// Package mailer delivers transactional email through SMTP, SendGrid or the
// console.
package mailer

import (
	"context"
	"errors"
	"net/mail"
)

// ErrNoRecipients is returned when a message has no To, Cc or Bcc address.
var ErrNoRecipients = errors.New("mailer: message has no recipients")

// Message is a multipart email with a plain text body and an optional HTML
// alternative.
type Message struct {
	From     mail.Address
	To       []mail.Address
	Cc       []mail.Address
	Bcc      []mail.Address
	Subject  string
	TextBody string
	HTMLBody string
}

// HasRecipients reports whether the message has at least one recipient.
func (m Message) HasRecipients() bool {
	return len(m.To)+len(m.Cc)+len(m.Bcc) > 0
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// ParseAddressList parses addresses such as "Name <a@b.c>" or "a@b.c".
// Blank entries are skipped.
func ParseAddressList(values []string) ([]mail.Address, error) {
	var out []mail.Address
	for _, value := range values {
		if value == "" {
			continue
		}
		addr, err := mail.ParseAddress(value)
		if err != nil {
			return nil, err
		}
		out = append(out, *addr)
	}
	return out, nil
}

func withDefaultFrom(msg Message, from mail.Address) Message {
	if msg.From.Address == "" {
		msg.From = from
	}
	return msg
}
