package mailer

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"sync"
)

// ConsoleSender prints messages instead of delivering them. It is the
// default transport for local development.
type ConsoleSender struct {
	mu   sync.Mutex
	w    io.Writer
	from mail.Address
}

// NewConsoleSender creates a console sender writing to w, or stdout when w is nil.
func NewConsoleSender(w io.Writer, from mail.Address) *ConsoleSender {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSender{w: w, from: from}
}

// Send writes a readable rendering of msg.
func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg = withDefaultFrom(msg, s.from)
	if !msg.HasRecipients() {
		return ErrNoRecipients
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From.String())
	fmt.Fprintf(&b, "To: %s\r\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\r\n", joinAddresses(msg.Bcc))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n\r\n", msg.Subject)
	b.WriteString(msg.TextBody)
	b.WriteString("\r\n----\r\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, b.String())
	return err
}

func joinAddresses(addrs []mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
