package testfixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/drivingschool/internal/mailer"
)

// RecordingSender captures outgoing mail. Addresses registered with FailFor
// are rejected, the rest recorded.
type RecordingSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	failing  map[string]bool
}

// NewRecordingSender returns an empty recorder.
func NewRecordingSender() *RecordingSender {
	return &RecordingSender{failing: make(map[string]bool)}
}

// FailFor makes every send to address fail.
func (s *RecordingSender) FailFor(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[address] = true
}

// Send implements mailer.Sender.
func (s *RecordingSender) Send(ctx context.Context, msg mailer.Message) error {
	if !msg.HasRecipients() {
		return mailer.ErrNoRecipients
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, to := range msg.To {
		if s.failing[to.Address] {
			return fmt.Errorf("recording sender: rejected %s", to.Address)
		}
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (s *RecordingSender) Messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.messages...)
}

// Recipients lists every recorded recipient address in send order.
func (s *RecordingSender) Recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, msg := range s.messages {
		for _, to := range msg.To {
			out = append(out, to.Address)
		}
	}
	return out
}
