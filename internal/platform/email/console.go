package email

import (
	"context"
	"log"
	"sync"
)

// consoleSender logs messages instead of delivering them. Used in
// development and when no transport credentials are configured.
type consoleSender struct {
	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*consoleSender)(nil)

func NewConsoleSender() *consoleSender {
	return &consoleSender{}
}

func (s *consoleSender) Send(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, *msg)
	s.mu.Unlock()

	log.Printf("=== EMAIL WOULD BE SENT ===\nTo: %s <%s>\nSubject: %s\n%s=== END EMAIL LOG ===",
		msg.ToName, msg.ToAddr, msg.Subject, msg.TextContent)
	return nil
}

// Sent returns a copy of everything sent so far.
func (s *consoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
