package notify

import (
	"context"
	"sync"
)

// Fake records messages instead of delivering them. Tests set Err to make
// every Send fail.
type Fake struct {
	mu   sync.Mutex
	Err  error
	sent []Message
}

// NewFake returns an empty recording notifier.
func NewFake() *Fake {
	return &Fake{}
}

// Send records the message and returns Err.
func (f *Fake) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// Sent returns a copy of every delivered message.
func (f *Fake) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

// LastTo returns the most recent message delivered to recipient, if any.
func (f *Fake) LastTo(recipient string) (Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Recipient == recipient {
			return f.sent[i], true
		}
	}
	return Message{}, false
}
