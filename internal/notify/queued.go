package notify

import (
	"context"

	"github.com/summitdesk/backend/pkg/queue"
)

// Queued hands messages to the Redis job queue instead of delivering inline.
// The worker binary drains the queue and sends through a Mailer.
type Queued struct {
	queue *queue.Queue
}

// NewQueued returns a queue-backed notifier.
func NewQueued(q *queue.Queue) *Queued {
	return &Queued{queue: q}
}

// Send enqueues the message for asynchronous delivery.
func (n *Queued) Send(ctx context.Context, msg Message) error {
	return n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		Kind:      string(msg.Kind),
		Recipient: msg.Recipient,
		FullName:  msg.FullName,
		LGA:       msg.LGA,
		Code:      msg.Code,
	})
}
