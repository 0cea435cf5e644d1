// Package worker runs the background email delivery loop.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/pkg/queue"
)

// EmailProcessor delivers queued registration emails through the notifier.
type EmailProcessor struct {
	notifier notify.Notifier
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewEmailProcessor creates an email delivery processor. The notifier is
// normally a Recorder-wrapped mailer so every delivery lands in the email log.
func NewEmailProcessor(notifier notify.Notifier, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{notifier: notifier, queue: q, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	msg := notify.Message{
		Kind:      notify.Kind(payload.Kind),
		Recipient: payload.Recipient,
		FullName:  payload.FullName,
		LGA:       payload.LGA,
		Code:      payload.Code,
	}
	if err := p.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	p.logger.Info("email delivered", zap.String("kind", payload.Kind), zap.String("recipient", payload.Recipient))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
