package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/pkg/jobs"
)

const sendTimeout = 20 * time.Second

// Outbox hands messages to a background queue so request handlers do not
// wait on the mail provider. Delivery failures are retried and logged.
type Outbox struct {
	next  Mailer
	queue *jobs.Queue[Message]
}

// NewOutbox wraps next with a worker pool. Call Start before Send.
func NewOutbox(next Mailer, workers, retries int, logger *zap.Logger) *Outbox {
	o := &Outbox{next: next}
	o.queue = jobs.New("mail-outbox", o.deliver, jobs.Config{
		Workers:    workers,
		MaxRetries: retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return o
}

// Start launches the delivery workers.
func (o *Outbox) Start(ctx context.Context) { o.queue.Start(ctx) }

// Stop waits for in-flight deliveries and drops what is still queued.
func (o *Outbox) Stop() { o.queue.Stop() }

// Pending reports messages not yet delivered.
func (o *Outbox) Pending() int64 { return o.queue.Pending() }

// Send enqueues msg. Only queue errors are returned.
func (o *Outbox) Send(_ context.Context, msg Message) error {
	return o.queue.Enqueue(jobs.Task[Message]{
		ID:      uuid.NewString(),
		Kind:    "mail",
		Payload: msg,
	})
}

func (o *Outbox) deliver(ctx context.Context, task jobs.Task[Message]) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return o.next.Send(ctx, task.Payload)
}
