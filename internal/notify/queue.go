package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tally/internal/logger"
)

// QueueOptions configures an in-process Queue.
type QueueOptions struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (o *QueueOptions) defaults() {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = time.Second
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
}

// Queue is a bounded in-memory Notifier drained by a pool of workers that
// hand each message to a Mailer, retrying with exponential backoff.
type Queue struct {
	mailer Mailer
	opts   QueueOptions
	jobs   chan Message
	log    *zap.SugaredLogger
}

// NewQueue creates a Queue. Messages are buffered until Run is called.
func NewQueue(mailer Mailer, opts QueueOptions) *Queue {
	opts.defaults()
	return &Queue{
		mailer: mailer,
		opts:   opts,
		jobs:   make(chan Message, opts.Buffer),
		log:    logger.Named("notify.queue"),
	}
}

// Notify enqueues msg without blocking. A full buffer drops the message.
func (q *Queue) Notify(_ context.Context, msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	select {
	case q.jobs <- msg:
	default:
		q.log.Errorw("notification queue full, dropping message",
			"kind", msg.Kind,
			"to", msg.To,
			"buffer", q.opts.Buffer,
		)
	}
}

// Len returns the number of messages waiting for a worker.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Run starts the workers and blocks until ctx is cancelled. Messages still
// buffered at that point are logged as undelivered.
func (q *Queue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		g.Go(func() error {
			q.work(ctx)
			return nil
		})
	}
	err := g.Wait()
	if n := q.Len(); n > 0 {
		q.log.Warnw("notification queue stopped with undelivered messages", "count", n)
	}
	return err
}

func (q *Queue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q.jobs:
			q.deliver(ctx, msg)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, msg Message) {
	for attempt := 1; ; attempt++ {
		err := q.mailer.Send(ctx, msg)
		if err == nil {
			q.log.Debugw("email delivered", "kind", msg.Kind, "to", msg.To, "attempt", attempt)
			return
		}
		if attempt >= q.opts.MaxAttempts {
			q.log.Errorw("email delivery failed, giving up",
				"kind", msg.Kind,
				"to", msg.To,
				"attempts", attempt,
				"error", err,
			)
			return
		}

		wait := backoff(q.opts.BaseBackoff, q.opts.MaxBackoff, attempt-1)
		q.log.Warnw("email delivery failed, retrying",
			"kind", msg.Kind,
			"to", msg.To,
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// backoff returns base * 2^attempt, capped at limit.
func backoff(base, limit time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt && d < limit; i++ {
		d *= 2
	}
	if d > limit {
		return limit
	}
	return d
}
