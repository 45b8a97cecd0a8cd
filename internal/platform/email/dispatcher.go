package email

import (
	"context"
	"errors"
	"sync"
	"time"

	"empdir/internal/platform/logger"
	"empdir/internal/platform/metrics"
)

var (
	ErrQueueFull        = errors.New("mail queue full")
	ErrDispatcherClosed = errors.New("mail dispatcher closed")
)

const sendTimeout = 30 * time.Second

type message struct {
	ctx     context.Context
	to      string
	subject string
	body    string
}

// Dispatcher queues messages and delivers them from a single worker so that
// Notify never waits on the mail server. Messages that do not fit in the
// queue are dropped.
type Dispatcher struct {
	from    string
	sender  Sender
	metrics *metrics.Collector

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

func NewDispatcher(sender Sender, from string, queueSize int, collector *metrics.Collector) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	d := &Dispatcher{
		from:    from,
		sender:  sender,
		metrics: collector,
		queue:   make(chan message, queueSize),
		done:    make(chan struct{}),
	}
	go d.worker()
	return d
}

// Notify enqueues a message. Only request-scoped values of ctx are kept;
// its cancellation does not abort delivery.
func (d *Dispatcher) Notify(ctx context.Context, to, subject, body string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- message{ctx: context.WithoutCancel(ctx), to: to, subject: subject, body: body}:
		d.metrics.Mail(metrics.MailQueued)
		return nil
	default:
		d.metrics.Mail(metrics.MailDropped)
		logger.FromContext(ctx).Warn().Str("to", to).Msg("mail queue full, message dropped")
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered,
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg message) {
	ctx, cancel := context.WithTimeout(msg.ctx, sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, d.from, msg.to, msg.subject, msg.body); err != nil {
		d.metrics.Mail(metrics.MailFailed)
		logger.FromContext(msg.ctx).Warn().
			Err(err).
			Str("to", msg.to).
			Str("subject", msg.subject).
			Msg("mail delivery failed")
		return
	}
	d.metrics.Mail(metrics.MailSent)
}
