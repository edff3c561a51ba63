package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrDispatcherClosed = errors.New("mail dispatcher closed")

// MailDispatcher sends mail in the background so callers never wait on SMTP.
type MailDispatcher struct {
	sender  EmailSender
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewMailDispatcher(sender EmailSender, timeout time.Duration, logger *slog.Logger) *MailDispatcher {
	return &MailDispatcher{
		sender:  sender,
		timeout: timeout,
		logger:  logger,
	}
}

// Dispatch starts sending msg and returns a channel that receives the send
// result exactly once. The send outlives cancellation of ctx but is bounded
// by the dispatcher timeout.
func (d *MailDispatcher) Dispatch(ctx context.Context, msg Message) <-chan error {
	result := make(chan error, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		result <- ErrDispatcherClosed
		close(result)
		return result
	}
	d.wg.Add(1)
	d.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	go func() {
		defer d.wg.Done()
		defer close(result)
		defer cancel()

		err := d.send(sendCtx, msg)
		if err != nil {
			d.logger.Error("failed to send email", "to", msg.To, "subject", msg.Subject, "error", err)
		} else {
			d.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
		}
		result <- err
	}()

	return result
}

func (d *MailDispatcher) send(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mail sender panic: %v", r)
		}
	}()
	return d.sender.Send(ctx, msg)
}

// Close rejects new messages and waits for in-flight sends or ctx expiry.
func (d *MailDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
