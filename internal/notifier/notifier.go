// Package notifier delivers operator notifications: a daily heartbeat so
// silence means trouble, and an alert for every processing error.
package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// HeartbeatMessage is sent at startup and on every heartbeat interval.
const HeartbeatMessage = "The Surrender Index script is up and running."

// Notifier sends a message to the operator
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

// Noop discards notifications, used when notifications are disabled.
type Noop struct{}

// Notify does nothing.
func (Noop) Notify(context.Context, string) error { return nil }

// Multi fans a notification out to several transports. Every transport is
// attempted; the first failure is returned.
type Multi []Notifier

// Notify sends the message through each transport.
func (m Multi) Notify(ctx context.Context, body string) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reporter wraps a Notifier with the bot's message formats. Notification
// delivery failures are logged and never propagate; losing an alert must
// not take down the pipeline it reports on.
type Reporter struct {
	notifier Notifier
	logger   *zap.SugaredLogger
}

// NewReporter creates a new reporter
func NewReporter(n Notifier, logger *zap.SugaredLogger) *Reporter {
	return &Reporter{
		notifier: n,
		logger:   logger,
	}
}

// Error notifies the operator about a failure.
func (r *Reporter) Error(ctx context.Context, contextMsg string, err error) {
	body := fmt.Sprintf("%s: %v.", contextMsg, err)
	if nerr := r.notifier.Notify(ctx, body); nerr != nil {
		r.logger.Errorw("Failed to deliver error notification",
			"body", body,
			"error", nerr)
	}
}

// Heartbeat sends the up-and-running message once.
func (r *Reporter) Heartbeat(ctx context.Context) {
	if err := r.notifier.Notify(ctx, HeartbeatMessage); err != nil {
		r.logger.Errorw("Failed to deliver heartbeat", "error", err)
	}
}

// RunHeartbeat sends a heartbeat immediately and then once per interval
// until the context is canceled.
func (r *Reporter) RunHeartbeat(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		r.Heartbeat(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
