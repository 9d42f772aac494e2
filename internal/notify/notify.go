// Package notify fans a finished lead card out to the configured recipient
// channels. Delivery is best-effort: each recipient is attempted
// independently and a failure never aborts the rest of the list, nor the
// user-facing completion flow.
package notify

import (
	"context"
	"time"

	"github.com/m3rciful/leadbot/core/logger"
	"log/slog"
)

const defaultSendTimeout = 10 * time.Second

// Sender delivers a single message to a chat.
type Sender interface {
	SendTo(ctx context.Context, chatID int64, text string) error
}

// Outcome records one recipient's delivery result.
type Outcome struct {
	Recipient int64
	Err       error
}

// Notifier holds the static recipient list configured at startup.
type Notifier struct {
	sender     Sender
	recipients []int64
	timeout    time.Duration
}

// New builds a Notifier. An empty recipient list is legal; leads are then
// captured but not forwarded, which is logged once as a warning.
func New(sender Sender, recipients []int64) *Notifier {
	if len(recipients) == 0 {
		logger.Warn(context.Background(), "notify", "notify.recipients.empty")
	}
	return &Notifier{
		sender:     sender,
		recipients: recipients,
		timeout:    defaultSendTimeout,
	}
}

// Recipients returns the number of configured recipients.
func (n *Notifier) Recipients() int {
	return len(n.recipients)
}

// Deliver sends text to every recipient in order. Failures are logged and
// isolated per recipient; the returned outcomes preserve recipient order.
func (n *Notifier) Deliver(ctx context.Context, text string) []Outcome {
	if len(n.recipients) == 0 {
		return nil
	}

	outcomes := make([]Outcome, 0, len(n.recipients))
	delivered := 0
	for _, chatID := range n.recipients {
		err := n.deliverOne(ctx, chatID, text)
		if err != nil {
			logger.Error(ctx, "notify", "notify.send.fail",
				slog.Int64("recipient", chatID),
				slog.String("err", err.Error()),
			)
		} else {
			delivered++
		}
		outcomes = append(outcomes, Outcome{Recipient: chatID, Err: err})
	}

	status := "ok"
	if delivered < len(n.recipients) {
		status = "fail"
	}
	logger.Info(ctx, "notify", "notify.delivered",
		slog.String("status", status),
		slog.Int("recipients", len(n.recipients)),
		slog.Int("delivered", delivered),
		slog.Int("failed", len(n.recipients)-delivered),
	)
	return outcomes
}

func (n *Notifier) deliverOne(ctx context.Context, chatID int64, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.sender.SendTo(sendCtx, chatID, text)
}
