package notify

import (
	"context"
	"log/slog"

	"github.com/rfountain/stockwatch/pkg/types"
)

// NoopNotifier discards all notifications. Used when no webhook is
// configured, so a run without a notification channel is not an error.
type NoopNotifier struct {
	log *slog.Logger
}

// NewNoopNotifier creates a NoopNotifier.
func NewNoopNotifier(log *slog.Logger) *NoopNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &NoopNotifier{log: log}
}

// SendEvents implements Notifier.
func (n *NoopNotifier) SendEvents(_ context.Context, events []types.Event) error {
	n.log.Debug("notifications disabled, dropping events", "count", len(events))
	return nil
}

// SendNoChanges implements Notifier.
func (n *NoopNotifier) SendNoChanges(context.Context) error {
	return nil
}
