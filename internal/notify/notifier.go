// Package notify renders change events into human-readable messages and
// delivers them to the configured notification channel.
package notify

import (
	"context"

	"github.com/rfountain/stockwatch/pkg/types"
)

// Notifier delivers a batch of change events. Delivery is best-effort:
// by the time events are dispatched the snapshot is already saved, so a
// failure is logged, never retried, and never affects run correctness.
type Notifier interface {
	SendEvents(ctx context.Context, events []types.Event) error

	// SendNoChanges posts an explicit "nothing changed" notice, used when
	// the notify-when-empty toggle is on.
	SendNoChanges(ctx context.Context) error
}
