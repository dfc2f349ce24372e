package ports

import (
	"context"

	"tradeTracker/internal/domain"
)

// Broadcaster defines the interface for fanning lifecycle snapshots out to
// live subscribers. Delivery is best-effort and at-most-once: a slow or
// disconnected subscriber never blocks delivery to others, and nothing is
// replayed to subscribers that connect later.
type Broadcaster interface {
	// Publish delivers the event to every currently-connected subscriber.
	Publish(ctx context.Context, event domain.TradeUpdateEvent)
}
