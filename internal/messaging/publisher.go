package messaging

import (
	"context"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
)

// Publisher defines the interface for publishing events to the message queue
type Publisher interface {
	// PublishEvent publishes a decoded protocol event to the message broker
	PublishEvent(ctx context.Context, event *domain.Event) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
