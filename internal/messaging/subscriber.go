package messaging

import (
	"context"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
)

// EventHandler is called for each decoded protocol event, in canonical
// chain order.
type EventHandler func(event *domain.Event) error

// Subscriber defines the interface for subscribing to protocol contract
// events on a chain.
type Subscriber interface {
	// SubscribeEvents subscribes to protocol events starting at fromBlock
	// (0 for latest). Historical logs are replayed before live delivery;
	// handler is invoked strictly in (block, txIndex, logIndex) order.
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler EventHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
