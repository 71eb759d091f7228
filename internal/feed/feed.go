// Package feed consumes decoded protocol events from JetStream and drives
// them through the reducer in delivery order.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/verdant-protocol/carbon-indexer/internal/adapter"
	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/reducer"
)

// Config holds feed consumer configuration.
type Config struct {
	StreamName string
	Durable    string
	AckWait    time.Duration
	MaxDeliver int
}

// Feed is a durable pull consumer feeding the reducer. MaxAckPending is
// pinned to 1 so events reach the reducer strictly in stream order; the
// reducer's dedup ledger absorbs redeliveries.
type Feed struct {
	config  Config
	js      adapter.JetStream
	jsonA   adapter.JSON
	reducer *reducer.Reducer
}

func New(config Config, js adapter.JetStream, jsonA adapter.JSON, r *reducer.Reducer) *Feed {
	if config.AckWait == 0 {
		config.AckWait = 30 * time.Second
	}
	if config.MaxDeliver == 0 {
		config.MaxDeliver = 5
	}
	return &Feed{
		config:  config,
		js:      js,
		jsonA:   jsonA,
		reducer: r,
	}
}

// Run creates (or updates) the durable consumer and processes messages until
// ctx is cancelled or a fatal event is encountered.
func (f *Feed) Run(ctx context.Context) error {
	consumer, err := f.js.CreateOrUpdateConsumer(ctx, f.config.StreamName, jetstream.ConsumerConfig{
		Durable:       f.config.Durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       f.config.AckWait,
		MaxDeliver:    f.config.MaxDeliver,
		MaxAckPending: 1,
		FilterSubject: "events.carbon.>",
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	if info, err := consumer.Info(ctx); err == nil {
		logger.InfoCtx(ctx, "Consumer ready",
			zap.String("durable", f.config.Durable),
			zap.Uint64("num_pending", info.NumPending))
	}

	fatal := make(chan error, 1)
	cc, err := consumer.Consume(func(msg adapter.Message) {
		if err := f.handleMessage(ctx, msg); err != nil {
			select {
			case fatal <- err:
			default:
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return err
	case <-cc.Closed():
		return errors.New("consume context closed unexpectedly")
	}
}

// handleMessage applies one message. A non-nil return is fatal for the feed;
// retryable failures are Nak'd and return nil.
func (f *Feed) handleMessage(ctx context.Context, msg adapter.Message) error {
	var event domain.Event
	if err := f.jsonA.Unmarshal(msg.Data(), &event); err != nil {
		// A malformed message will never parse; retrying is pointless.
		logger.ErrorCtx(ctx, fmt.Errorf("terminating undecodable message: %w", err))
		if termErr := msg.Term(); termErr != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to terminate message: %w", termErr))
		}
		return nil
	}

	err := f.reducer.Apply(ctx, &event)
	switch {
	case err == nil, errors.Is(err, domain.ErrDuplicateEvent):
		if errors.Is(err, domain.ErrDuplicateEvent) {
			logger.InfoCtx(ctx, "Skipping duplicate event", zap.String("event_id", event.ID()))
		}
		if ackErr := msg.Ack(); ackErr != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to ack message: %w", ackErr))
		}
		return nil
	case errors.Is(err, domain.ErrUnknownEvent):
		// An event the reducer has no handler for means the deployment is
		// behind the contracts. Stop instead of skipping state transitions.
		if termErr := msg.Term(); termErr != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to terminate message: %w", termErr))
		}
		return fmt.Errorf("unhandled event %s: %w", event.ID(), err)
	case errors.Is(err, domain.ErrConsistency), errors.Is(err, domain.ErrInvalidAmount):
		// Deterministic failures: every redelivery fails identically, and
		// exhausting MaxDeliver would drop the event and leave a gap in the
		// derived state. Halt so the stream never advances past it.
		if termErr := msg.Term(); termErr != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to terminate message: %w", termErr))
		}
		return fmt.Errorf("event %s contradicts indexed state: %w", event.ID(), err)
	default:
		// Transient store or network failure; redelivery can succeed.
		logger.WarnCtx(ctx, "Failed to apply event, requeueing",
			zap.String("event_id", event.ID()),
			zap.Error(err))
		if nakErr := msg.Nak(); nakErr != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to nak message: %w", nakErr))
		}
		return nil
	}
}
