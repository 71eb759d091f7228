package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/verdant-protocol/carbon-indexer/internal/adapter"
	"github.com/verdant-protocol/carbon-indexer/internal/block"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/messaging"
)

// errDeliveryFailed marks handler failures; they abort the subscription
// instead of triggering a resubscribe.
var errDeliveryFailed = errors.New("event delivery failed")

// Config holds subscriber configuration.
type Config struct {
	Contracts Contracts

	// BackfillWorkers is the number of concurrent log-range fetches during
	// historical backfill.
	BackfillWorkers int

	// BackfillChunkSize is the block span each backfill worker fetches.
	BackfillChunkSize uint64
}

// Subscriber streams decoded protocol events from an Ethereum chain.
// Historical logs are backfilled first, then a live log subscription takes
// over; the handler always sees events in (block, txIndex, logIndex) order.
type Subscriber struct {
	config  Config
	client  adapter.EthClient
	decoder *Decoder
	blocks  block.BlockProvider
}

func NewSubscriber(config Config, client adapter.EthClient, blocks block.BlockProvider) *Subscriber {
	if config.BackfillWorkers <= 0 {
		config.BackfillWorkers = 4
	}
	if config.BackfillChunkSize == 0 {
		config.BackfillChunkSize = defaultFilterStep
	}
	return &Subscriber{
		config:  config,
		client:  client,
		decoder: NewDecoder(config.Contracts),
		blocks:  blocks,
	}
}

func (s *Subscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	return s.blocks.GetLatestBlock(ctx)
}

func (s *Subscriber) Close() {
	s.client.Close()
}

// SubscribeEvents backfills from fromBlock to the current head, then follows
// live logs. It blocks until ctx is cancelled or delivery fails.
func (s *Subscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	head, err := s.blocks.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve chain head: %w", err)
	}

	next := head + 1
	if fromBlock > 0 && fromBlock <= head {
		if err := s.backfill(ctx, fromBlock, head, handler); err != nil {
			return err
		}
	} else if fromBlock > head {
		next = fromBlock
	}

	return s.followLive(ctx, next, handler)
}

// backfill fetches [fromBlock, toBlock] in parallel chunks, then replays the
// merged logs in canonical order.
func (s *Subscriber) backfill(ctx context.Context, fromBlock, toBlock uint64, handler messaging.EventHandler) error {
	logger.InfoCtx(ctx, "Backfilling historical events",
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock))

	var (
		mu  sync.Mutex
		all []types.Log
	)

	pool := pond.NewPool(s.config.BackfillWorkers,
		pond.WithContext(ctx),
		pond.WithQueueSize(s.config.BackfillWorkers*4))

	group := pool.NewGroup()
	for start := fromBlock; start <= toBlock; start += s.config.BackfillChunkSize {
		end := start + s.config.BackfillChunkSize - 1
		if end > toBlock {
			end = toBlock
		}
		chunkFrom, chunkTo := start, end
		group.SubmitErr(func() error {
			logs, err := filterLogsPaginated(ctx, s.client, s.config.Contracts, chunkFrom, chunkTo)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, logs...)
			mu.Unlock()
			return nil
		})
	}

	err := group.Wait()
	pool.StopAndWait()
	if err != nil {
		return fmt.Errorf("failed to backfill logs: %w", err)
	}

	sortLogs(all)
	logger.InfoCtx(ctx, "Backfill fetch complete", zap.Int("log_count", len(all)))

	for i := range all {
		if err := s.deliver(ctx, all[i], handler); err != nil {
			return err
		}
	}
	return nil
}

// followLive subscribes to new logs starting at fromBlock. Dropped
// subscriptions are re-established with exponential backoff, refetching the
// gap so no log is skipped.
func (s *Subscriber) followLive(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	next := fromBlock

	for {
		logs := make(chan types.Log, 256)
		query := filterQuery(s.config.Contracts, new(big.Int).SetUint64(next), nil)

		var sub goethereum.Subscription
		operation := func() error {
			var err error
			sub, err = s.client.SubscribeFilterLogs(ctx, query, logs)
			if err != nil {
				logger.WarnCtx(ctx, "Failed to subscribe to logs, retrying", zap.Error(err))
				return err
			}
			return nil
		}
		b := backoff.NewExponentialBackOff()
		b.MaxInterval = 30 * time.Second
		b.MaxElapsedTime = 5 * time.Minute
		if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
			return fmt.Errorf("failed to subscribe to logs: %w", err)
		}

		logger.InfoCtx(ctx, "Live log subscription established", zap.Uint64("from_block", next))

		err := s.consume(ctx, logs, sub.Err(), &next, handler)
		sub.Unsubscribe()
		if err == nil {
			// Context cancelled, clean shutdown.
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errDeliveryFailed) {
			return err
		}
		logger.WarnCtx(ctx, "Log subscription dropped, resubscribing", zap.Error(err))

		// The websocket may have dropped logs between the failure and the
		// resubscription; refill the gap before going live again.
		head, headErr := s.blocks.GetLatestBlock(ctx)
		if headErr == nil && head >= next {
			if err := s.backfill(ctx, next, head, handler); err != nil {
				return err
			}
			next = head + 1
		}
	}
}

// consume drains the live log channel until ctx ends (nil) or the
// subscription errors (returned for resubscription). next tracks the first
// unprocessed block.
func (s *Subscriber) consume(ctx context.Context, logs <-chan types.Log, errs <-chan error, next *uint64, handler messaging.EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case lg := <-logs:
			if lg.Removed {
				continue
			}
			if err := s.deliver(ctx, lg, handler); err != nil {
				return fmt.Errorf("%w: %w", errDeliveryFailed, err)
			}
			if lg.BlockNumber >= *next {
				*next = lg.BlockNumber + 1
			}
		}
	}
}

// deliver decodes one log, resolves its block timestamp and hands the event
// to the handler. Unrecognized logs are skipped.
func (s *Subscriber) deliver(ctx context.Context, lg types.Log, handler messaging.EventHandler) error {
	ts, err := s.blocks.GetBlockTimestamp(ctx, lg.BlockNumber)
	if err != nil {
		return fmt.Errorf("failed to resolve block %d timestamp: %w", lg.BlockNumber, err)
	}

	event, err := s.decoder.Decode(lg, uint64(ts.Unix())) //nolint:gosec
	if err != nil {
		return err
	}
	if event == nil {
		logger.DebugCtx(ctx, "Skipping unrecognized log",
			zap.String("tx_hash", lg.TxHash.Hex()),
			zap.Uint("log_index", lg.Index))
		return nil
	}

	if err := handler(event); err != nil {
		return fmt.Errorf("failed to handle event %s: %w", event.ID(), err)
	}
	return nil
}
