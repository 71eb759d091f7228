package reducer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/verdant-protocol/carbon-indexer/internal/domain"
	"github.com/verdant-protocol/carbon-indexer/internal/logger"
	"github.com/verdant-protocol/carbon-indexer/internal/store"
	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

// ZoneSource selects where a retirement's impact zone comes from. The
// contract variants disagree, so the choice is configuration rather than
// an assumption baked into a handler.
type ZoneSource int

const (
	// ZoneFromCategory resolves the zone from the event's own category field.
	ZoneFromCategory ZoneSource = iota
	// ZoneFromGuardian resolves the zone from the retiring user's guardian.
	// Users without a guardian get no zone rollup.
	ZoneFromGuardian
)

// TierSource selects the tier assigned at guardian mint time.
type TierSource int

const (
	// TierDerived computes the mint tier locally from the initial retired
	// amount. The canonical mint event predates on-chain tier emission, so
	// its tier field is always zero and deriving is the only option there.
	TierDerived TierSource = iota
	// TierFromEvent trusts the tier field emitted with the mint event, for
	// contract variants that emit a real value.
	TierFromEvent
)

// Config tunes the reducer's handling of the contract variants.
type Config struct {
	ZoneSource ZoneSource
	TierSource TierSource
}

// Reducer applies decoded events to the store, one transaction per event.
// Handlers are deterministic: the resulting state is a pure function of the
// ordered event log, so replaying the log from empty reproduces the store
// exactly.
type Reducer struct {
	store store.Store
	cfg   Config
}

// New creates a reducer over the given store.
func New(s store.Store, cfg Config) *Reducer {
	return &Reducer{store: s, cfg: cfg}
}

// Apply processes one event inside a single transaction. The dedup ledger
// insert runs first; if the (txHash, logIndex) pair was already applied the
// whole unit returns domain.ErrDuplicateEvent without touching any counter.
// An unregistered payload kind returns domain.ErrUnknownEvent, which callers
// must treat as fatal.
func (r *Reducer) Apply(ctx context.Context, ev *domain.Event) error {
	if ev.Payload == nil {
		return fmt.Errorf("%w: %s event with no payload", domain.ErrUnknownEvent, ev.Kind)
	}

	err := r.store.Transaction(ctx, func(tx store.Store) error {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", ev.Kind, err)
		}

		inserted, err := tx.InsertIndexedEvent(ctx, &schema.IndexedEvent{
			TxHash:      ev.TxHash,
			LogIndex:    ev.LogIndex,
			Contract:    string(ev.Contract),
			Kind:        string(ev.Kind),
			BlockNumber: ev.BlockNumber,
			Timestamp:   ev.Timestamp,
			Raw:         raw,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return domain.ErrDuplicateEvent
		}

		return r.dispatch(ctx, tx, ev)
	})
	if err != nil {
		return err
	}

	logger.DebugCtx(ctx, "applied event",
		zap.String("kind", string(ev.Kind)),
		zap.Uint64("block", ev.BlockNumber),
		zap.String("tx", ev.TxHash),
		zap.Uint("logIndex", ev.LogIndex))
	return nil
}

func (r *Reducer) dispatch(ctx context.Context, tx store.Store, ev *domain.Event) error {
	switch p := ev.Payload.(type) {
	case *domain.ProjectRegistered:
		return r.applyProjectRegistered(ctx, tx, ev, p)
	case *domain.ProjectVerified:
		return r.applyProjectVerified(ctx, tx, ev, p)
	case *domain.CarbonMinted:
		return r.applyCarbonMinted(ctx, tx, ev, p)
	case *domain.CarbonRetired:
		return r.applyCarbonRetired(ctx, tx, ev, p)
	case *domain.GuardianMinted:
		return r.applyGuardianMinted(ctx, tx, ev, p)
	case *domain.GuardianUpgraded:
		return r.applyGuardianUpgraded(ctx, tx, ev, p)
	case *domain.NicknameUpdated:
		return r.applyNicknameUpdated(ctx, tx, ev, p)
	case *domain.RetirementRecorded:
		return r.applyRetirementRecorded(ctx, tx, ev, p)
	case *domain.TransferUnlocked:
		return r.applyTransferUnlocked(ctx, tx, ev, p)
	case *domain.OrderPlaced:
		return r.applyOrderPlaced(ctx, tx, ev, p)
	case *domain.OrderCancelled:
		return r.applyOrderCancelled(ctx, tx, ev, p)
	case *domain.TradeExecuted:
		return r.applyTradeExecuted(ctx, tx, ev, p)
	case *domain.NewTaskCreated:
		return r.applyNewTaskCreated(ctx, tx, ev, p)
	case *domain.TaskResponded:
		return r.applyTaskResponded(ctx, tx, ev, p)
	case *domain.OperatorRegistered:
		return r.applyOperatorRegistered(ctx, tx, ev, p)
	case *domain.OperatorDeregistered:
		return r.applyOperatorDeregistered(ctx, tx, ev, p)
	case *domain.PoolCreated:
		return r.applyPoolCreated(ctx, tx, ev, p)
	case *domain.LiquidityAdded:
		return r.applyLiquidityAdded(ctx, tx, ev, p)
	case *domain.LiquidityRemoved:
		return r.applyLiquidityRemoved(ctx, tx, ev, p)
	case *domain.SwapExecuted:
		return r.applySwapExecuted(ctx, tx, ev, p)
	default:
		return fmt.Errorf("%w: %s/%s", domain.ErrUnknownEvent, ev.Contract, ev.Kind)
	}
}
