package store

import (
	"context"

	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

// Store defines the persistence interface the reducer and emitter run
// against: point lookups by primary key (absent rows return (nil, nil)),
// inserts, upserts and a transactional unit of work per event.
//
// Save methods write the full row (create-or-replace by primary key);
// Create methods insert and fail loudly on a primary-key collision, which
// for the append-only tables doubles as a duplicate-delivery tripwire
// behind the indexed-events gate.
type Store interface {
	// Transaction runs fn against a store whose writes commit atomically.
	// Every reducer application is exactly one such unit: either all of an
	// event's writes land or none do.
	Transaction(ctx context.Context, fn func(Store) error) error

	// InsertIndexedEvent records an event in the dedup ledger. It returns
	// false without error when the (txHash, logIndex) pair is already
	// present, in which case no other write for that event may run.
	InsertIndexedEvent(ctx context.Context, ev *schema.IndexedEvent) (bool, error)

	GetProject(ctx context.Context, id uint64) (*schema.Project, error)
	CreateProject(ctx context.Context, p *schema.Project) error
	SaveProject(ctx context.Context, p *schema.Project) error

	GetCarbonToken(ctx context.Context, id uint64) (*schema.CarbonToken, error)
	SaveCarbonToken(ctx context.Context, t *schema.CarbonToken) error

	GetCarbonBalance(ctx context.Context, owner string, tokenID uint64) (*schema.CarbonBalance, error)
	SaveCarbonBalance(ctx context.Context, b *schema.CarbonBalance) error

	CreateRetirement(ctx context.Context, r *schema.Retirement) error

	GetGuardian(ctx context.Context, id uint64) (*schema.Guardian, error)
	CreateGuardian(ctx context.Context, g *schema.Guardian) error
	SaveGuardian(ctx context.Context, g *schema.Guardian) error

	CreateTierUpgrade(ctx context.Context, u *schema.TierUpgrade) error

	GetOrder(ctx context.Context, id uint64) (*schema.Order, error)
	CreateOrder(ctx context.Context, o *schema.Order) error
	SaveOrder(ctx context.Context, o *schema.Order) error

	CreateTrade(ctx context.Context, t *schema.Trade) error

	GetKycTask(ctx context.Context, id uint32) (*schema.KycTask, error)
	CreateKycTask(ctx context.Context, t *schema.KycTask) error
	SaveKycTask(ctx context.Context, t *schema.KycTask) error

	GetKycResult(ctx context.Context, user string) (*schema.KycResult, error)
	SaveKycResult(ctx context.Context, r *schema.KycResult) error

	GetOperator(ctx context.Context, address string) (*schema.Operator, error)
	SaveOperator(ctx context.Context, o *schema.Operator) error

	GetPool(ctx context.Context, address string) (*schema.Pool, error)
	CreatePool(ctx context.Context, p *schema.Pool) error
	SavePool(ctx context.Context, p *schema.Pool) error

	GetLiquidityPosition(ctx context.Context, pool, provider string) (*schema.LiquidityPosition, error)
	SaveLiquidityPosition(ctx context.Context, p *schema.LiquidityPosition) error

	CreateLiquidityEvent(ctx context.Context, e *schema.LiquidityEvent) error
	CreateSwap(ctx context.Context, s *schema.Swap) error

	GetUser(ctx context.Context, address string) (*schema.User, error)
	SaveUser(ctx context.Context, u *schema.User) error

	GetProtocolStats(ctx context.Context) (*schema.ProtocolStats, error)
	SaveProtocolStats(ctx context.Context, s *schema.ProtocolStats) error

	GetZoneStats(ctx context.Context, zoneID int) (*schema.ZoneStats, error)
	SaveZoneStats(ctx context.Context, z *schema.ZoneStats) error

	GetZoneContributor(ctx context.Context, zoneID int, user string) (*schema.ZoneContributor, error)
	SaveZoneContributor(ctx context.Context, c *schema.ZoneContributor) error

	GetDailyStats(ctx context.Context, day string) (*schema.DailyStats, error)
	SaveDailyStats(ctx context.Context, d *schema.DailyStats) error

	// GetBlockCursor retrieves the last processed block number for a chain
	GetBlockCursor(ctx context.Context, chain string) (uint64, error)
	// SetBlockCursor stores the last processed block number for a chain
	SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error
}
