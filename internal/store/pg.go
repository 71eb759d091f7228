package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/verdant-protocol/carbon-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the indexer tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.IndexedEvent{},
		&schema.KeyValueStore{},
		&schema.Project{},
		&schema.CarbonToken{},
		&schema.CarbonBalance{},
		&schema.Retirement{},
		&schema.Guardian{},
		&schema.TierUpgrade{},
		&schema.Order{},
		&schema.Trade{},
		&schema.KycTask{},
		&schema.KycResult{},
		&schema.Operator{},
		&schema.Pool{},
		&schema.LiquidityPosition{},
		&schema.LiquidityEvent{},
		&schema.Swap{},
		&schema.User{},
		&schema.ProtocolStats{},
		&schema.ZoneStats{},
		&schema.ZoneContributor{},
		&schema.DailyStats{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults: 20 open, 5 idle,
// 5m lifetime, 10m idle time.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// Transaction runs fn inside a database transaction bound to this store.
func (s *pgStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// first is the shared point-lookup: absent rows return found=false, nil error.
func (s *pgStore) first(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := s.db.WithContext(ctx).Where(query, args...).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InsertIndexedEvent records an event in the dedup ledger; returns false when
// the (txHash, logIndex) pair was already present.
func (s *pgStore) InsertIndexedEvent(ctx context.Context, ev *schema.IndexedEvent) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
		DoNothing: true,
	}).Create(ev)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert indexed event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *pgStore) GetProject(ctx context.Context, id uint64) (*schema.Project, error) {
	var p schema.Project
	found, err := s.first(ctx, &p, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (s *pgStore) CreateProject(ctx context.Context, p *schema.Project) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (s *pgStore) SaveProject(ctx context.Context, p *schema.Project) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (s *pgStore) GetCarbonToken(ctx context.Context, id uint64) (*schema.CarbonToken, error) {
	var t schema.CarbonToken
	found, err := s.first(ctx, &t, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get carbon token: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

func (s *pgStore) SaveCarbonToken(ctx context.Context, t *schema.CarbonToken) error {
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save carbon token: %w", err)
	}
	return nil
}

func (s *pgStore) GetCarbonBalance(ctx context.Context, owner string, tokenID uint64) (*schema.CarbonBalance, error) {
	var b schema.CarbonBalance
	found, err := s.first(ctx, &b, "owner = ? AND token_id = ?", owner, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to get carbon balance: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &b, nil
}

func (s *pgStore) SaveCarbonBalance(ctx context.Context, b *schema.CarbonBalance) error {
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return fmt.Errorf("failed to save carbon balance: %w", err)
	}
	return nil
}

func (s *pgStore) CreateRetirement(ctx context.Context, r *schema.Retirement) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create retirement: %w", err)
	}
	return nil
}

func (s *pgStore) GetGuardian(ctx context.Context, id uint64) (*schema.Guardian, error) {
	var g schema.Guardian
	found, err := s.first(ctx, &g, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &g, nil
}

func (s *pgStore) CreateGuardian(ctx context.Context, g *schema.Guardian) error {
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("failed to create guardian: %w", err)
	}
	return nil
}

func (s *pgStore) SaveGuardian(ctx context.Context, g *schema.Guardian) error {
	if err := s.db.WithContext(ctx).Save(g).Error; err != nil {
		return fmt.Errorf("failed to save guardian: %w", err)
	}
	return nil
}

func (s *pgStore) CreateTierUpgrade(ctx context.Context, u *schema.TierUpgrade) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create tier upgrade: %w", err)
	}
	return nil
}

func (s *pgStore) GetOrder(ctx context.Context, id uint64) (*schema.Order, error) {
	var o schema.Order
	found, err := s.first(ctx, &o, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &o, nil
}

func (s *pgStore) CreateOrder(ctx context.Context, o *schema.Order) error {
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *pgStore) SaveOrder(ctx context.Context, o *schema.Order) error {
	if err := s.db.WithContext(ctx).Save(o).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (s *pgStore) CreateTrade(ctx context.Context, t *schema.Trade) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (s *pgStore) GetKycTask(ctx context.Context, id uint32) (*schema.KycTask, error) {
	var t schema.KycTask
	found, err := s.first(ctx, &t, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get kyc task: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

func (s *pgStore) CreateKycTask(ctx context.Context, t *schema.KycTask) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create kyc task: %w", err)
	}
	return nil
}

func (s *pgStore) SaveKycTask(ctx context.Context, t *schema.KycTask) error {
	if err := s.db.WithContext(ctx).Save(t).Error; err != nil {
		return fmt.Errorf("failed to save kyc task: %w", err)
	}
	return nil
}

func (s *pgStore) GetKycResult(ctx context.Context, user string) (*schema.KycResult, error) {
	var r schema.KycResult
	found, err := s.first(ctx, &r, "\"user\" = ?", user)
	if err != nil {
		return nil, fmt.Errorf("failed to get kyc result: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

func (s *pgStore) SaveKycResult(ctx context.Context, r *schema.KycResult) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return fmt.Errorf("failed to save kyc result: %w", err)
	}
	return nil
}

func (s *pgStore) GetOperator(ctx context.Context, address string) (*schema.Operator, error) {
	var o schema.Operator
	found, err := s.first(ctx, &o, "address = ?", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &o, nil
}

func (s *pgStore) SaveOperator(ctx context.Context, o *schema.Operator) error {
	if err := s.db.WithContext(ctx).Save(o).Error; err != nil {
		return fmt.Errorf("failed to save operator: %w", err)
	}
	return nil
}

func (s *pgStore) GetPool(ctx context.Context, address string) (*schema.Pool, error) {
	var p schema.Pool
	found, err := s.first(ctx, &p, "address = ?", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (s *pgStore) CreatePool(ctx context.Context, p *schema.Pool) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	return nil
}

func (s *pgStore) SavePool(ctx context.Context, p *schema.Pool) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}

func (s *pgStore) GetLiquidityPosition(ctx context.Context, pool, provider string) (*schema.LiquidityPosition, error) {
	var p schema.LiquidityPosition
	found, err := s.first(ctx, &p, "pool = ? AND provider = ?", pool, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get liquidity position: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (s *pgStore) SaveLiquidityPosition(ctx context.Context, p *schema.LiquidityPosition) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save liquidity position: %w", err)
	}
	return nil
}

func (s *pgStore) CreateLiquidityEvent(ctx context.Context, e *schema.LiquidityEvent) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create liquidity event: %w", err)
	}
	return nil
}

func (s *pgStore) CreateSwap(ctx context.Context, sw *schema.Swap) error {
	if err := s.db.WithContext(ctx).Create(sw).Error; err != nil {
		return fmt.Errorf("failed to create swap: %w", err)
	}
	return nil
}

func (s *pgStore) GetUser(ctx context.Context, address string) (*schema.User, error) {
	var u schema.User
	found, err := s.first(ctx, &u, "address = ?", address)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (s *pgStore) SaveUser(ctx context.Context, u *schema.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *pgStore) GetProtocolStats(ctx context.Context) (*schema.ProtocolStats, error) {
	var st schema.ProtocolStats
	found, err := s.first(ctx, &st, "id = ?", schema.ProtocolStatsID)
	if err != nil {
		return nil, fmt.Errorf("failed to get protocol stats: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &st, nil
}

func (s *pgStore) SaveProtocolStats(ctx context.Context, st *schema.ProtocolStats) error {
	if err := s.db.WithContext(ctx).Save(st).Error; err != nil {
		return fmt.Errorf("failed to save protocol stats: %w", err)
	}
	return nil
}

func (s *pgStore) GetZoneStats(ctx context.Context, zoneID int) (*schema.ZoneStats, error) {
	var z schema.ZoneStats
	found, err := s.first(ctx, &z, "id = ?", zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone stats: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &z, nil
}

func (s *pgStore) SaveZoneStats(ctx context.Context, z *schema.ZoneStats) error {
	if err := s.db.WithContext(ctx).Save(z).Error; err != nil {
		return fmt.Errorf("failed to save zone stats: %w", err)
	}
	return nil
}

func (s *pgStore) GetZoneContributor(ctx context.Context, zoneID int, user string) (*schema.ZoneContributor, error) {
	var c schema.ZoneContributor
	found, err := s.first(ctx, &c, "zone_id = ? AND \"user\" = ?", zoneID, user)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone contributor: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *pgStore) SaveZoneContributor(ctx context.Context, c *schema.ZoneContributor) error {
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("failed to save zone contributor: %w", err)
	}
	return nil
}

func (s *pgStore) GetDailyStats(ctx context.Context, day string) (*schema.DailyStats, error) {
	var d schema.DailyStats
	found, err := s.first(ctx, &d, "id = ?", day)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &d, nil
}

func (s *pgStore) SaveDailyStats(ctx context.Context, d *schema.DailyStats) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}

// GetBlockCursor retrieves the last processed block number for a chain
func (s *pgStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	key := fmt.Sprintf("block_cursor:%s", chain)

	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last processed block number for a chain
func (s *pgStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   fmt.Sprintf("block_cursor:%s", chain),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}

	return nil
}
