package schema

// LiquidityEventType distinguishes deposits from withdrawals
type LiquidityEventType string

const (
	LiquidityEventAdd    LiquidityEventType = "add"
	LiquidityEventRemove LiquidityEventType = "remove"
)

// Pool represents the pools table - one row per AMM pool, created exactly
// once by the factory's PoolCreated event.
type Pool struct {
	// Address is the deployed pool contract address
	Address       string `gorm:"column:address;primaryKey;type:text"`
	CarbonTokenID uint64 `gorm:"column:carbon_token_id;not null;index:idx_pools_token"`
	Tier          int    `gorm:"column:tier;not null;index:idx_pools_tier"`
	ReserveCarbon string `gorm:"column:reserve_carbon;not null;type:numeric(78,0)"`
	ReserveQuote  string `gorm:"column:reserve_quote;not null;type:numeric(78,0)"`
	// TotalSupply is the outstanding LP token supply
	TotalSupply string `gorm:"column:total_supply;not null;type:numeric(78,0)"`
	SwapFeeBps  int    `gorm:"column:swap_fee_bps;not null"`
	SpotPrice   string `gorm:"column:spot_price;not null;type:numeric(78,0)"`
	// TotalVolume accumulates the carbon-side amount of every swap
	TotalVolume string `gorm:"column:total_volume;not null;type:numeric(78,0)"`
	CreatedAt   uint64 `gorm:"column:created_at;not null;type:bigint"`
	LastUpdated uint64 `gorm:"column:last_updated;not null;type:bigint"`
}

// TableName specifies the table name for the Pool model
func (Pool) TableName() string {
	return "pools"
}

// LiquidityPosition represents the liquidity_positions table - per-provider
// LP holdings in one pool.
type LiquidityPosition struct {
	Pool     string `gorm:"column:pool;primaryKey;type:text;index:idx_liquidity_positions_pool"`
	Provider string `gorm:"column:provider;primaryKey;type:text;index:idx_liquidity_positions_provider"`
	// LPTokens never goes negative
	LPTokens        string `gorm:"column:lp_tokens;not null;type:numeric(78,0)"`
	CarbonDeposited string `gorm:"column:carbon_deposited;not null;type:numeric(78,0)"`
	QuoteDeposited  string `gorm:"column:quote_deposited;not null;type:numeric(78,0)"`
	CarbonWithdrawn string `gorm:"column:carbon_withdrawn;not null;type:numeric(78,0)"`
	QuoteWithdrawn  string `gorm:"column:quote_withdrawn;not null;type:numeric(78,0)"`
}

// TableName specifies the table name for the LiquidityPosition model
func (LiquidityPosition) TableName() string {
	return "liquidity_positions"
}

// LiquidityEvent represents the liquidity_events table - append-only log of
// adds and removes keyed by (txHash, logIndex).
type LiquidityEvent struct {
	ID           string             `gorm:"column:id;primaryKey;type:text"`
	Pool         string             `gorm:"column:pool;not null;type:text;index:idx_liquidity_events_pool"`
	Provider     string             `gorm:"column:provider;not null;type:text;index:idx_liquidity_events_provider"`
	EventType    LiquidityEventType `gorm:"column:event_type;not null;type:text"`
	CarbonAmount string             `gorm:"column:carbon_amount;not null;type:numeric(78,0)"`
	QuoteAmount  string             `gorm:"column:quote_amount;not null;type:numeric(78,0)"`
	LPTokens     string             `gorm:"column:lp_tokens;not null;type:numeric(78,0)"`
	Timestamp    uint64             `gorm:"column:timestamp;not null;type:bigint"`
	TxHash       string             `gorm:"column:tx_hash;not null;type:text"`
}

// TableName specifies the table name for the LiquidityEvent model
func (LiquidityEvent) TableName() string {
	return "liquidity_events"
}

// Swap represents the swaps table - append-only log of SwapExecuted events.
type Swap struct {
	ID              string `gorm:"column:id;primaryKey;type:text"`
	Pool            string `gorm:"column:pool;not null;type:text;index:idx_swaps_pool"`
	User            string `gorm:"column:user;not null;type:text;index:idx_swaps_user"`
	CarbonToQuote   bool   `gorm:"column:carbon_to_quote;not null"`
	AmountIn        string `gorm:"column:amount_in;not null;type:numeric(78,0)"`
	AmountOut       string `gorm:"column:amount_out;not null;type:numeric(78,0)"`
	Fee             string `gorm:"column:fee;not null;type:numeric(78,0)"`
	DiscountBps     int    `gorm:"column:discount_bps;not null"`
	SpotPriceBefore string `gorm:"column:spot_price_before;not null;type:numeric(78,0)"`
	SpotPriceAfter  string `gorm:"column:spot_price_after;not null;type:numeric(78,0)"`
	Timestamp       uint64 `gorm:"column:timestamp;not null;type:bigint"`
	TxHash          string `gorm:"column:tx_hash;not null;type:text"`
}

// TableName specifies the table name for the Swap model
func (Swap) TableName() string {
	return "swaps"
}
