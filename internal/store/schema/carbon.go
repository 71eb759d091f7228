package schema

// CarbonToken represents the carbon_tokens table - one row per fungible
// carbon token id, created lazily on first mint.
type CarbonToken struct {
	// ID is the on-chain token id
	ID        uint64 `gorm:"column:id;primaryKey"`
	ProjectID uint64 `gorm:"column:project_id;not null;index"`
	Vintage   int    `gorm:"column:vintage;not null"`
	Category  int    `gorm:"column:category;not null"`
	// TotalSupply equals the sum of all mint amounts for this token,
	// independent of retirements
	TotalSupply string `gorm:"column:total_supply;not null;type:numeric(78,0)"`
}

// TableName specifies the table name for the CarbonToken model
func (CarbonToken) TableName() string {
	return "carbon_tokens"
}

// CarbonBalance represents the carbon_balances table - per-owner holdings of
// one carbon token id.
type CarbonBalance struct {
	Owner   string `gorm:"column:owner;primaryKey;type:text;index:idx_carbon_balances_owner"`
	TokenID uint64 `gorm:"column:token_id;primaryKey;index:idx_carbon_balances_token"`
	// Balance never goes negative; a would-be-negative subtraction is a
	// consistency failure upstream of this table
	Balance string `gorm:"column:balance;not null;type:numeric(78,0)"`
}

// TableName specifies the table name for the CarbonBalance model
func (CarbonBalance) TableName() string {
	return "carbon_balances"
}

// Retirement represents the retirements table - append-only log of
// CarbonRetired events, keyed by (txHash, logIndex) and never mutated.
type Retirement struct {
	ID        string `gorm:"column:id;primaryKey;type:text"`
	User      string `gorm:"column:user;not null;type:text;index:idx_retirements_user"`
	TokenID   uint64 `gorm:"column:token_id;not null;index:idx_retirements_token"`
	Amount    string `gorm:"column:amount;not null;type:numeric(78,0)"`
	Reason    string `gorm:"column:reason;not null;type:text"`
	Timestamp uint64 `gorm:"column:timestamp;not null;type:bigint"`
	TxHash    string `gorm:"column:tx_hash;not null;type:text"`
}

// TableName specifies the table name for the Retirement model
func (Retirement) TableName() string {
	return "retirements"
}
