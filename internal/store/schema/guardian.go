package schema

// Guardian represents the guardians table - one row per guardian NFT.
// The canonical model binds each guardian to an impact zone; the earlier
// path-based contract variant maps its path id onto ZoneID unchanged.
type Guardian struct {
	// ID is the guardian NFT token id
	ID    uint64 `gorm:"column:id;primaryKey"`
	Owner string `gorm:"column:owner;not null;type:text;index:idx_guardians_owner"`
	// Tier only ever moves upward for a given guardian
	Tier int `gorm:"column:tier;not null;index:idx_guardians_tier"`
	// ZoneID is the guardian's impact zone (see domain.ZoneID)
	ZoneID       int     `gorm:"column:zone_id;not null"`
	TotalRetired string  `gorm:"column:total_retired;not null;type:numeric(78,0)"`
	Nickname     *string `gorm:"column:nickname;type:text"`
	// Transferable is unlocked once by TransferUnlocked
	Transferable bool   `gorm:"column:transferable;not null;default:false"`
	MintedAt     uint64 `gorm:"column:minted_at;not null;type:bigint"`
	LastUpdated  uint64 `gorm:"column:last_updated;not null;type:bigint"`
}

// TableName specifies the table name for the Guardian model
func (Guardian) TableName() string {
	return "guardians"
}

// TierUpgrade represents the tier_upgrades table - append-only audit log of
// GuardianUpgraded events.
type TierUpgrade struct {
	ID           string `gorm:"column:id;primaryKey;type:text"`
	GuardianID   uint64 `gorm:"column:guardian_id;not null;index"`
	PreviousTier int    `gorm:"column:previous_tier;not null"`
	NewTier      int    `gorm:"column:new_tier;not null"`
	TotalRetired string `gorm:"column:total_retired;not null;type:numeric(78,0)"`
	Timestamp    uint64 `gorm:"column:timestamp;not null;type:bigint"`
}

// TableName specifies the table name for the TierUpgrade model
func (TierUpgrade) TableName() string {
	return "tier_upgrades"
}
