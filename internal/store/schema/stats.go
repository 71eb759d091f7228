package schema

// ProtocolStatsID is the well-known key of the singleton protocol stats row.
// Modelling the singleton as an ordinary row keeps it behind the same
// getOrCreate-then-update discipline as every other entity.
const ProtocolStatsID = 1

// User represents the users table - one row per address ever seen acting in
// any event, created lazily on first touch.
type User struct {
	Address                string `gorm:"column:address;primaryKey;type:text"`
	TotalRetired           string `gorm:"column:total_retired;not null;type:numeric(78,0)"`
	TotalTraded            string `gorm:"column:total_traded;not null;type:numeric(78,0)"`
	TotalLiquidityProvided string `gorm:"column:total_liquidity_provided;not null;type:numeric(78,0)"`
	GuardianID             *uint64 `gorm:"column:guardian_id"`
	KycLevel               int    `gorm:"column:kyc_level;not null"`
	// FirstSeenAt is set once on creation and never changed
	FirstSeenAt uint64 `gorm:"column:first_seen_at;not null;type:bigint"`
	// LastActiveAt only ever moves forward
	LastActiveAt uint64 `gorm:"column:last_active_at;not null;type:bigint"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// ProtocolStats represents the protocol_stats table - protocol-wide running
// totals. Every counted event increments exactly one counter exactly once.
type ProtocolStats struct {
	ID                 int    `gorm:"column:id;primaryKey"`
	TotalProjects      int    `gorm:"column:total_projects;not null"`
	TotalCarbonMinted  string `gorm:"column:total_carbon_minted;not null;type:numeric(78,0)"`
	TotalCarbonRetired string `gorm:"column:total_carbon_retired;not null;type:numeric(78,0)"`
	TotalGuardians     int    `gorm:"column:total_guardians;not null"`
	TotalPools         int    `gorm:"column:total_pools;not null"`
	TotalTrades        int    `gorm:"column:total_trades;not null"`
	TotalSwaps         int    `gorm:"column:total_swaps;not null"`
	TotalVolume        string `gorm:"column:total_volume;not null;type:numeric(78,0)"`
	LastUpdated        uint64 `gorm:"column:last_updated;not null;type:bigint"`
}

// TableName specifies the table name for the ProtocolStats model
func (ProtocolStats) TableName() string {
	return "protocol_stats"
}

// ZoneStats represents the zone_stats table - per-zone retirement rollups.
type ZoneStats struct {
	// ID is the zone id (see domain.ZoneID)
	ID           int    `gorm:"column:id;primaryKey"`
	Name         string `gorm:"column:name;not null;type:text"`
	TotalRetired string `gorm:"column:total_retired;not null;type:numeric(78,0)"`
	// ContributorCount counts distinct (zone, user) pairs seen
	ContributorCount int    `gorm:"column:contributor_count;not null"`
	LastRetirementAt uint64 `gorm:"column:last_retirement_at;not null;type:bigint"`
}

// TableName specifies the table name for the ZoneStats model
func (ZoneStats) TableName() string {
	return "zone_stats"
}

// ZoneContributor represents the zone_contributors table - one row per
// (zone, user) pair, created on that user's first retirement in the zone.
type ZoneContributor struct {
	ZoneID           int    `gorm:"column:zone_id;primaryKey"`
	User             string `gorm:"column:user;primaryKey;type:text"`
	TotalRetired     string `gorm:"column:total_retired;not null;type:numeric(78,0)"`
	RetirementCount  int    `gorm:"column:retirement_count;not null"`
	LastRetirementAt uint64 `gorm:"column:last_retirement_at;not null;type:bigint"`
}

// TableName specifies the table name for the ZoneContributor model
func (ZoneContributor) TableName() string {
	return "zone_contributors"
}

// DailyStats represents the daily_stats table - per-UTC-day activity
// buckets, created lazily on the first event of each day.
type DailyStats struct {
	// ID is the calendar date key, YYYY-MM-DD derived from the event timestamp
	ID            string `gorm:"column:id;primaryKey;type:text"`
	Date          uint64 `gorm:"column:date;not null;type:bigint"`
	CarbonMinted  string `gorm:"column:carbon_minted;not null;type:numeric(78,0)"`
	CarbonRetired string `gorm:"column:carbon_retired;not null;type:numeric(78,0)"`
	Trades        int    `gorm:"column:trades;not null"`
	Swaps         int    `gorm:"column:swaps;not null"`
	Volume        string `gorm:"column:volume;not null;type:numeric(78,0)"`
	NewUsers      int    `gorm:"column:new_users;not null"`
	NewGuardians  int    `gorm:"column:new_guardians;not null"`
}

// TableName specifies the table name for the DailyStats model
func (DailyStats) TableName() string {
	return "daily_stats"
}
