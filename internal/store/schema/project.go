package schema

// Project represents the projects table - one row per registered carbon
// project. Created by ProjectRegistered, enriched by ProjectVerified, and
// accumulating mint/retire totals over its lifetime.
type Project struct {
	// ID is the on-chain project id
	ID uint64 `gorm:"column:id;primaryKey"`
	// Name is the project display name from the registration event
	Name        string `gorm:"column:name;not null;type:text"`
	Methodology string `gorm:"column:methodology;not null;type:text"`
	Verifier    string `gorm:"column:verifier;not null;type:text"`
	Location    string `gorm:"column:location;not null;type:text"`
	// Category is the carbon category enum emitted by the contract
	Category int `gorm:"column:category;not null"`
	// Vintage is the credit vintage year
	Vintage      int  `gorm:"column:vintage;not null"`
	QualityScore int  `gorm:"column:quality_score;not null"`
	Verified     bool `gorm:"column:verified;not null;default:false"`
	// Active flags soft-deactivation; projects are never deleted
	Active bool `gorm:"column:active;not null;default:true"`
	// TotalMinted is the running sum of CarbonMinted amounts for this project
	TotalMinted string `gorm:"column:total_minted;not null;type:numeric(78,0)"`
	// TotalRetired is the running sum of CarbonRetired amounts; never exceeds TotalMinted
	TotalRetired string `gorm:"column:total_retired;not null;type:numeric(78,0)"`
	RegisteredBy string `gorm:"column:registered_by;not null;type:text"`
	// RegisteredAt is the block timestamp of the registration event (Unix seconds)
	RegisteredAt uint64  `gorm:"column:registered_at;not null;type:bigint"`
	VerifiedAt   *uint64 `gorm:"column:verified_at;type:bigint"`
}

// TableName specifies the table name for the Project model
func (Project) TableName() string {
	return "projects"
}
