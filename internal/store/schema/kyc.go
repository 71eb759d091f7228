package schema

// KycTaskStatus is the KYC task lifecycle state. Transitions are monotonic:
// a task moves from pending to completed exactly once.
type KycTaskStatus int

const (
	KycTaskStatusPending   KycTaskStatus = 0
	KycTaskStatusCompleted KycTaskStatus = 1
	KycTaskStatusExpired   KycTaskStatus = 2
)

// KycTask represents the kyc_tasks table - one row per verification task.
type KycTask struct {
	// ID is the on-chain task id
	ID            uint32        `gorm:"column:id;primaryKey"`
	User          string        `gorm:"column:user;not null;type:text;index:idx_kyc_tasks_user"`
	RequiredLevel int           `gorm:"column:required_level;not null"`
	Status        KycTaskStatus `gorm:"column:status;not null;index:idx_kyc_tasks_status"`
	CreatedAt     uint64        `gorm:"column:created_at;not null;type:bigint"`
	CompletedAt   *uint64       `gorm:"column:completed_at;type:bigint"`
	RespondedBy   *string       `gorm:"column:responded_by;type:text"`
}

// TableName specifies the table name for the KycTask model
func (KycTask) TableName() string {
	return "kyc_tasks"
}

// KycResult represents the kyc_results table - at most one live verification
// result per user, overwritten on re-verification.
type KycResult struct {
	// User is the verified address
	User       string `gorm:"column:user;primaryKey;type:text"`
	Level      int    `gorm:"column:level;not null"`
	VerifiedAt uint64 `gorm:"column:verified_at;not null;type:bigint"`
	ExpiresAt  uint64 `gorm:"column:expires_at;not null;type:bigint"`
	IsValid    bool   `gorm:"column:is_valid;not null;default:true"`
}

// TableName specifies the table name for the KycResult model
func (KycResult) TableName() string {
	return "kyc_results"
}

// Operator represents the operators table - AVS operators responding to KYC
// tasks. Registered only ever toggles false after having been true.
type Operator struct {
	Address        string  `gorm:"column:address;primaryKey;type:text"`
	Registered     bool    `gorm:"column:registered;not null"`
	RegisteredAt   uint64  `gorm:"column:registered_at;not null;type:bigint"`
	DeregisteredAt *uint64 `gorm:"column:deregistered_at;type:bigint"`
}

// TableName specifies the table name for the Operator model
func (Operator) TableName() string {
	return "operators"
}
