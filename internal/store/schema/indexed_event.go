package schema

import "gorm.io/datatypes"

// IndexedEvent represents the indexed_events table - the dedup ledger.
// Exactly one row is inserted per applied (txHash, logIndex); a conflicting
// insert means the event was already applied and no counter may run again.
// Raw keeps the decoded payload for debugging and replay audits.
type IndexedEvent struct {
	TxHash      string         `gorm:"column:tx_hash;primaryKey;type:text"`
	LogIndex    uint           `gorm:"column:log_index;primaryKey"`
	Contract    string         `gorm:"column:contract;not null;type:text"`
	Kind        string         `gorm:"column:kind;not null;type:text;index:idx_indexed_events_kind"`
	BlockNumber uint64         `gorm:"column:block_number;not null;type:bigint;index:idx_indexed_events_block"`
	Timestamp   uint64         `gorm:"column:timestamp;not null;type:bigint"`
	Raw         datatypes.JSON `gorm:"column:raw;type:jsonb"`
}

// TableName specifies the table name for the IndexedEvent model
func (IndexedEvent) TableName() string {
	return "indexed_events"
}
