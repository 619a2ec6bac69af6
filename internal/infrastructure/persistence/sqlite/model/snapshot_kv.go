package model

// SnapshotKV backs the generic cache port; the sync core keys it by
// circuit:<auditID>:<source>:<circuitID> to remember each calculator's
// last-known view of a circuit.
type SnapshotKV struct {
	Key       string `gorm:"column:key;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (SnapshotKV) TableName() string {
	return "snapshot_kv"
}
