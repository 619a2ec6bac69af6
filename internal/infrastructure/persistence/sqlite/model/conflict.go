package model

type Conflict struct {
	ConflictID      string  `gorm:"column:conflict_id;primaryKey"`
	AuditID         string  `gorm:"column:audit_id;type:text;not null;index"`
	CircuitID       string  `gorm:"column:circuit_id;type:text;not null;index"`
	LoadScheduleID  string  `gorm:"column:load_schedule_id;type:text"`
	LoadItemID      string  `gorm:"column:load_item_id;type:text"`
	Type            string  `gorm:"column:type;type:text;not null"`
	Severity        string  `gorm:"column:severity;type:text;not null"`
	DetectedAt      string  `gorm:"column:detected_at;type:text;not null"`
	ComparisonsJSON string  `gorm:"column:comparisons_json;type:text;not null"`
	Resolved        bool    `gorm:"column:resolved;not null;default:0"`
	ResolvedAt      *string `gorm:"column:resolved_at;type:text"`
	Resolution      string  `gorm:"column:resolution;type:text"`
}

func (Conflict) TableName() string {
	return "conflicts"
}
