package model

// AuditSettings stores per-audit reminder/escalation overrides. Audits
// without a row use the configured defaults.
type AuditSettings struct {
	AuditID        string `gorm:"column:audit_id;primaryKey"`
	ReminderDays   int    `gorm:"column:reminder_days;not null"`
	EscalationDays int    `gorm:"column:escalation_days;not null"`
	UpdatedAt      string `gorm:"column:updated_at;type:text;not null"`
}

func (AuditSettings) TableName() string {
	return "audit_settings"
}
