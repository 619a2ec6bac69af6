package model

type Finding struct {
	FindingID      string  `gorm:"column:finding_id;primaryKey"`
	AuditID        string  `gorm:"column:audit_id;type:text;not null;index"`
	Section        string  `gorm:"column:section;type:text;not null"`
	Description    string  `gorm:"column:description;type:text;not null"`
	Recommendation string  `gorm:"column:recommendation;type:text;not null"`
	Severity       string  `gorm:"column:severity;type:text;not null"`
	EstimatedCost  float64 `gorm:"column:estimated_cost;not null;default:0"`
	Status         string  `gorm:"column:status;type:text;not null"`
	Assignee       *string `gorm:"column:assignee;type:text"`
	ApprovalStatus string  `gorm:"column:approval_status;type:text;not null"`
	Removed        bool    `gorm:"column:removed;not null;default:0"`
	CreatedAt      string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt      string  `gorm:"column:updated_at;type:text;not null"`
}

func (Finding) TableName() string {
	return "findings"
}
