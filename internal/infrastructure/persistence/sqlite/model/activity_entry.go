package model

// ActivityEntry rows are append-only: nothing in the repository updates or
// deletes them once written.
type ActivityEntry struct {
	EntryID   uint64 `gorm:"column:entry_id;primaryKey;autoIncrement"`
	FindingID string `gorm:"column:finding_id;type:text;not null;index"`
	Action    string `gorm:"column:action;type:text;not null"`
	Actor     string `gorm:"column:actor;type:text;not null"`
	Details   string `gorm:"column:details;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (ActivityEntry) TableName() string {
	return "activity_entries"
}
