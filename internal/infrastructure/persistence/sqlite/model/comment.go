package model

type Comment struct {
	CommentID uint64 `gorm:"column:comment_id;primaryKey;autoIncrement"`
	FindingID string `gorm:"column:finding_id;type:text;not null;index"`
	Author    string `gorm:"column:author;type:text;not null"`
	Text      string `gorm:"column:text;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null"`
}

func (Comment) TableName() string {
	return "comments"
}
