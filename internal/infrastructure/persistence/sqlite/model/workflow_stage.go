package model

type WorkflowStage struct {
	Name     string `gorm:"column:name;primaryKey"`
	Position int    `gorm:"column:position;not null"`
}

func (WorkflowStage) TableName() string {
	return "workflow_stages"
}
