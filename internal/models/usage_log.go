package models

import (
	"time"
)

// UsageLog 调用记录，只追加
type UsageLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Username    string    `gorm:"size:50;not null;index" json:"username"`
	ModelName   string    `gorm:"size:100;not null" json:"model_name"`
	Usage       int       `gorm:"not null;default:0" json:"usage"`
	RequestText string    `gorm:"type:text" json:"request_text"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (UsageLog) TableName() string {
	return "usage_logs"
}
