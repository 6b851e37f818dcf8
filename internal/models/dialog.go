package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ChatTypeChat  = "chat"
	ChatTypeImage = "image"
)

// DateLayout 对话 start_date 的存储格式
const DateLayout = "2006-01-02"

// Dialog 对话记录，(username, chat_type, dialog_name) 唯一
type Dialog struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Username   string         `gorm:"size:50;not null;uniqueIndex:idx_dialog_key,priority:1" json:"username"`
	ChatType   string         `gorm:"size:20;not null;uniqueIndex:idx_dialog_key,priority:2" json:"chat_type"`
	DialogName string         `gorm:"size:200;not null;uniqueIndex:idx_dialog_key,priority:3" json:"title"`
	ModelName  string         `gorm:"size:100" json:"model_name"`
	StartDate  string         `gorm:"size:10;index" json:"start_date"`
	Context    datatypes.JSON `json:"context"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (Dialog) TableName() string {
	return "dialogs"
}
