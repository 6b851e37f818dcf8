package models

import (
	"time"
)

const (
	NotificationActive   = "active"
	NotificationInactive = "inactive"
)

// Notification 公告
type Notification struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	PublishTime time.Time `gorm:"index" json:"publish_time"`
	Status      string    `gorm:"size:20;not null;default:'active'" json:"status"`
	Priority    int       `gorm:"not null;default:0" json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
