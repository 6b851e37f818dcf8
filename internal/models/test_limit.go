package models

// TestLimit 测试账号按IP计数
type TestLimit struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	UserIP    string `gorm:"uniqueIndex;size:64;not null" json:"user_ip"`
	UserCount int    `gorm:"not null;default:0" json:"user_count"`
	UserLimit int    `gorm:"not null" json:"limit"`
}

// TableName 指定表名
func (TestLimit) TableName() string {
	return "test_limits"
}

// Exceeded 计数已达上限
func (t *TestLimit) Exceeded() bool {
	return t.UserCount >= t.UserLimit
}
