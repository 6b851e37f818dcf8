// Package testutil 测试辅助函数
package testutil

import (
	"fmt"
	"testing"

	"chat-gateway/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTestDB 每个测试独立的内存数据库，已完成建表
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := models.Open(dsn)
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("建表失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取连接失败: %v", err)
	}
	// 至少保留一个连接，否则内存库会被释放
	sqlDB.SetMaxIdleConns(2)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}
