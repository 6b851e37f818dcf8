package models

import (
	"fmt"

	"chat-gateway/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 全局数据库实例
var DB *gorm.DB

// InitDB 打开数据库并建表
func InitDB(cfg *config.Config) error {
	db, err := Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	DB = db
	return nil
}

// Open 打开sqlite数据库文件，path 可为 file::memory:
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// AutoMigrate 创建或更新全部表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&UsageLog{},
		&Dialog{},
		&ModelMeta{},
		&SystemPrompt{},
		&TestLimit{},
		&Notification{},
	)
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return DB
}
