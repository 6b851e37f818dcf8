package repository

import (
	"time"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageLogRepository 调用记录数据访问层
type UsageLogRepository struct {
	db *gorm.DB
}

// NewUsageLogRepository 创建调用记录Repository
func NewUsageLogRepository(db *gorm.DB) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

// Create 追加一条调用记录
func (r *UsageLogRepository) Create(log *models.UsageLog) error {
	return r.db.Create(log).Error
}

// SummaryByModel 按模型汇总用户用量
func (r *UsageLogRepository) SummaryByModel(username string, since time.Time) ([]dto.ModelUsage, error) {
	var rows []dto.ModelUsage
	err := r.db.Model(&models.UsageLog{}).
		Select("model_name, COUNT(*) AS calls, COALESCE(SUM(usage), 0) AS tokens").
		Where("username = ? AND created_at >= ?", username, since).
		Group("model_name").
		Order("tokens DESC").
		Scan(&rows).Error
	return rows, err
}

// ListByUser 获取用户最近的调用记录
func (r *UsageLogRepository) ListByUser(username string, limit int) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	err := r.db.Where("username = ?", username).Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// MaxID 当前最大ID，无记录时为0
func (r *UsageLogRepository) MaxID() (uint, error) {
	var maxID uint
	err := r.db.Model(&models.UsageLog{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error
	return maxID, err
}

// EachUpTo 按批遍历 id <= maxID 的记录，归档使用
func (r *UsageLogRepository) EachUpTo(maxID uint, batchSize int, fn func(batch []models.UsageLog) error) error {
	var batch []models.UsageLog
	return r.db.Where("id <= ?", maxID).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, n int) error {
			return fn(batch)
		}).Error
}

// CreateBatch 批量写入，归档使用
func (r *UsageLogRepository) CreateBatch(logs []models.UsageLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(logs, 200).Error
}

// DeleteUpTo 删除 id <= maxID 的记录
func (r *UsageLogRepository) DeleteUpTo(maxID uint) (int64, error) {
	result := r.db.Where("id <= ?", maxID).Delete(&models.UsageLog{})
	return result.RowsAffected, result.Error
}

// Count 记录总数
func (r *UsageLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.UsageLog{}).Count(&count).Error
	return count, err
}
