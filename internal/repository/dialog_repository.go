package repository

import (
	"time"

	"chat-gateway/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DialogRepository 对话记录数据访问层，查询均限定所属用户
type DialogRepository struct {
	db *gorm.DB
}

// NewDialogRepository 创建对话Repository
func NewDialogRepository(db *gorm.DB) *DialogRepository {
	return &DialogRepository{db: db}
}

// Upsert 按 (username, chat_type, dialog_name) 插入或覆盖
func (r *DialogRepository) Upsert(dialog *models.Dialog) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}, {Name: "chat_type"}, {Name: "dialog_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"model_name": dialog.ModelName,
			"start_date": dialog.StartDate,
			"context":    dialog.Context,
			"updated_at": time.Now(),
		}),
	}).Create(dialog).Error
	if err != nil {
		return translate(err)
	}

	// 冲突更新时 sqlite 不回填主键
	var saved models.Dialog
	if err := r.db.Select("id").
		Where("username = ? AND chat_type = ? AND dialog_name = ?", dialog.Username, dialog.ChatType, dialog.DialogName).
		First(&saved).Error; err != nil {
		return translate(err)
	}
	dialog.ID = saved.ID
	return nil
}

// UpdateByID 按ID更新用户自己的对话
func (r *DialogRepository) UpdateByID(username string, id uint, fields map[string]interface{}) error {
	return affected(r.db.Model(&models.Dialog{}).
		Where("id = ? AND username = ?", id, username).
		Updates(fields))
}

// GetForUser 获取用户自己的对话
func (r *DialogRepository) GetForUser(username string, id uint) (*models.Dialog, error) {
	var dialog models.Dialog
	if err := r.db.Where("id = ? AND username = ?", id, username).First(&dialog).Error; err != nil {
		return nil, translate(err)
	}
	return &dialog, nil
}

// ListSince 获取 start_date >= since 的对话，最新在前
func (r *DialogRepository) ListSince(username, since, chatType, model string) ([]models.Dialog, error) {
	query := r.db.Omit("context").Where("username = ? AND start_date >= ?", username, since)
	if chatType != "" {
		query = query.Where("chat_type = ?", chatType)
	}
	if model != "" {
		query = query.Where("model_name = ?", model)
	}

	var dialogs []models.Dialog
	err := query.Order("id DESC").Find(&dialogs).Error
	return dialogs, err
}

// DeleteForUser 删除用户自己的对话，返回实际删除数
func (r *DialogRepository) DeleteForUser(username string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("username = ? AND id IN ?", username, ids).Delete(&models.Dialog{})
	return result.RowsAffected, result.Error
}

// Rename 修改标题，返回是否有记录被修改
func (r *DialogRepository) Rename(username string, id uint, title string) (bool, error) {
	result := r.db.Model(&models.Dialog{}).
		Where("id = ? AND username = ?", id, username).
		Updates(map[string]interface{}{"dialog_name": title, "updated_at": time.Now()})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// EachBefore 按批遍历 start_date 早于 date 的对话，归档使用
func (r *DialogRepository) EachBefore(date string, batchSize int, fn func(batch []models.Dialog) error) error {
	var batch []models.Dialog
	return r.db.Where("start_date < ?", date).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, n int) error {
			return fn(batch)
		}).Error
}

// CreateBatch 批量写入，归档使用
func (r *DialogRepository) CreateBatch(dialogs []models.Dialog) error {
	if len(dialogs) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(dialogs, 200).Error
}

// DeleteBefore 删除 start_date 早于 date 的对话，归档使用
func (r *DialogRepository) DeleteBefore(date string) (int64, error) {
	result := r.db.Where("start_date < ?", date).Delete(&models.Dialog{})
	return result.RowsAffected, result.Error
}

// Count 记录总数
func (r *DialogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Dialog{}).Count(&count).Error
	return count, err
}
