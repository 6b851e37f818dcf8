package repository

import (
	"time"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository 公告数据访问层
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建公告Repository
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create 创建公告
func (r *NotificationRepository) Create(n *models.Notification) error {
	return translate(r.db.Create(n).Error)
}

// GetByID 根据ID获取公告
func (r *NotificationRepository) GetByID(id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// Update 更新公告
func (r *NotificationRepository) Update(n *models.Notification) error {
	return translate(r.db.Save(n).Error)
}

// Delete 删除公告
func (r *NotificationRepository) Delete(id uint) error {
	return affected(r.db.Delete(&models.Notification{}, id))
}

// List 获取公告列表
func (r *NotificationRepository) List(filter dto.NotificationFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []models.Notification
	err := query.Order("priority DESC, publish_time DESC").Find(&items).Error
	return items, total, err
}

// ListActive 获取已发布的有效公告
func (r *NotificationRepository) ListActive(now time.Time, limit int) ([]models.Notification, error) {
	var items []models.Notification
	err := r.db.Where("status = ? AND publish_time <= ?", models.NotificationActive, now).
		Order("priority DESC, publish_time DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
