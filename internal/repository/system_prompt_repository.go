package repository

import (
	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"

	"gorm.io/gorm"
)

// SystemPromptRepository 提示词数据访问层
type SystemPromptRepository struct {
	db *gorm.DB
}

// NewSystemPromptRepository 创建提示词Repository
func NewSystemPromptRepository(db *gorm.DB) *SystemPromptRepository {
	return &SystemPromptRepository{db: db}
}

// Create 创建提示词
func (r *SystemPromptRepository) Create(prompt *models.SystemPrompt) error {
	return translate(r.db.Create(prompt).Error)
}

// GetByID 根据ID获取提示词
func (r *SystemPromptRepository) GetByID(id uint) (*models.SystemPrompt, error) {
	var prompt models.SystemPrompt
	if err := r.db.First(&prompt, id).Error; err != nil {
		return nil, translate(err)
	}
	return &prompt, nil
}

// Update 更新提示词
func (r *SystemPromptRepository) Update(prompt *models.SystemPrompt) error {
	return translate(r.db.Save(prompt).Error)
}

// Delete 删除提示词
func (r *SystemPromptRepository) Delete(id uint) error {
	return affected(r.db.Delete(&models.SystemPrompt{}, id))
}

// List 获取提示词列表
func (r *SystemPromptRepository) List(filter dto.SystemPromptFilter) ([]models.SystemPrompt, int64, error) {
	query := r.db.Model(&models.SystemPrompt{})
	if filter.RoleGroup != "" {
		query = query.Where("role_group = ?", filter.RoleGroup)
	}
	if filter.StatusValid != nil {
		query = query.Where("status_valid = ?", *filter.StatusValid)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var prompts []models.SystemPrompt
	err := query.Order("role_group ASC, id ASC").Find(&prompts).Error
	return prompts, total, err
}
