package repository

import (
	"strings"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"

	"gorm.io/gorm"
)

// ModelMetaRepository 模型元数据数据访问层
type ModelMetaRepository struct {
	db *gorm.DB
}

// NewModelMetaRepository 创建模型元数据Repository
func NewModelMetaRepository(db *gorm.DB) *ModelMetaRepository {
	return &ModelMetaRepository{db: db}
}

// Create 创建模型元数据
func (r *ModelMetaRepository) Create(meta *models.ModelMeta) error {
	return translate(r.db.Create(meta).Error)
}

// GetByID 根据ID获取模型元数据
func (r *ModelMetaRepository) GetByID(id uint) (*models.ModelMeta, error) {
	var meta models.ModelMeta
	if err := r.db.First(&meta, id).Error; err != nil {
		return nil, translate(err)
	}
	return &meta, nil
}

// Update 更新模型元数据
func (r *ModelMetaRepository) Update(meta *models.ModelMeta) error {
	return translate(r.db.Save(meta).Error)
}

// Delete 删除模型元数据
func (r *ModelMetaRepository) Delete(id uint) error {
	return affected(r.db.Delete(&models.ModelMeta{}, id))
}

// List 获取模型元数据列表
func (r *ModelMetaRepository) List(filter dto.ModelMetaFilter) ([]models.ModelMeta, int64, error) {
	query := r.db.Model(&models.ModelMeta{})
	if filter.Recommend != nil {
		query = query.Where("recommend = ?", *filter.Recommend)
	}
	if filter.StatusValid != nil {
		query = query.Where("status_valid = ?", *filter.StatusValid)
	}
	if filter.ModelType != nil {
		query = query.Where("model_type = ?", *filter.ModelType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var metas []models.ModelMeta
	err := query.Order("recommend DESC, model_name ASC").Find(&metas).Error
	return metas, total, err
}

// IndexByName 全部元数据，key 为小写模型名
func (r *ModelMetaRepository) IndexByName() (map[string]models.ModelMeta, error) {
	var metas []models.ModelMeta
	if err := r.db.Find(&metas).Error; err != nil {
		return nil, err
	}
	index := make(map[string]models.ModelMeta, len(metas))
	for _, m := range metas {
		index[strings.ToLower(m.ModelName)] = m
	}
	return index, nil
}
