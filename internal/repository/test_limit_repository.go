package repository

import (
	"errors"

	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"

	"gorm.io/gorm"
)

// TestLimitRepository 测试账号IP计数数据访问层
type TestLimitRepository struct {
	db *gorm.DB
}

// NewTestLimitRepository 创建IP计数Repository
func NewTestLimitRepository(db *gorm.DB) *TestLimitRepository {
	return &TestLimitRepository{db: db}
}

// GetOrCreate 获取IP记录，不存在时以 limit 为上限创建
func (r *TestLimitRepository) GetOrCreate(ip string, limit int) (*models.TestLimit, error) {
	var rec models.TestLimit
	err := r.db.Where(models.TestLimit{UserIP: ip}).
		Attrs(models.TestLimit{UserCount: 0, UserLimit: limit}).
		FirstOrCreate(&rec).Error
	if err == nil {
		return &rec, nil
	}

	// 并发创建时另一请求已写入
	if errors.Is(translate(err), errs.ErrAlreadyExists) {
		if err := r.db.Where("user_ip = ?", ip).First(&rec).Error; err != nil {
			return nil, translate(err)
		}
		return &rec, nil
	}
	return nil, err
}

// Increment 计数加一
func (r *TestLimitRepository) Increment(ip string) error {
	return affected(r.db.Model(&models.TestLimit{}).
		Where("user_ip = ?", ip).
		UpdateColumn("user_count", gorm.Expr("user_count + ?", 1)))
}

// Create 创建IP记录
func (r *TestLimitRepository) Create(rec *models.TestLimit) error {
	return translate(r.db.Create(rec).Error)
}

// GetByID 根据ID获取IP记录
func (r *TestLimitRepository) GetByID(id uint) (*models.TestLimit, error) {
	var rec models.TestLimit
	if err := r.db.First(&rec, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// GetByIP 根据IP获取记录
func (r *TestLimitRepository) GetByIP(ip string) (*models.TestLimit, error) {
	var rec models.TestLimit
	if err := r.db.Where("user_ip = ?", ip).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// Update 更新IP记录
func (r *TestLimitRepository) Update(rec *models.TestLimit) error {
	return translate(r.db.Save(rec).Error)
}

// Delete 删除IP记录
func (r *TestLimitRepository) Delete(id uint) error {
	return affected(r.db.Delete(&models.TestLimit{}, id))
}

// List 获取IP记录列表，ip 非空时模糊匹配
func (r *TestLimitRepository) List(ip string) ([]models.TestLimit, int64, error) {
	query := r.db.Model(&models.TestLimit{})
	if ip != "" {
		query = query.Where("user_ip LIKE ?", "%"+ip+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []models.TestLimit
	err := query.Order("user_count DESC, id ASC").Find(&recs).Error
	return recs, total, err
}

// ResetByID 清零指定记录
func (r *TestLimitRepository) ResetByID(id uint) (int64, error) {
	result := r.db.Model(&models.TestLimit{}).Where("id = ?", id).Update("user_count", 0)
	return result.RowsAffected, result.Error
}

// ResetByIP 清零指定IP
func (r *TestLimitRepository) ResetByIP(ip string) (int64, error) {
	result := r.db.Model(&models.TestLimit{}).Where("user_ip = ?", ip).Update("user_count", 0)
	return result.RowsAffected, result.Error
}

// ResetAll 清零全部记录
func (r *TestLimitRepository) ResetAll() (int64, error) {
	result := r.db.Model(&models.TestLimit{}).Where("user_count <> ?", 0).Update("user_count", 0)
	return result.RowsAffected, result.Error
}
