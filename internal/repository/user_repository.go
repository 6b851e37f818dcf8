package repository

import (
	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问层
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户Repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(user *models.User) error {
	return translate(r.db.Create(user).Error)
}

// GetByID 根据ID获取用户
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindActive 查找启用的用户，role 非空时同时匹配角色
func (r *UserRepository) FindActive(username, role string) (*models.User, error) {
	query := r.db.Where("username = ? AND is_active = ?", username, true)
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Update 更新用户
func (r *UserRepository) Update(user *models.User) error {
	return translate(r.db.Save(user).Error)
}

// UpdatePassword 更新密码和盐
func (r *UserRepository) UpdatePassword(id uint, hash, salt string) error {
	return affected(r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": hash,
		"salt":          salt,
	}))
}

// Deactivate 软删除
func (r *UserRepository) Deactivate(id uint) error {
	return affected(r.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", false))
}

// Delete 硬删除
func (r *UserRepository) Delete(id uint) error {
	return affected(r.db.Delete(&models.User{}, id))
}

// List 获取用户列表
func (r *UserRepository) List(filter dto.UserFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("id ASC").Find(&users).Error
	return users, total, err
}

// ExistsRole 是否存在启用的该角色用户
func (r *UserRepository) ExistsRole(role string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ? AND is_active = ?", role, true).Count(&count).Error
	return count > 0, err
}
