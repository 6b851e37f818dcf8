package service

import (
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"

	"github.com/sirupsen/logrus"
)

// UserService 用户管理
type UserService struct {
	userRepo *repository.UserRepository
	logger   *logrus.Logger
}

// NewUserService 创建用户管理服务
func NewUserService(userRepo *repository.UserRepository, logger *logrus.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// List 用户列表
func (s *UserService) List(filter dto.UserFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// Get 获取用户
func (s *UserService) Get(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// Create 创建用户
func (s *UserService) Create(req *dto.CreateUserRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}

	hash, salt, err := hashWithNewSalt(req.Password)
	if err != nil {
		return nil, errs.Internal(err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Salt:         salt,
		APIKey:       emptyToNil(req.APIKey),
		Role:         req.Role,
		IsActive:     req.IsActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"username": user.Username, "role": user.Role}).Info("创建用户")
	return user, nil
}

// Update 部分更新用户
func (s *UserService) Update(id uint, req *dto.UpdateUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}

	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Password != nil {
		hash, salt, err := hashWithNewSalt(*req.Password)
		if err != nil {
			return nil, errs.Internal(err)
		}
		user.PasswordHash, user.Salt = hash, salt
	}
	if req.APIKey != nil {
		user.APIKey = emptyToNil(req.APIKey)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete 默认软删除，hard 为真时删除记录
func (s *UserService) Delete(id uint, hard bool) error {
	if hard {
		return s.userRepo.Delete(id)
	}
	return s.userRepo.Deactivate(id)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
