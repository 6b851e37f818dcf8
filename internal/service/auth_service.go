package service

import (
	"errors"
	"fmt"
	"strings"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"

	"github.com/sirupsen/logrus"
)

// AuthService 认证服务，每次请求都校验用户名和密码
type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
	logger   *logrus.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		logger:   logger,
	}
}

// Verify 校验凭据，role 非空时要求角色匹配。
// 用户不存在、已禁用、角色不符统一返回 ErrUserNotFound。
func (s *AuthService) Verify(username, password, role string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errs.ErrMissingCredentials
	}

	user, err := s.userRepo.FindActive(username, role)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, errs.Internal(fmt.Errorf("查询用户失败: %w", err))
	}

	if err := utils.CheckPassword(password, user.Salt, user.PasswordHash); err != nil {
		return nil, errs.ErrWrongPassword
	}

	return user, nil
}

// Login 返回登录用户信息
func (s *AuthService) Login(username, password string) (*dto.LoginResponse, error) {
	user, err := s.Verify(username, password, "")
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Username:  user.Username,
		Role:      user.Role,
		HasAPIKey: user.UpstreamKey() != "",
	}, nil
}

// ChangePassword 校验旧密码后设置新密码，同时更换盐
func (s *AuthService) ChangePassword(user *models.User, req *dto.ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return errs.InvalidParam(err.Error())
	}
	if err := utils.CheckPassword(req.OldPassword, user.Salt, user.PasswordHash); err != nil {
		return errs.ErrWrongPassword
	}

	hash, salt, err := hashWithNewSalt(req.NewPassword)
	if err != nil {
		return errs.Internal(err)
	}
	if err := s.userRepo.UpdatePassword(user.ID, hash, salt); err != nil {
		return err
	}

	s.logger.WithField("username", user.Username).Info("用户修改密码")
	return nil
}

// InitAdmin 不存在管理员时按配置创建
func (s *AuthService) InitAdmin() error {
	exists, err := s.userRepo.ExistsRole(models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("查询管理员失败: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := s.userRepo.GetByUsername(s.cfg.Admin.Username); err == nil {
		return fmt.Errorf("用户 %s 已存在但不是启用的管理员", s.cfg.Admin.Username)
	}

	// 配置中已是bcrypt哈希时直接使用，盐为空
	passwordHash, salt := s.cfg.Admin.Password, ""
	if !isBcryptHash(passwordHash) {
		passwordHash, salt, err = hashWithNewSalt(s.cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("密码哈希失败: %w", err)
		}
	}

	user := &models.User{
		Username:     s.cfg.Admin.Username,
		PasswordHash: passwordHash,
		Salt:         salt,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("创建管理员失败: %w", err)
	}

	s.logger.WithField("username", user.Username).Info("已创建管理员账户")
	return nil
}

// SeedUsers 导入配置中的用户，已存在的跳过，返回新建数量
func (s *AuthService) SeedUsers(entries []string) (int, error) {
	created := 0
	for _, entry := range entries {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			s.logger.WithField("entry", parts[0]).Warn("忽略格式错误的用户配置")
			continue
		}

		if _, err := s.userRepo.GetByUsername(parts[0]); err == nil {
			continue
		} else if !errors.Is(err, errs.ErrNotFound) {
			return created, err
		}

		hash, salt, err := hashWithNewSalt(parts[1])
		if err != nil {
			return created, err
		}
		user := &models.User{
			Username:     parts[0],
			PasswordHash: hash,
			Salt:         salt,
			Role:         models.RoleUser,
			IsActive:     true,
		}
		if len(parts) == 3 && parts[2] != "" {
			key := parts[2]
			user.APIKey = &key
		}
		if err := s.userRepo.Create(user); err != nil {
			return created, fmt.Errorf("导入用户 %s 失败: %w", parts[0], err)
		}
		created++
	}
	return created, nil
}

func hashWithNewSalt(password string) (hash, salt string, err error) {
	salt, err = utils.GenerateSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = utils.HashPassword(password, salt)
	if err != nil {
		return "", "", err
	}
	return hash, salt, nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
