package service

import (
	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"
	"chat-gateway/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// LimitService 测试账号按IP限次
type LimitService struct {
	repo   *repository.TestLimitRepository
	cfg    config.TestUserConfig
	logger *logrus.Logger
}

// NewLimitService 创建限次服务
func NewLimitService(repo *repository.TestLimitRepository, cfg config.TestUserConfig, logger *logrus.Logger) *LimitService {
	return &LimitService{repo: repo, cfg: cfg, logger: logger}
}

// Applies 是否需要对该用户限次
func (s *LimitService) Applies(username string) bool {
	return s.cfg.Username != "" && username == s.cfg.Username
}

// DefaultLimit 新IP记录的默认上限
func (s *LimitService) DefaultLimit() int {
	return s.cfg.Limit
}

// Exceeded 查询IP是否已达上限，不修改计数
func (s *LimitService) Exceeded(ip string) (bool, *models.TestLimit, error) {
	rec, err := s.repo.GetOrCreate(ip, s.cfg.Limit)
	if err != nil {
		return false, nil, errs.Internal(err)
	}
	return rec.Exceeded(), rec, nil
}

// Increment 计数加一，返回当前计数和上限
func (s *LimitService) Increment(ip string) (int, int, error) {
	if _, err := s.repo.GetOrCreate(ip, s.cfg.Limit); err != nil {
		return 0, 0, errs.Internal(err)
	}
	if err := s.repo.Increment(ip); err != nil {
		return 0, 0, errs.Internal(err)
	}
	rec, err := s.repo.GetByIP(ip)
	if err != nil {
		return 0, 0, errs.Internal(err)
	}
	return rec.UserCount, rec.UserLimit, nil
}

// Guard 对测试账号先检查再计数，超限时返回 rate_limit
func (s *LimitService) Guard(username, ip string) error {
	if !s.Applies(username) {
		return nil
	}

	exceeded, rec, err := s.Exceeded(ip)
	if err != nil {
		return err
	}
	if exceeded {
		metrics.RecordTestLimitRejected()
		s.logger.WithFields(logrus.Fields{
			"ip":    ip,
			"count": rec.UserCount,
			"limit": rec.UserLimit,
		}).Warn("测试账号超出调用上限")
		return errs.TestLimitExceeded(rec.UserLimit)
	}

	_, _, err = s.Increment(ip)
	return err
}

// List IP记录列表
func (s *LimitService) List(ipLike string) ([]models.TestLimit, int64, error) {
	return s.repo.List(ipLike)
}

// Get 获取IP记录
func (s *LimitService) Get(id uint) (*models.TestLimit, error) {
	return s.repo.GetByID(id)
}

// Create 创建IP记录
func (s *LimitService) Create(req *dto.CreateTestLimitRequest) (*models.TestLimit, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}
	rec := &models.TestLimit{UserIP: req.UserIP, UserCount: req.UserCount, UserLimit: req.Limit}
	if err := s.repo.Create(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update 部分更新IP记录
func (s *LimitService) Update(id uint, req *dto.UpdateTestLimitRequest) (*models.TestLimit, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}
	rec, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.UserIP != nil {
		rec.UserIP = *req.UserIP
	}
	if req.UserCount != nil {
		rec.UserCount = *req.UserCount
	}
	if req.Limit != nil {
		rec.UserLimit = *req.Limit
	}
	if err := s.repo.Update(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete 删除IP记录
func (s *LimitService) Delete(id uint) error {
	return s.repo.Delete(id)
}

// Reset 清零计数，返回影响行数
func (s *LimitService) Reset(req *dto.ResetTestLimitRequest) (int64, error) {
	var (
		n   int64
		err error
	)
	switch {
	case req.ResetAll:
		n, err = s.repo.ResetAll()
	case req.ID > 0:
		n, err = s.repo.ResetByID(req.ID)
	case req.UserIP != "":
		n, err = s.repo.ResetByIP(req.UserIP)
	default:
		return 0, errs.InvalidParam("id / user_ip / reset_all")
	}
	if err != nil {
		return 0, errs.Internal(err)
	}

	s.logger.WithFields(logrus.Fields{"id": req.ID, "ip": req.UserIP, "all": req.ResetAll, "rows": n}).Info("重置测试账号计数")
	return n, nil
}
