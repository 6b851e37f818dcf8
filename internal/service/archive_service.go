package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// archiveBatchSize 每批复制的记录数
const archiveBatchSize = 500

// ArchiveResult 归档结果
type ArchiveResult struct {
	File    string `json:"file"`
	Dialogs int64  `json:"dialogs"`
	Logs    int64  `json:"logs"`
}

// ArchiveService 将过期对话和调用记录迁移到按日期命名的备份库
type ArchiveService struct {
	db     *gorm.DB
	cfg    config.ArchiveConfig
	logger *logrus.Logger
	now    func() time.Time
}

// NewArchiveService 创建归档服务
func NewArchiveService(db *gorm.DB, cfg config.ArchiveConfig, logger *logrus.Logger) *ArchiveService {
	return &ArchiveService{db: db, cfg: cfg, logger: logger, now: time.Now}
}

// Run 执行一次归档
func (s *ArchiveService) Run() (*ArchiveResult, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("创建归档目录失败: %w", err)
	}

	now := s.now()
	file := filepath.Join(s.cfg.Dir, fmt.Sprintf("logs-%s.db", now.Format("20060102")))
	archive, err := models.Open(file)
	if err != nil {
		return nil, fmt.Errorf("打开归档库失败: %w", err)
	}
	defer func() {
		if sqlDB, err := archive.DB(); err == nil {
			sqlDB.Close()
		}
	}()
	if err := archive.AutoMigrate(&models.Dialog{}, &models.UsageLog{}); err != nil {
		return nil, fmt.Errorf("初始化归档库失败: %w", err)
	}

	s.logCounts("归档前")

	result := &ArchiveResult{File: file}
	cutoff := now.AddDate(0, 0, -s.cfg.DialogDays).Format(models.DateLayout)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewDialogRepository(tx)
		target := repository.NewDialogRepository(archive)
		err := repo.EachBefore(cutoff, archiveBatchSize, func(batch []models.Dialog) error {
			if err := target.CreateBatch(batch); err != nil {
				return fmt.Errorf("写入归档对话失败: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result.Dialogs, err = repo.DeleteBefore(cutoff)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("归档对话失败: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewUsageLogRepository(tx)
		maxID, err := repo.MaxID()
		if err != nil || maxID == 0 {
			return err
		}
		target := repository.NewUsageLogRepository(archive)
		err = repo.EachUpTo(maxID, archiveBatchSize, func(batch []models.UsageLog) error {
			if err := target.CreateBatch(batch); err != nil {
				return fmt.Errorf("写入归档调用记录失败: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result.Logs, err = repo.DeleteUpTo(maxID)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("归档调用记录失败: %w", err)
	}

	s.logCounts("归档后")
	s.logger.WithFields(logrus.Fields{
		"file":    result.File,
		"dialogs": result.Dialogs,
		"logs":    result.Logs,
		"cutoff":  cutoff,
	}).Info("归档完成")
	return result, nil
}

func (s *ArchiveService) logCounts(stage string) {
	dialogs, err1 := repository.NewDialogRepository(s.db).Count()
	logs, err2 := repository.NewUsageLogRepository(s.db).Count()
	if err1 != nil || err2 != nil {
		s.logger.WithField("stage", stage).Warn("统计记录数失败")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"stage":   stage,
		"dialogs": dialogs,
		"logs":    logs,
	}).Info("记录数")
}
