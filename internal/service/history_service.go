package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	storedTitleRunes  = 50
	displayTitleRunes = 20
	requestTextRunes  = 4000
)

// HistoryService 用量记录和对话历史
type HistoryService struct {
	usageRepo  *repository.UsageLogRepository
	dialogRepo *repository.DialogRepository
	cfg        config.HistoryConfig
	logger     *logrus.Logger
	now        func() time.Time
}

// NewHistoryService 创建历史服务
func NewHistoryService(usageRepo *repository.UsageLogRepository, dialogRepo *repository.DialogRepository, cfg config.HistoryConfig, logger *logrus.Logger) *HistoryService {
	return &HistoryService{
		usageRepo:  usageRepo,
		dialogRepo: dialogRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// RecordUsage 追加一条调用记录，raw 为上游原始响应或错误文本
func (s *HistoryService) RecordUsage(username, model string, tokens int, raw string) error {
	log := &models.UsageLog{
		Username:    username,
		ModelName:   model,
		Usage:       tokens,
		RequestText: utils.TruncateRunes(raw, requestTextRunes, ""),
	}
	if err := s.usageRepo.Create(log); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"username": username,
			"model":    model,
		}).Error("写入调用记录失败")
		return errs.Internal(err)
	}
	return nil
}

// UpsertDialog 保存对话。dialogID 非空时更新该条记录，否则按 (用户, 类型, 标题) 插入或覆盖。
func (s *HistoryService) UpsertDialog(username, model, chatType, title string, context []dto.Message, dialogID *uint) (*models.Dialog, error) {
	raw, err := json.Marshal(context)
	if err != nil {
		return nil, errs.Internal(fmt.Errorf("序列化对话失败: %w", err))
	}
	today := s.now().Format(models.DateLayout)

	if dialogID != nil && *dialogID > 0 {
		err := s.dialogRepo.UpdateByID(username, *dialogID, map[string]interface{}{
			"model_name": model,
			"start_date": today,
			"context":    datatypes.JSON(raw),
			"updated_at": s.now(),
		})
		if err != nil {
			return nil, err
		}
		return s.dialogRepo.GetForUser(username, *dialogID)
	}

	title = utils.TruncateRunes(strings.TrimSpace(title), storedTitleRunes, "")
	if title == "" {
		return nil, errs.InvalidParam("title")
	}

	dialog := &models.Dialog{
		Username:   username,
		ChatType:   chatType,
		DialogName: title,
		ModelName:  model,
		StartDate:  today,
		Context:    datatypes.JSON(raw),
	}
	if err := s.dialogRepo.Upsert(dialog); err != nil {
		return nil, err
	}
	return dialog, nil
}

// ListRecent 列出 since 之后的对话，since 为空时取最近 history.days 天
func (s *HistoryService) ListRecent(username, since, chatType, model string) ([]dto.DialogSummary, error) {
	if since == "" {
		since = s.now().AddDate(0, 0, -s.cfg.Days).Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, since); err != nil {
		return nil, errs.InvalidParam("since")
	}

	dialogs, err := s.dialogRepo.ListSince(username, since, chatType, model)
	if err != nil {
		return nil, errs.Internal(err)
	}

	items := make([]dto.DialogSummary, 0, len(dialogs))
	for i := range dialogs {
		items = append(items, summarize(&dialogs[i]))
	}
	return items, nil
}

// GetContext 获取对话详情
func (s *HistoryService) GetContext(username string, id uint) (*dto.DialogDetail, error) {
	dialog, err := s.dialogRepo.GetForUser(username, id)
	if err != nil {
		return nil, err
	}

	detail := &dto.DialogDetail{DialogSummary: summarize(dialog), Context: []dto.Message{}}
	if len(dialog.Context) > 0 {
		if err := json.Unmarshal(dialog.Context, &detail.Context); err != nil {
			return nil, errs.Internal(fmt.Errorf("解析对话内容失败: %w", err))
		}
	}
	return detail, nil
}

// Delete 删除用户自己的对话
func (s *HistoryService) Delete(username string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, errs.InvalidParam("ids")
	}
	n, err := s.dialogRepo.DeleteForUser(username, ids)
	if err != nil {
		return 0, errs.Internal(err)
	}
	return n, nil
}

// Rename 修改对话标题
func (s *HistoryService) Rename(username string, id uint, title string) (bool, error) {
	title = utils.TruncateRunes(strings.TrimSpace(title), storedTitleRunes, "")
	if title == "" {
		return false, errs.InvalidParam("title")
	}
	return s.dialogRepo.Rename(username, id, title)
}

// UsageSummary 按模型汇总用量，since 为空时取最近 history.days 天
func (s *HistoryService) UsageSummary(username, since string) (*dto.UsageSummary, error) {
	var from time.Time
	if since == "" {
		y, m, d := s.now().AddDate(0, 0, -s.cfg.Days).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	} else {
		t, err := time.ParseInLocation(models.DateLayout, since, time.Local)
		if err != nil {
			return nil, errs.InvalidParam("since")
		}
		from = t
	}

	rows, err := s.usageRepo.SummaryByModel(username, from)
	if err != nil {
		return nil, errs.Internal(err)
	}

	summary := &dto.UsageSummary{Since: from.Format(models.DateLayout), Models: rows}
	if summary.Models == nil {
		summary.Models = []dto.ModelUsage{}
	}
	for _, r := range rows {
		summary.TotalCalls += r.Calls
		summary.TotalTokens += r.Tokens
	}
	return summary, nil
}

func summarize(d *models.Dialog) dto.DialogSummary {
	return dto.DialogSummary{
		ID:           d.ID,
		Title:        d.DialogName,
		DisplayTitle: utils.TruncateRunes(d.DialogName, displayTitleRunes, "..."),
		ChatType:     d.ChatType,
		ModelName:    d.ModelName,
		StartDate:    d.StartDate,
	}
}

// Owns 对话是否存在且属于该用户
func (s *HistoryService) Owns(username string, id uint) error {
	_, err := s.dialogRepo.GetForUser(username, id)
	return err
}
