package service

import (
	"time"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/utils"

	"github.com/russross/blackfriday/v2"
)

const defaultActiveNotifications = 10

// NotificationService 公告
type NotificationService struct {
	repo *repository.NotificationRepository
	now  func() time.Time
}

// NewNotificationService 创建公告服务
func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

// Active 已发布的有效公告，内容按 Markdown 渲染
func (s *NotificationService) Active(limit int) ([]dto.NotificationView, error) {
	if limit <= 0 {
		limit = defaultActiveNotifications
	}
	items, err := s.repo.ListActive(s.now(), limit)
	if err != nil {
		return nil, errs.Internal(err)
	}

	views := make([]dto.NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, dto.NotificationView{
			ID:          n.ID,
			Title:       n.Title,
			Content:     n.Content,
			ContentHTML: RenderMarkdown(n.Content),
			PublishTime: n.PublishTime,
			Priority:    n.Priority,
		})
	}
	return views, nil
}

// RenderMarkdown 渲染公告正文
func RenderMarkdown(content string) string {
	return string(blackfriday.Run([]byte(content)))
}

func (s *NotificationService) List(filter dto.NotificationFilter) ([]models.Notification, int64, error) {
	return s.repo.List(filter)
}

func (s *NotificationService) Get(id uint) (*models.Notification, error) {
	return s.repo.GetByID(id)
}

// Create 创建公告，未指定发布时间时立即发布
func (s *NotificationService) Create(req *dto.CreateNotificationRequest) (*models.Notification, error) {
	if req.Status == "" {
		req.Status = models.NotificationActive
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}

	n := &models.Notification{
		Title:       req.Title,
		Content:     req.Content,
		PublishTime: s.now(),
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.PublishTime != nil {
		n.PublishTime = *req.PublishTime
	}
	if err := s.repo.Create(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update 部分更新公告
func (s *NotificationService) Update(id uint, req *dto.UpdateNotificationRequest) (*models.Notification, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, errs.InvalidParam(err.Error())
	}
	n, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if req.PublishTime != nil {
		n.PublishTime = *req.PublishTime
	}
	if req.Status != nil {
		n.Status = *req.Status
	}
	if req.Priority != nil {
		n.Priority = *req.Priority
	}
	if err := s.repo.Update(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *NotificationService) Delete(id uint) error {
	return s.repo.Delete(id)
}
