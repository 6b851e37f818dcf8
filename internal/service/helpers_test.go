package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/testutil"
	"chat-gateway/pkg/logger"
	"chat-gateway/pkg/model_caller"

	"gorm.io/gorm"
)

type mockUpstream struct {
	ChatFunc          func(ctx context.Context, model string, messages []dto.Message, options *model_caller.CallOptions) (*dto.ChatCompletionResponse, []byte, error)
	ChatStreamFunc    func(ctx context.Context, model string, messages []dto.Message, options *model_caller.CallOptions, onDelta func(string) error) error
	GenerateImageFunc func(ctx context.Context, req dto.ImageGenerationRequest, apiKey string) (*dto.ImageResponse, []byte, error)
	EditImageFunc     func(ctx context.Context, req dto.ImageGenerationRequest, image []byte, filename, apiKey string) (*dto.ImageResponse, []byte, error)
	DownloadFunc      func(ctx context.Context, url string, maxSize int64) ([]byte, error)
}

func (m *mockUpstream) Chat(ctx context.Context, model string, messages []dto.Message, options *model_caller.CallOptions) (*dto.ChatCompletionResponse, []byte, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, model, messages, options)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockUpstream) ChatStream(ctx context.Context, model string, messages []dto.Message, options *model_caller.CallOptions, onDelta func(string) error) error {
	if m.ChatStreamFunc != nil {
		return m.ChatStreamFunc(ctx, model, messages, options, onDelta)
	}
	return errors.New("not implemented")
}

func (m *mockUpstream) GenerateImage(ctx context.Context, req dto.ImageGenerationRequest, apiKey string) (*dto.ImageResponse, []byte, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, req, apiKey)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockUpstream) EditImage(ctx context.Context, req dto.ImageGenerationRequest, image []byte, filename, apiKey string) (*dto.ImageResponse, []byte, error) {
	if m.EditImageFunc != nil {
		return m.EditImageFunc(ctx, req, image, filename, apiKey)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockUpstream) Download(ctx context.Context, url string, maxSize int64) ([]byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, url, maxSize)
	}
	return nil, errors.New("not implemented")
}

type mockLister struct {
	ListModelsFunc func(ctx context.Context) ([]string, error)
	calls          int
}

func (m *mockLister) ListModels(ctx context.Context) ([]string, error) {
	m.calls++
	return m.ListModelsFunc(ctx)
}

// allowModels 只认可给定模型的校验器
type allowModels []string

func (a allowModels) Resolve(_ context.Context, model string) (string, bool) {
	for _, m := range a {
		if strings.EqualFold(m, model) {
			return m, true
		}
	}
	return "", false
}

type mockSlots struct {
	AcquireFunc func(ctx context.Context, key string) error
	released    []string
}

func (m *mockSlots) Acquire(ctx context.Context, key string) error {
	return m.AcquireFunc(ctx, key)
}

func (m *mockSlots) Release(_ context.Context, key string) {
	m.released = append(m.released, key)
}

func newHistoryService(db *gorm.DB) *HistoryService {
	return NewHistoryService(
		repository.NewUsageLogRepository(db),
		repository.NewDialogRepository(db),
		config.HistoryConfig{Days: 7},
		logger.Discard(),
	)
}

func newTestDB(t *testing.T) *gorm.DB {
	return testutil.NewTestDB(t)
}

func usageLogs(t *testing.T, db *gorm.DB) []models.UsageLog {
	t.Helper()
	var logs []models.UsageLog
	if err := db.Order("id ASC").Find(&logs).Error; err != nil {
		t.Fatalf("查询调用记录失败: %v", err)
	}
	return logs
}

func dialogs(t *testing.T, db *gorm.DB) []models.Dialog {
	t.Helper()
	var rows []models.Dialog
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("查询对话失败: %v", err)
	}
	return rows
}
