package service

import (
	"testing"
	"time"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Active(t *testing.T) {
	svc := NewNotificationService(repository.NewNotificationRepository(newTestDB(t)))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	inactive := models.NotificationInactive

	_, err := svc.Create(&dto.CreateNotificationRequest{Title: "低优先级", Content: "plain", PublishTime: &past})
	require.NoError(t, err)
	_, err = svc.Create(&dto.CreateNotificationRequest{Title: "维护通知", Content: "**今晚** 维护", PublishTime: &past, Priority: 5})
	require.NoError(t, err)
	_, err = svc.Create(&dto.CreateNotificationRequest{Title: "未发布", PublishTime: &future})
	require.NoError(t, err)
	hidden, err := svc.Create(&dto.CreateNotificationRequest{Title: "已下线", PublishTime: &past})
	require.NoError(t, err)
	_, err = svc.Update(hidden.ID, &dto.UpdateNotificationRequest{Status: &inactive})
	require.NoError(t, err)

	views, err := svc.Active(0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "维护通知", views[0].Title)
	assert.Contains(t, views[0].ContentHTML, "<strong>今晚</strong>")
	assert.Equal(t, "低优先级", views[1].Title)

	views, err = svc.Active(1)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = svc.Create(&dto.CreateNotificationRequest{Title: "x", Status: "draft"})
	assert.Equal(t, errs.TypeInvalidParam, errs.TypeOf(err))

	items, total, err := svc.List(dto.NotificationFilter{Status: models.NotificationActive, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)
}

func TestPromptService_Presets(t *testing.T) {
	svc := NewPromptService(repository.NewSystemPromptRepository(newTestDB(t)))

	_, err := svc.Create(&dto.CreateSystemPromptRequest{RoleName: "翻译", RoleGroup: "工具", RoleContent: "你是翻译", StatusValid: true})
	require.NoError(t, err)
	_, err = svc.Create(&dto.CreateSystemPromptRequest{RoleName: "润色", RoleGroup: "工具", RoleContent: "你是编辑", StatusValid: true})
	require.NoError(t, err)
	off, err := svc.Create(&dto.CreateSystemPromptRequest{RoleName: "诗人", RoleGroup: "创作", RoleContent: "你是诗人", StatusValid: true})
	require.NoError(t, err)

	_, err = svc.Create(&dto.CreateSystemPromptRequest{RoleName: "翻译", RoleGroup: "工具", RoleContent: "dup"})
	assert.Equal(t, errs.TypeAlreadyExists, errs.TypeOf(err))

	invalid := false
	_, err = svc.Update(off.ID, &dto.UpdateSystemPromptRequest{StatusValid: &invalid})
	require.NoError(t, err)

	presets, err := svc.Presets()
	require.NoError(t, err)
	require.Len(t, presets, 1)
	require.Len(t, presets["工具"], 2)
	assert.Equal(t, "翻译", presets["工具"][0].RoleName)
	assert.Equal(t, "你是翻译", presets["工具"][0].RoleContent)

	require.NoError(t, svc.Delete(off.ID))
	_, err = svc.Get(off.ID)
	assert.Equal(t, errs.TypeNotFound, errs.TypeOf(err))
}
